// Package contract holds repository behavior suites shared by every storage implementation.
package contract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

type PlayerFactory func(t *testing.T) (repository.PlayerRepository, func())

type MatchFactory func(t *testing.T) (repository.MatchRepository, func())

type UserFactory func(t *testing.T) (repository.UserRepository, func())

type TxFactory func(t *testing.T) (tx repository.TxManager, players repository.PlayerRepository, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func newPlayer(name string, skill int, pos model.Position) model.Player {
	return model.Player{Name: name, SkillLevel: skill, Position: pos, Active: true}
}

func RunPlayerRepositoryContract(t *testing.T, makeRepo PlayerFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		w := 72.5
		foot := model.FootLeft
		in := newPlayer("Zico", 9, model.PositionMidfielder)
		in.Weight, in.PreferredFoot = &w, &foot
		created, err := repo.Create(ctx, in)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == "" {
			t.Fatalf("expected generated id")
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Name != "Zico" || got.SkillLevel != 9 || got.Position != model.PositionMidfielder || !got.Active {
			t.Fatalf("mismatch: %+v", got)
		}
		if got.Weight == nil || *got.Weight != 72.5 || got.Height != nil {
			t.Fatalf("optional fields mismatch: weight=%v height=%v", got.Weight, got.Height)
		}
		if got.PreferredFoot == nil || *got.PreferredFoot != model.FootLeft {
			t.Fatalf("preferred foot mismatch: %v", got.PreferredFoot)
		}
		if got.Goals != 0 || got.Assists != 0 || got.Saves != 0 {
			t.Fatalf("expected zero stats, got %+v", got)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.GetByID(context.Background(), "missing")
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list_filters_and_pages", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var benched string
		for i := 0; i < 5; i++ {
			pos := model.PositionForward
			if i%2 == 0 {
				pos = model.PositionGoalkeeper
			}
			p, err := repo.Create(ctx, newPlayer(fmt.Sprintf("P-%c", 'A'+i), 5, pos))
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
			if i == 4 {
				benched = p.ID
			}
		}
		if _, err := repo.SetActive(ctx, benched, false); err != nil {
			t.Fatalf("deactivate: %v", err)
		}

		active, err := repo.List(ctx, repository.PlayerFilter{}, repository.Page{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if active.Total != 4 || len(active.Items) != 4 || active.Items[0].Name != "P-A" {
			t.Fatalf("unexpected active list: total=%d items=%d", active.Total, len(active.Items))
		}

		all, err := repo.List(ctx, repository.PlayerFilter{IncludeInactive: true}, repository.Page{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if all.Total != 5 || len(all.Items) != 2 || all.Items[0].Name != "P-C" {
			t.Fatalf("unexpected page: total=%d items=%+v", all.Total, all.Items)
		}

		keepers, err := repo.List(ctx, repository.PlayerFilter{GoalkeepersOnly: true}, repository.Page{})
		if err != nil {
			t.Fatalf("list keepers: %v", err)
		}
		if keepers.Total != 2 {
			t.Fatalf("expected 2 active keepers, got %d", keepers.Total)
		}
	})

	t.Run("update_merge_patch", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		p, err := repo.Create(ctx, newPlayer("Old", 3, model.PositionForward))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		name := "New"
		pos := model.PositionGoalkeeper
		goals := -4
		saves := 7
		got, err := repo.Update(ctx, p.ID, model.PlayerPatch{Name: &name, Position: &pos, Goals: &goals, Saves: &saves})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Name != "New" || got.SkillLevel != 3 || !got.IsGoalkeeper() || got.Goals != 0 || got.Saves != 7 {
			t.Fatalf("patch not applied: %+v", got)
		}
		_, err = repo.Update(ctx, "missing", model.PlayerPatch{Name: &name})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("soft_delete_and_reactivate", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		p, err := repo.Create(ctx, newPlayer("Bench", 4, model.PositionDefender))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		off, err := repo.SetActive(ctx, p.ID, false)
		if err != nil || off.Active {
			t.Fatalf("deactivate: %v active=%v", err, off.Active)
		}
		if _, err := repo.GetByID(ctx, p.ID); err != nil {
			t.Fatalf("soft-deleted player must stay readable: %v", err)
		}
		on, err := repo.SetActive(ctx, p.ID, true)
		if err != nil || !on.Active {
			t.Fatalf("reactivate: %v active=%v", err, on.Active)
		}
	})

	t.Run("increment_stat_clamps", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		p, err := repo.Create(ctx, newPlayer("Striker", 8, model.PositionForward))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		for i := 0; i < 3; i++ {
			if _, err := repo.IncrementStat(ctx, p.ID, model.StatGoals, 1); err != nil {
				t.Fatalf("increment: %v", err)
			}
		}
		got, err := repo.IncrementStat(ctx, p.ID, model.StatAssists, 2)
		if err != nil {
			t.Fatalf("increment assists: %v", err)
		}
		if got.Goals != 3 || got.Assists != 2 {
			t.Fatalf("unexpected counters: %+v", got)
		}
		got, err = repo.IncrementStat(ctx, p.ID, model.StatGoals, -10)
		if err != nil {
			t.Fatalf("decrement: %v", err)
		}
		if got.Goals != 0 {
			t.Fatalf("expected clamp at 0, got %d", got.Goals)
		}
		if _, err := repo.IncrementStat(ctx, "missing", model.StatSaves, 1); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ranking_active_only", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seed := []struct {
			name  string
			pos   model.Position
			goals int
			saves int
		}{
			{"Ana", model.PositionForward, 5, 0},
			{"Bia", model.PositionGoalkeeper, 1, 9},
			{"Cris", model.PositionForward, 5, 0},
			{"Duda", model.PositionGoalkeeper, 0, 4},
			{"Edu", model.PositionForward, 12, 0},
		}
		ids := map[string]string{}
		for _, s := range seed {
			p := newPlayer(s.name, 5, s.pos)
			p.Goals, p.Saves = s.goals, s.saves
			created, err := repo.Create(ctx, p)
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
			ids[s.name] = created.ID
		}
		if _, err := repo.SetActive(ctx, ids["Edu"], false); err != nil {
			t.Fatalf("deactivate: %v", err)
		}

		scorers, err := repo.Ranking(ctx, model.StatGoals, repository.PlayerFilter{}, 3)
		if err != nil {
			t.Fatalf("ranking: %v", err)
		}
		if len(scorers) != 3 || scorers[0].Name != "Ana" || scorers[1].Name != "Cris" || scorers[2].Name != "Bia" {
			t.Fatalf("unexpected scorers: %+v", scorers)
		}

		keepers, err := repo.Ranking(ctx, model.StatSaves, repository.PlayerFilter{GoalkeepersOnly: true}, 10)
		if err != nil {
			t.Fatalf("keeper ranking: %v", err)
		}
		if len(keepers) != 2 || keepers[0].Name != "Bia" || keepers[1].Name != "Duda" {
			t.Fatalf("unexpected keepers: %+v", keepers)
		}
	})
}

func archivedMatch(endedAt time.Time, a, b []string) model.ArchivedMatch {
	return model.ArchivedMatch{
		TeamA:     model.ArchivedTeam{Name: model.TeamAName, Score: 2, PlayerIDs: a},
		TeamB:     model.ArchivedTeam{Name: model.TeamBName, Score: 1, PlayerIDs: b},
		StartedAt: endedAt.Add(-time.Hour),
		EndedAt:   endedAt,
		Votes:     map[string]int{},
		UserVotes: map[string]string{},
	}
}

func RunMatchRepositoryContract(t *testing.T, makeRepo MatchFactory) {
	t.Helper()
	base := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, archivedMatch(base, []string{"p2", "p1"}, []string{"p3"}))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.TeamA.Score != 2 || got.TeamB.Score != 1 || !got.EndedAt.Equal(base) {
			t.Fatalf("mismatch: %+v", got)
		}
		if len(got.TeamA.PlayerIDs) != 2 || got.TeamA.PlayerIDs[0] != "p2" || got.TeamB.PlayerIDs[0] != "p3" {
			t.Fatalf("roster order lost: %+v / %+v", got.TeamA, got.TeamB)
		}
		if len(got.Votes) != 0 || len(got.UserVotes) != 0 || got.Votes == nil {
			t.Fatalf("expected empty ledger, got %+v %+v", got.Votes, got.UserVotes)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list_recent_newest_first", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for i := 0; i < 12; i++ {
			if _, err := repo.Create(ctx, archivedMatch(base.Add(time.Duration(i)*time.Hour), []string{"a"}, []string{"b"})); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		res, err := repo.ListRecent(ctx, repository.Page{Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 12 || len(res.Items) != 10 {
			t.Fatalf("expected 10 of 12, got %d of %d", len(res.Items), res.Total)
		}
		if !res.Items[0].EndedAt.Equal(base.Add(11 * time.Hour)) {
			t.Fatalf("expected newest first, got %s", res.Items[0].EndedAt)
		}
		for i := 1; i < len(res.Items); i++ {
			if res.Items[i].EndedAt.After(res.Items[i-1].EndedAt) {
				t.Fatalf("not sorted at %d", i)
			}
		}
		if len(res.Items[0].TeamA.PlayerIDs) != 1 {
			t.Fatalf("rosters not loaded in list")
		}
	})

	t.Run("record_vote_once_per_user", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		m, err := repo.Create(ctx, archivedMatch(base, []string{"p1"}, []string{"p2"}))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.RecordVote(ctx, m.ID, "u1", "p1"); err != nil {
			t.Fatalf("vote: %v", err)
		}
		if err := repo.RecordVote(ctx, m.ID, "u2", "p1"); err != nil {
			t.Fatalf("vote: %v", err)
		}
		if err := repo.RecordVote(ctx, m.ID, "u1", "p2"); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		got, err := repo.GetByID(ctx, m.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Votes["p1"] != 2 || got.Votes["p2"] != 0 {
			t.Fatalf("unexpected tally: %+v", got.Votes)
		}
		if got.UserVotes["u1"] != "p1" || got.UserVotes["u2"] != "p1" || len(got.UserVotes) != 2 {
			t.Fatalf("unexpected receipts: %+v", got.UserVotes)
		}
		if err := repo.RecordVote(ctx, "missing", "u1", "p1"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("record_vote_concurrent_same_user", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		m, err := repo.Create(ctx, archivedMatch(base, []string{"p1"}, []string{"p2"}))
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		const callers = 50
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			others    []error
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				target := "p1"
				if i%2 == 1 {
					target = "p2"
				}
				err := repo.RecordVote(ctx, m.ID, "same-user", target)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case !errors.Is(err, repository.ErrAlreadyExists):
					others = append(others, err)
				}
			}(i)
		}
		wg.Wait()

		if len(others) > 0 {
			t.Fatalf("unexpected errors: %v", others)
		}
		if successes != 1 {
			t.Fatalf("expected exactly one successful vote, got %d", successes)
		}
		got, err := repo.GetByID(ctx, m.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Votes["p1"]+got.Votes["p2"] != 1 || len(got.UserVotes) != 1 {
			t.Fatalf("ledger drifted: votes=%+v receipts=%+v", got.Votes, got.UserVotes)
		}
		if got.Votes[got.UserVotes["same-user"]] != 1 {
			t.Fatalf("receipt and tally disagree: %+v %+v", got.Votes, got.UserVotes)
		}
	})
}

func RunUserRepositoryContract(t *testing.T, makeRepo UserFactory) {
	t.Helper()

	t.Run("create_get_and_flags", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.UserProfile{UID: "uid-1", Email: "a@example.com"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.IsAdmin || created.IsApproved || created.CreatedAt.IsZero() {
			t.Fatalf("unexpected defaults: %+v", created)
		}
		if _, err := repo.Create(ctx, model.UserProfile{UID: "uid-1"}); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		approved, err := repo.SetApproved(ctx, "uid-1", true)
		if err != nil || !approved.IsApproved {
			t.Fatalf("approve: %v %+v", err, approved)
		}
		admin, err := repo.SetAdmin(ctx, "uid-1", true)
		if err != nil || !admin.IsAdmin || !admin.IsApproved {
			t.Fatalf("set admin: %v %+v", err, admin)
		}
		got, err := repo.GetByID(ctx, "uid-1")
		if err != nil || got.Email != "a@example.com" || !got.IsAdmin {
			t.Fatalf("get: %v %+v", err, got)
		}
	})

	t.Run("missing_user", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.GetByID(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.SetApproved(ctx, "nobody", true); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

// RunTxManagerContract covers the commit path and error propagation. Rollback is only
// asserted by stores that provide isolation; see RunTxRollbackContract.
func RunTxManagerContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		tx, players, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID string
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := players.Create(ctx, newPlayer("TxCommit", 5, model.PositionForward))
			if err != nil {
				return err
			}
			createdID = out.ID
			_, err = players.IncrementStat(ctx, out.ID, model.StatGoals, 1)
			return err
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		got, err := players.GetByID(ctx, createdID)
		if err != nil || got.Goals != 1 {
			t.Fatalf("expected committed row visible, got %+v err=%v", got, err)
		}
	})

	t.Run("error_propagates", func(t *testing.T) {
		tx, _, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		marker := errors.New("boom")
		err := tx.WithinTx(context.Background(), func(ctx context.Context) error { return marker })
		if !errors.Is(err, marker) {
			t.Fatalf("expected marker error, got %v", err)
		}
	})
}

func RunTxRollbackContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("rollback_on_error", func(t *testing.T) {
		tx, players, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID string
		marker := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := players.Create(ctx, newPlayer("TxRollback", 5, model.PositionForward))
			if err != nil {
				return err
			}
			createdID = out.ID
			return marker
		})
		if !errors.Is(err, marker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := players.GetByID(ctx, createdID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
