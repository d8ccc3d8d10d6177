package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/maxviazov/pelada-service/internal/service"
)

// archive plays a short match and returns the stored id.
func (f *fixture) archive(t *testing.T) string {
	t.Helper()
	f.seed(t, fw("a1", 5), fw("a2", 5), fw("b1", 5))
	f.startMatch(t, []string{"a1", "a2"}, []string{"b1"})
	res, err := f.match.End(context.Background(), member, true)
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	return res.Match.ID
}

func TestVotingOpen(t *testing.T) {
	ended := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	assert.True(t, service.VotingOpen(ended, ended))
	assert.True(t, service.VotingOpen(ended, ended.Add(service.VotingWindow-time.Second)))
	assert.False(t, service.VotingOpen(ended, ended.Add(service.VotingWindow)))
}

func TestVotingService_Vote(t *testing.T) {
	f := newFixture(t)
	id := f.archive(t)
	ctx := context.Background()

	view, err := f.voting.Vote(ctx, member, id, "a2")
	require.NoError(t, err)
	assert.True(t, view.HasVoted)
	assert.Equal(t, "a2", view.MyVote)
	assert.Equal(t, 1, view.Votes["a2"])
	assert.Equal(t, "a2", view.Ranking[0].PlayerID)
	assert.Equal(t, "Player a2", view.Ranking[0].Name)

	count, ok := f.pub.Last("matches/" + id + "/votes/a2")
	require.True(t, ok)
	assert.Equal(t, 1, count)
	receipt, ok := f.pub.Last("matches/" + id + "/userVotes/" + member.UserID)
	require.True(t, ok)
	assert.Equal(t, "a2", receipt)

	_, err = f.voting.Vote(ctx, member, id, "b1")
	assert.ErrorIs(t, err, service.ErrAlreadyVoted)

	voted, err := f.voting.HasVoted(ctx, id, member.UserID)
	require.NoError(t, err)
	assert.True(t, voted)
	voted, err = f.voting.HasVoted(ctx, id, admin.UserID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestVotingService_Vote_Rejections(t *testing.T) {
	f := newFixture(t)
	id := f.archive(t)
	ctx := context.Background()

	_, err := f.voting.Vote(ctx, member, id, "ghost")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = f.voting.Vote(ctx, member, "nope", "a1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.voting.Vote(ctx, guest, id, "a1")
	assert.ErrorIs(t, err, service.ErrPendingApproval)

	f.clock.Advance(service.VotingWindow)
	_, err = f.voting.Vote(ctx, member, id, "a1")
	assert.ErrorIs(t, err, service.ErrVotingClosed)

	view, err := f.voting.GetMatch(ctx, member, id)
	require.NoError(t, err)
	assert.False(t, view.VotingOpen)
	assert.Empty(t, view.Votes)
}

func TestVotingService_Vote_AlreadyVotedBeforeClosed(t *testing.T) {
	f := newFixture(t)
	id := f.archive(t)
	ctx := context.Background()

	_, err := f.voting.Vote(ctx, member, id, "a1")
	require.NoError(t, err)
	f.clock.Advance(3 * time.Hour)
	_, err = f.voting.Vote(ctx, member, id, "a1")
	assert.ErrorIs(t, err, service.ErrAlreadyVoted)
}

func TestVotingService_ConcurrentVotesSameUser(t *testing.T) {
	f := newFixture(t)
	id := f.archive(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		ok, dup atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.voting.Vote(ctx, member, id, "b1")
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, service.ErrAlreadyVoted):
				dup.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 19, dup.Load())

	view, err := f.voting.GetMatch(ctx, member, id)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Votes["b1"])
}

func TestVoteRanking_TieBreak(t *testing.T) {
	m := model.ArchivedMatch{
		TeamA: model.ArchivedTeam{PlayerIDs: []string{"z", "b"}},
		TeamB: model.ArchivedTeam{PlayerIDs: []string{"a", "c"}},
		Votes: map[string]int{"z": 2, "b": 1, "a": 1},
	}
	got := service.VoteRanking(m, nil)
	var order []string
	for _, r := range got {
		order = append(order, r.PlayerID)
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, order)
	assert.Equal(t, model.SideB, got[1].Side)
	assert.Equal(t, 0, got[3].Votes)
}

func TestVotingService_ListRecent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := f.store.Matches().Create(ctx, model.ArchivedMatch{
			StartedAt: f.clock.Now(),
			EndedAt:   f.clock.Now(),
			Votes:     map[string]int{},
			UserVotes: map[string]string{},
		})
		require.NoError(t, err)
		f.clock.Advance(time.Hour)
	}

	res, err := f.voting.ListRecent(ctx, member, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, 12, res.Total)
	require.Len(t, res.Items, service.DefaultRecentMatches)
	assert.True(t, res.Items[0].EndedAt.After(res.Items[1].EndedAt))
	assert.True(t, res.Items[0].VotingOpen, "ended one hour ago")
	assert.False(t, res.Items[9].VotingOpen)
}
