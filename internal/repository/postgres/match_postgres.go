package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

type matchRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewMatchRepository(pool *pgxpool.Pool) repository.MatchRepository {
	return &matchRepository{pool: pool, tx: NewTxManager(pool)}
}

func (r *matchRepository) Create(ctx context.Context, m model.ArchivedMatch) (model.ArchivedMatch, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.ArchivedMatch{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		exec := getQ(ctx, r.pool)
		if _, err := exec.Exec(ctx,
			`INSERT INTO matches (id, team_a_name, team_a_score, team_b_name, team_b_score, started_at, ended_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, m.TeamA.Name, m.TeamA.Score, m.TeamB.Name, m.TeamB.Score, m.StartedAt, m.EndedAt,
		); err != nil {
			return err
		}
		for side, team := range map[model.Side]model.ArchivedTeam{model.SideA: m.TeamA, model.SideB: m.TeamB} {
			for i, pid := range team.PlayerIDs {
				if _, err := exec.Exec(ctx,
					`INSERT INTO match_players (match_id, side, player_id, roster_order) VALUES ($1, $2, $3, $4)`,
					m.ID, string(side), pid, i,
				); err != nil {
					return err
				}
			}
		}
		for pid, n := range m.Votes {
			if _, err := exec.Exec(ctx,
				`INSERT INTO match_votes (match_id, player_id, count) VALUES ($1, $2, $3)`, m.ID, pid, n,
			); err != nil {
				return err
			}
		}
		for uid, pid := range m.UserVotes {
			if _, err := exec.Exec(ctx,
				`INSERT INTO match_user_votes (match_id, user_id, player_id) VALUES ($1, $2, $3)`, m.ID, uid, pid,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.ArchivedMatch{}, repository.MapPgError(err)
	}
	return r.GetByID(ctx, m.ID)
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (model.ArchivedMatch, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.ArchivedMatch{}, err
	}
	exec := getQ(ctx, r.pool)
	var m model.ArchivedMatch
	err := exec.QueryRow(ctx,
		`SELECT id, team_a_name, team_a_score, team_b_name, team_b_score, started_at, ended_at
		 FROM matches WHERE id = $1`, id,
	).Scan(&m.ID, &m.TeamA.Name, &m.TeamA.Score, &m.TeamB.Name, &m.TeamB.Score, &m.StartedAt, &m.EndedAt)
	if err != nil {
		return model.ArchivedMatch{}, repository.MapPgError(err)
	}
	list := []*model.ArchivedMatch{&m}
	if err := r.hydrate(ctx, exec, list); err != nil {
		return model.ArchivedMatch{}, err
	}
	return m, nil
}

func (r *matchRepository) ListRecent(ctx context.Context, p repository.Page) (repository.PageResult[model.ArchivedMatch], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.ArchivedMatch]{}, err
	}
	p = p.Normalize()
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT id, team_a_name, team_a_score, team_b_name, team_b_score, started_at, ended_at, COUNT(*) OVER() AS total
		 FROM matches
		 ORDER BY ended_at DESC, id
		 LIMIT $1 OFFSET $2`,
		p.Limit, p.Offset,
	)
	if err != nil {
		return repository.PageResult[model.ArchivedMatch]{}, repository.MapPgError(err)
	}
	res := repository.PageResult[model.ArchivedMatch]{Items: make([]model.ArchivedMatch, 0, p.Limit)}
	for rows.Next() {
		var m model.ArchivedMatch
		if err := rows.Scan(&m.ID, &m.TeamA.Name, &m.TeamA.Score, &m.TeamB.Name, &m.TeamB.Score,
			&m.StartedAt, &m.EndedAt, &res.Total); err != nil {
			rows.Close()
			return repository.PageResult[model.ArchivedMatch]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return repository.PageResult[model.ArchivedMatch]{}, repository.MapPgError(err)
	}

	list := make([]*model.ArchivedMatch, len(res.Items))
	for i := range res.Items {
		list[i] = &res.Items[i]
	}
	if err := r.hydrate(ctx, exec, list); err != nil {
		return repository.PageResult[model.ArchivedMatch]{}, err
	}
	return res, nil
}

// RecordVote inserts the per-user receipt first; the tally only moves when that insert won.
// Concurrent voters for the same (match, user) serialize on the receipt's primary key.
func (r *matchRepository) RecordVote(ctx context.Context, matchID, userID, playerID string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		exec := getQ(ctx, r.pool)
		var exists bool
		if err := exec.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, matchID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		tag, err := exec.Exec(ctx,
			`INSERT INTO match_user_votes (match_id, user_id, player_id) VALUES ($1, $2, $3)
			 ON CONFLICT (match_id, user_id) DO NOTHING`,
			matchID, userID, playerID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrAlreadyExists
		}
		_, err = exec.Exec(ctx,
			`INSERT INTO match_votes (match_id, player_id, count) VALUES ($1, $2, 1)
			 ON CONFLICT (match_id, player_id) DO UPDATE SET count = match_votes.count + 1`,
			matchID, playerID,
		)
		return err
	})
}

// hydrate loads rosters and the vote ledger for all matches in three queries.
func (r *matchRepository) hydrate(ctx context.Context, exec q, list []*model.ArchivedMatch) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*model.ArchivedMatch, len(list))
	ids := make([]string, 0, len(list))
	for _, m := range list {
		m.TeamA.PlayerIDs = []string{}
		m.TeamB.PlayerIDs = []string{}
		m.Votes = map[string]int{}
		m.UserVotes = map[string]string{}
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	rows, err := exec.Query(ctx,
		`SELECT match_id, side, player_id FROM match_players
		 WHERE match_id = ANY($1) ORDER BY match_id, side, roster_order`, ids)
	if err != nil {
		return repository.MapPgError(err)
	}
	for rows.Next() {
		var mid, side, pid string
		if err := rows.Scan(&mid, &side, &pid); err != nil {
			rows.Close()
			return repository.MapPgError(err)
		}
		m := byID[mid]
		if model.Side(side) == model.SideA {
			m.TeamA.PlayerIDs = append(m.TeamA.PlayerIDs, pid)
		} else {
			m.TeamB.PlayerIDs = append(m.TeamB.PlayerIDs, pid)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return repository.MapPgError(err)
	}

	rows, err = exec.Query(ctx, `SELECT match_id, player_id, count FROM match_votes WHERE match_id = ANY($1)`, ids)
	if err != nil {
		return repository.MapPgError(err)
	}
	for rows.Next() {
		var mid, pid string
		var n int
		if err := rows.Scan(&mid, &pid, &n); err != nil {
			rows.Close()
			return repository.MapPgError(err)
		}
		byID[mid].Votes[pid] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return repository.MapPgError(err)
	}

	rows, err = exec.Query(ctx, `SELECT match_id, user_id, player_id FROM match_user_votes WHERE match_id = ANY($1)`, ids)
	if err != nil {
		return repository.MapPgError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var mid, uid, pid string
		if err := rows.Scan(&mid, &uid, &pid); err != nil {
			return repository.MapPgError(err)
		}
		byID[mid].UserVotes[uid] = pid
	}
	return repository.MapPgError(rows.Err())
}

var _ repository.MatchRepository = (*matchRepository)(nil)
