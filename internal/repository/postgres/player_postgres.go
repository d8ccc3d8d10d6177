package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

const playerColumns = `id, name, skill_level, position, active, goals, assists, saves,
	weight, height, preferred_foot, created_at, updated_at`

type playerRepository struct{ pool *pgxpool.Pool }

func NewPlayerRepository(pool *pgxpool.Pool) repository.PlayerRepository {
	return &playerRepository{pool: pool}
}

func (r *playerRepository) Create(ctx context.Context, p model.Player) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO players (id, name, skill_level, position, active, goals, assists, saves, weight, height, preferred_foot)
		 VALUES ($1, $2, $3, $4, $5, GREATEST($6, 0), GREATEST($7, 0), GREATEST($8, 0), $9, $10, $11)
		 RETURNING `+playerColumns,
		p.ID, p.Name, p.SkillLevel, string(p.Position), p.Active, p.Goals, p.Assists, p.Saves,
		p.Weight, p.Height, footArg(p.PreferredFoot),
	)
	return scanPlayer(row)
}

func (r *playerRepository) GetByID(ctx context.Context, id string) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *playerRepository) List(ctx context.Context, f repository.PlayerFilter, p repository.Page) (repository.PageResult[model.Player], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.Player]{}, err
	}
	p = p.Normalize()
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT `+playerColumns+`, COUNT(*) OVER() AS total
		 FROM players
		 WHERE ($1 OR active) AND (NOT $2 OR position = 'Goalkeeper')
		 ORDER BY name, id
		 LIMIT $3 OFFSET $4`,
		f.IncludeInactive, f.GoalkeepersOnly, p.Limit, p.Offset,
	)
	if err != nil {
		return repository.PageResult[model.Player]{}, repository.MapPgError(err)
	}
	defer rows.Close()

	res := repository.PageResult[model.Player]{Items: make([]model.Player, 0, p.Limit)}
	for rows.Next() {
		var total int
		it, err := scanPlayerWith(rows, &total)
		if err != nil {
			return repository.PageResult[model.Player]{}, err
		}
		res.Items = append(res.Items, it)
		res.Total = total
	}
	if err := rows.Err(); err != nil {
		return repository.PageResult[model.Player]{}, repository.MapPgError(err)
	}
	return res, nil
}

// Update applies a merge-patch in one statement; NULL parameters keep the stored value.
func (r *playerRepository) Update(ctx context.Context, id string, patch model.PlayerPatch) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	var pos *string
	if patch.Position != nil {
		s := string(*patch.Position)
		pos = &s
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`UPDATE players SET
			name           = COALESCE($2, name),
			skill_level    = COALESCE($3, skill_level),
			position       = COALESCE($4, position),
			weight         = COALESCE($5, weight),
			height         = COALESCE($6, height),
			preferred_foot = COALESCE($7, preferred_foot),
			goals          = GREATEST(COALESCE($8, goals), 0),
			assists        = GREATEST(COALESCE($9, assists), 0),
			saves          = GREATEST(COALESCE($10, saves), 0),
			updated_at     = now()
		 WHERE id = $1
		 RETURNING `+playerColumns,
		id, patch.Name, patch.SkillLevel, pos, patch.Weight, patch.Height, footArg(patch.PreferredFoot),
		patch.Goals, patch.Assists, patch.Saves,
	)
	return scanPlayer(row)
}

func (r *playerRepository) SetActive(ctx context.Context, id string, active bool) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`UPDATE players SET active = $2, updated_at = now() WHERE id = $1 RETURNING `+playerColumns,
		id, active,
	)
	return scanPlayer(row)
}

func (r *playerRepository) IncrementStat(ctx context.Context, id string, stat model.StatKind, delta int) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	col, err := statColumn(stat)
	if err != nil {
		return model.Player{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		fmt.Sprintf(`UPDATE players SET %[1]s = GREATEST(%[1]s + $2, 0), updated_at = now()
		 WHERE id = $1 RETURNING %[2]s`, col, playerColumns),
		id, delta,
	)
	return scanPlayer(row)
}

func (r *playerRepository) Ranking(ctx context.Context, stat model.StatKind, f repository.PlayerFilter, limit int) ([]model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	col, err := statColumn(stat)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = repository.DefaultPageLimit
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM players
		 WHERE active AND (NOT $1 OR position = 'Goalkeeper')
		 ORDER BY %s DESC, name, id
		 LIMIT $2`, playerColumns, col),
		f.GoalkeepersOnly, limit,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.Player, 0, limit)
	for rows.Next() {
		p, err := scanPlayerWith(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

// statColumn whitelists the counter columns that may be interpolated into SQL.
func statColumn(stat model.StatKind) (string, error) {
	switch stat {
	case model.StatGoals:
		return "goals", nil
	case model.StatAssists:
		return "assists", nil
	case model.StatSaves:
		return "saves", nil
	}
	return "", fmt.Errorf("unknown stat %q", stat)
}

func footArg(f *model.Foot) *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}

func scanPlayer(row pgx.Row) (model.Player, error) {
	return scanPlayerWith(row)
}

func scanPlayerWith(row pgx.Row, extra ...any) (model.Player, error) {
	var (
		out  model.Player
		pos  string
		foot *string
	)
	dest := append([]any{
		&out.ID, &out.Name, &out.SkillLevel, &pos, &out.Active, &out.Goals, &out.Assists, &out.Saves,
		&out.Weight, &out.Height, &foot, &out.CreatedAt, &out.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Player{}, repository.MapPgError(err)
	}
	out.Position = model.Position(pos)
	if foot != nil {
		f := model.Foot(*foot)
		out.PreferredFoot = &f
	}
	return out, nil
}

var _ repository.PlayerRepository = (*playerRepository)(nil)
