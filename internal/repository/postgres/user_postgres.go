package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

const userColumns = `uid, email, is_admin, is_approved, created_at`

type userRepository struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (model.UserProfile, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.UserProfile{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
	return scanUser(row)
}

func (r *userRepository) Create(ctx context.Context, u model.UserProfile) (model.UserProfile, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.UserProfile{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (uid, email, is_admin, is_approved) VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		u.UID, u.Email, u.IsAdmin, u.IsApproved,
	)
	return scanUser(row)
}

func (r *userRepository) SetApproved(ctx context.Context, uid string, approved bool) (model.UserProfile, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.UserProfile{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE users SET is_approved = $2 WHERE uid = $1 RETURNING `+userColumns, uid, approved)
	return scanUser(row)
}

func (r *userRepository) SetAdmin(ctx context.Context, uid string, admin bool) (model.UserProfile, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.UserProfile{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE users SET is_admin = $2 WHERE uid = $1 RETURNING `+userColumns, uid, admin)
	return scanUser(row)
}

func scanUser(row pgx.Row) (model.UserProfile, error) {
	var u model.UserProfile
	if err := row.Scan(&u.UID, &u.Email, &u.IsAdmin, &u.IsApproved, &u.CreatedAt); err != nil {
		return model.UserProfile{}, repository.MapPgError(err)
	}
	return u, nil
}

var _ repository.UserRepository = (*userRepository)(nil)
