package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store errors shared by the memory and postgres implementations.
var (
	// ErrNotFound: no player, archived match or user profile with that id.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: a duplicate id, or a second vote receipt for the same user and match.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict: a row rejected by a foreign key or check constraint.
	ErrConflict = errors.New("conflict")
)

// MapPgError folds pgx and Postgres errors into the store sentinels above.
// Unique keys (player/match/user ids, the vote receipt key) map to ErrAlreadyExists; foreign key
// and check constraints (vote rows, skill range, non-negative counters) map to ErrConflict. Anything else
// comes back unchanged.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrAlreadyExists
		case pgerrcode.ForeignKeyViolation, pgerrcode.CheckViolation:
			return ErrConflict
		}
	}
	return err
}
