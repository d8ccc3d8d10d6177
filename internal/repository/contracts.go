package repository

import (
	"context"

	"github.com/maxviazov/pelada-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// Nested WithinTx calls join the outer transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// PlayerFilter narrows List and Ranking queries.
type PlayerFilter struct {
	IncludeInactive bool
	GoalkeepersOnly bool
}

// PlayerRepository declares persistence operations for the player registry.
// Counters are clamped at zero by every write path; ids are assigned on Create when empty.
type PlayerRepository interface {
	Create(ctx context.Context, p model.Player) (model.Player, error)
	GetByID(ctx context.Context, id string) (model.Player, error)
	// List orders by name, then id.
	List(ctx context.Context, f PlayerFilter, p Page) (PageResult[model.Player], error)
	Update(ctx context.Context, id string, patch model.PlayerPatch) (model.Player, error)
	SetActive(ctx context.Context, id string, active bool) (model.Player, error)
	// IncrementStat adds delta (possibly negative) to one counter.
	IncrementStat(ctx context.Context, id string, stat model.StatKind, delta int) (model.Player, error)
	// Ranking returns active players ordered by stat desc, then name, then id.
	Ranking(ctx context.Context, stat model.StatKind, f PlayerFilter, limit int) ([]model.Player, error)
}

// MatchRepository declares persistence operations for archived matches and their vote ledger.
type MatchRepository interface {
	Create(ctx context.Context, m model.ArchivedMatch) (model.ArchivedMatch, error)
	GetByID(ctx context.Context, id string) (model.ArchivedMatch, error)
	// ListRecent orders by ended_at desc.
	ListRecent(ctx context.Context, p Page) (PageResult[model.ArchivedMatch], error)
	// RecordVote stores the receipt and bumps the tally as one unit.
	// It returns ErrAlreadyExists when userID already voted in matchID and ErrNotFound for an unknown match.
	RecordVote(ctx context.Context, matchID, userID, playerID string) error
}

// UserRepository declares persistence operations for user profiles.
type UserRepository interface {
	GetByID(ctx context.Context, uid string) (model.UserProfile, error)
	// Create returns ErrAlreadyExists when the uid is taken.
	Create(ctx context.Context, u model.UserProfile) (model.UserProfile, error)
	SetApproved(ctx context.Context, uid string, approved bool) (model.UserProfile, error)
	SetAdmin(ctx context.Context, uid string, admin bool) (model.UserProfile, error)
}
