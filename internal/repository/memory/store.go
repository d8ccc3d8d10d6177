// Package memory is a mutex-guarded in-process implementation of the repository interfaces.
// It backs local development and tests; every value handed out is a copy.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

type Store struct {
	mu      sync.RWMutex
	now     func() time.Time
	players map[string]model.Player
	matches map[string]model.ArchivedMatch
	users   map[string]model.UserProfile
}

type Option func(*Store)

// WithClock overrides time.Now for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:     func() time.Time { return time.Now().UTC() },
		players: make(map[string]model.Player),
		matches: make(map[string]model.ArchivedMatch),
		users:   make(map[string]model.UserProfile),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Players() repository.PlayerRepository { return &playerStore{s} }
func (s *Store) Matches() repository.MatchRepository  { return &matchStore{s} }
func (s *Store) Users() repository.UserRepository     { return &userStore{s} }

// Ping always succeeds; it honors context cancellation only.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// WithinTx runs fn directly. Each repository call is atomic on its own, and the memory
// store offers no multi-call isolation.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error { return fn(ctx) }

var (
	_ repository.Pinger    = (*Store)(nil)
	_ repository.TxManager = (*Store)(nil)
)

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
