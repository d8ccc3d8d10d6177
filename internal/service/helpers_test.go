package service_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/maxviazov/pelada-service/internal/repository/memory"
	"github.com/maxviazov/pelada-service/internal/service"
)

var (
	member = model.Caller{UserID: "u-member", IsTrusted: true}
	admin  = model.Caller{UserID: "u-admin", IsAdmin: true, IsTrusted: true}
	guest  = model.Caller{UserID: "u-guest"}
)

type recorder struct {
	mu     sync.Mutex
	events []published
}

type published struct {
	Path    string
	Payload any
}

func (r *recorder) Publish(path string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Path: path, Payload: payload})
}

func (r *recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Path)
	}
	return out
}

func (r *recorder) Last(path string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Path == path {
			return r.events[i].Payload, true
		}
	}
	return nil, false
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture wires every service over one memory store, the way main does.
type fixture struct {
	store   *memory.Store
	pub     *recorder
	clock   *clock
	live    *service.Live
	players service.PlayerService
	teams   service.TeamService
	match   service.MatchService
	voting  service.VotingService
	stats   service.StatsService
	users   service.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{now: time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)}
	store := memory.New(memory.WithClock(clk.Now))
	return newFixtureWith(t, store, store.Players(), clk)
}

func newFixtureWith(t *testing.T, store *memory.Store, players repository.PlayerRepository, clk *clock) *fixture {
	t.Helper()
	log := zerolog.Nop()
	pub := &recorder{}
	live := service.NewLive(rand.New(rand.NewPCG(1, 2)))
	return &fixture{
		store:   store,
		pub:     pub,
		clock:   clk,
		live:    live,
		players: service.NewPlayerService(players, pub, log),
		teams:   service.NewTeamService(players, live, pub, log),
		match:   service.NewMatchService(players, store.Matches(), live, clk.Now, pub, log),
		voting:  service.NewVotingService(store.Matches(), players, clk.Now, pub, log),
		stats:   service.NewStatsService(players, log),
		users:   service.NewUserService(store.Users(), []string{"root"}, pub, log),
	}
}

// seed stores players with fixed ids so tests can refer to them.
func (f *fixture) seed(t *testing.T, ps ...model.Player) {
	t.Helper()
	for _, p := range ps {
		p.Active = true
		if p.Position == "" {
			p.Position = model.PositionForward
		}
		_, err := f.store.Players().Create(context.Background(), p)
		require.NoError(t, err)
	}
}

func fw(id string, skill int) model.Player {
	return model.Player{ID: id, Name: "Player " + id, SkillLevel: skill, Position: model.PositionForward}
}

func gk(id string, skill int) model.Player {
	return model.Player{ID: id, Name: "Keeper " + id, SkillLevel: skill, Position: model.PositionGoalkeeper}
}

func df(id string, skill int) model.Player {
	return model.Player{ID: id, Name: "Defender " + id, SkillLevel: skill, Position: model.PositionDefender}
}

// startMatch drafts A={a...} and B={b...} manually and starts the session.
func (f *fixture) startMatch(t *testing.T, a, b []string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.teams.SelectPlayers(ctx, member, append(append([]string{}, a...), b...))
	require.NoError(t, err)
	for _, id := range a {
		_, err := f.teams.AssignPlayer(ctx, member, id, "A")
		require.NoError(t, err)
	}
	for _, id := range b {
		_, err := f.teams.AssignPlayer(ctx, member, id, "B")
		require.NoError(t, err)
	}
	_, err = f.match.Start(ctx, member)
	require.NoError(t, err)
}

func fieldNames(err error) []string {
	var out []string
	for _, fe := range service.FieldErrors(err) {
		out = append(out, fe.Field)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
