package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/pelada-service/internal/model"
)

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	w := 80.0
	p, err := s.Players().Create(ctx, model.Player{Name: "Copy", SkillLevel: 5, Position: model.PositionForward, Active: true, Weight: &w})
	require.NoError(t, err)

	*p.Weight = 1
	got, err := s.Players().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, *got.Weight)

	m, err := s.Matches().Create(ctx, model.ArchivedMatch{
		TeamA:     model.ArchivedTeam{PlayerIDs: []string{"a"}},
		TeamB:     model.ArchivedTeam{PlayerIDs: []string{"b"}},
		Votes:     map[string]int{},
		UserVotes: map[string]string{},
	})
	require.NoError(t, err)
	m.Votes["a"] = 99
	m.TeamA.PlayerIDs[0] = "zz"
	again, err := s.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Votes["a"])
	assert.Equal(t, "a", again.TeamA.PlayerIDs[0])
}

func TestStore_ClockAndPing(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithClock(func() time.Time { return fixed }))
	u, err := s.Users().Create(context.Background(), model.UserProfile{UID: "x"})
	require.NoError(t, err)
	assert.Equal(t, fixed, u.CreatedAt)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Ping(ctx))
	assert.NoError(t, s.Ping(context.Background()))
}
