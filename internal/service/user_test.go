package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/maxviazov/pelada-service/internal/repository/memory"
	"github.com/maxviazov/pelada-service/internal/service"
)

func TestUserService_Resolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Resolve(ctx, "uid-1", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.False(t, u.IsAdmin)
	assert.False(t, u.IsApproved)
	assert.False(t, model.CallerFor(u).IsTrusted)
	assert.Equal(t, f.clock.Now(), u.CreatedAt)
	assert.Equal(t, []string{"users/uid-1"}, f.pub.Paths())

	again, err := f.users.Resolve(ctx, "uid-1", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, again)
	assert.Len(t, f.pub.Paths(), 1, "no write on second resolve")

	root, err := f.users.Resolve(ctx, "root", "")
	require.NoError(t, err)
	assert.True(t, root.IsAdmin)
	assert.True(t, root.IsApproved)

	_, err = f.users.Resolve(ctx, " ", "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUserService_Resolve_RestoresBootstrapAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Users().Create(ctx, model.UserProfile{UID: "root"})
	require.NoError(t, err)

	u, err := f.users.Resolve(ctx, "root", "")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

// racingUsers simulates a concurrent first request winning the Create.
type racingUsers struct {
	repository.UserRepository
}

func (r racingUsers) Create(ctx context.Context, u model.UserProfile) (model.UserProfile, error) {
	if _, err := r.UserRepository.Create(ctx, u); err != nil {
		return model.UserProfile{}, err
	}
	return model.UserProfile{}, repository.ErrAlreadyExists
}

func TestUserService_Resolve_ConcurrentCreate(t *testing.T) {
	store := memory.New()
	svc := service.NewUserService(racingUsers{store.Users()}, nil, nil, zerolog.Nop())

	u, err := svc.Resolve(context.Background(), "uid-1", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", u.UID)
}

func TestUserService_ApproveAndSetAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.users.Resolve(ctx, "uid-1", "")
	require.NoError(t, err)

	_, err = f.users.Approve(ctx, member, "uid-1")
	assert.ErrorIs(t, err, service.ErrForbidden)

	u, err := f.users.Approve(ctx, admin, "uid-1")
	require.NoError(t, err)
	assert.True(t, u.IsApproved)

	u, err = f.users.SetAdmin(ctx, admin, "uid-1", true)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	_, err = f.users.SetAdmin(ctx, admin, admin.UserID, false)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.users.Approve(ctx, admin, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
