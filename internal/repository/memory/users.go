package memory

import (
	"context"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

type userStore struct{ *Store }

func (s *userStore) GetByID(_ context.Context, uid string) (model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[uid]
	if !ok {
		return model.UserProfile{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *userStore) Create(_ context.Context, u model.UserProfile) (model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.UID]; ok {
		return model.UserProfile{}, repository.ErrAlreadyExists
	}
	u.CreatedAt = s.now()
	s.users[u.UID] = u
	return u, nil
}

func (s *userStore) SetApproved(_ context.Context, uid string, approved bool) (model.UserProfile, error) {
	return s.update(uid, func(u *model.UserProfile) { u.IsApproved = approved })
}

func (s *userStore) SetAdmin(_ context.Context, uid string, admin bool) (model.UserProfile, error) {
	return s.update(uid, func(u *model.UserProfile) { u.IsAdmin = admin })
}

func (s *userStore) update(uid string, fn func(*model.UserProfile)) (model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[uid]
	if !ok {
		return model.UserProfile{}, repository.ErrNotFound
	}
	fn(&u)
	s.users[uid] = u
	return u, nil
}

var _ repository.UserRepository = (*userStore)(nil)
