package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/rs/zerolog"
)

type userService struct {
	users  repository.UserRepository
	admins map[string]struct{}
	pub    Publisher
	log    zerolog.Logger
}

// NewUserService builds the user directory. adminUIDs are bootstrap administrators: they are
// created admin and approved, and promoted again if someone demoted them.
func NewUserService(users repository.UserRepository, adminUIDs []string, pub Publisher, logger zerolog.Logger) UserService {
	l := logger.With().Str("module", "service").Str("component", "user").Logger()
	admins := make(map[string]struct{}, len(adminUIDs))
	for _, uid := range adminUIDs {
		if uid = strings.TrimSpace(uid); uid != "" {
			admins[uid] = struct{}{}
		}
	}
	return &userService{users: users, admins: admins, pub: publisherOrNop(pub), log: l}
}

// Resolve returns the profile for a verified identity, creating it on first sight.
func (s *userService) Resolve(ctx context.Context, uid, email string) (model.UserProfile, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return model.UserProfile{}, newInvalidInput([]FieldError{{Field: "uid", Message: "must not be empty"}})
	}
	_, bootstrap := s.admins[uid]

	u, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		start := time.Now()
		u, err = s.users.Create(ctx, model.UserProfile{UID: uid, Email: email, IsAdmin: bootstrap, IsApproved: bootstrap})
		if errors.Is(err, repository.ErrAlreadyExists) {
			// a concurrent first request created it
			u, err = s.users.GetByID(ctx, uid)
		} else if err == nil {
			s.pub.Publish("users/"+uid, u)
			s.log.Info().Dur("took", time.Since(start)).Str("uid", uid).Bool("admin", u.IsAdmin).Msg("user registered")
		}
	}
	if err != nil {
		s.log.Error().Err(err).Str("uid", uid).Msg("resolve user failed")
		return model.UserProfile{}, err
	}

	if bootstrap && !u.IsAdmin {
		if u, err = s.users.SetAdmin(ctx, uid, true); err != nil {
			s.log.Error().Err(err).Str("uid", uid).Msg("restore bootstrap admin failed")
			return model.UserProfile{}, err
		}
		s.pub.Publish("users/"+uid, u)
	}
	return u, nil
}

func (s *userService) Approve(ctx context.Context, caller model.Caller, uid string) (model.UserProfile, error) {
	if err := requireAdmin(caller); err != nil {
		return model.UserProfile{}, err
	}
	if strings.TrimSpace(uid) == "" {
		return model.UserProfile{}, newInvalidInput([]FieldError{{Field: "uid", Message: "must not be empty"}})
	}
	u, err := s.users.SetApproved(ctx, uid, true)
	if err != nil {
		s.log.Error().Err(err).Str("uid", uid).Msg("approve user failed")
		return model.UserProfile{}, err
	}
	s.pub.Publish("users/"+uid, u)
	s.log.Info().Str("uid", uid).Str("by", caller.UserID).Msg("user approved")
	return u, nil
}

func (s *userService) SetAdmin(ctx context.Context, caller model.Caller, uid string, admin bool) (model.UserProfile, error) {
	if err := requireAdmin(caller); err != nil {
		return model.UserProfile{}, err
	}
	var ferrs []FieldError
	if strings.TrimSpace(uid) == "" {
		ferrs = append(ferrs, FieldError{Field: "uid", Message: "must not be empty"})
	}
	if uid == caller.UserID && !admin {
		ferrs = append(ferrs, FieldError{Field: "uid", Message: "cannot revoke your own admin role"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.UserProfile{}, err
	}
	u, err := s.users.SetAdmin(ctx, uid, admin)
	if err != nil {
		s.log.Error().Err(err).Str("uid", uid).Bool("admin", admin).Msg("set admin failed")
		return model.UserProfile{}, err
	}
	s.pub.Publish("users/"+uid, u)
	s.log.Info().Str("uid", uid).Bool("admin", admin).Str("by", caller.UserID).Msg("admin role changed")
	return u, nil
}
