package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

type matchStore struct{ *Store }

func (s *matchStore) Create(_ context.Context, m model.ArchivedMatch) (model.ArchivedMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, ok := s.matches[m.ID]; ok {
		return model.ArchivedMatch{}, repository.ErrAlreadyExists
	}
	m = cloneMatch(m)
	s.matches[m.ID] = m
	return cloneMatch(m), nil
}

func (s *matchStore) GetByID(_ context.Context, id string) (model.ArchivedMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return model.ArchivedMatch{}, repository.ErrNotFound
	}
	return cloneMatch(m), nil
}

func (s *matchStore) ListRecent(_ context.Context, p repository.Page) (repository.PageResult[model.ArchivedMatch], error) {
	s.mu.RLock()
	all := make([]model.ArchivedMatch, 0, len(s.matches))
	for _, m := range s.matches {
		all = append(all, cloneMatch(m))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].EndedAt.Equal(all[j].EndedAt) {
			return all[i].EndedAt.After(all[j].EndedAt)
		}
		return all[i].ID < all[j].ID
	})
	return repository.PageResult[model.ArchivedMatch]{Items: repository.Window(all, p), Total: len(all)}, nil
}

// RecordVote checks the receipt and writes both vote fields inside one critical section.
func (s *matchStore) RecordVote(_ context.Context, matchID, userID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, voted := m.UserVotes[userID]; voted {
		return repository.ErrAlreadyExists
	}
	m.UserVotes[userID] = playerID
	m.Votes[playerID]++
	s.matches[matchID] = m
	return nil
}

func cloneMatch(m model.ArchivedMatch) model.ArchivedMatch {
	m.TeamA.PlayerIDs = append([]string{}, m.TeamA.PlayerIDs...)
	m.TeamB.PlayerIDs = append([]string{}, m.TeamB.PlayerIDs...)
	votes := make(map[string]int, len(m.Votes))
	for k, v := range m.Votes {
		votes[k] = v
	}
	users := make(map[string]string, len(m.UserVotes))
	for k, v := range m.UserVotes {
		users[k] = v
	}
	m.Votes, m.UserVotes = votes, users
	return m
}

var _ repository.MatchRepository = (*matchStore)(nil)
