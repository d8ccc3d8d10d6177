package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

type playerStore struct{ *Store }

func (s *playerStore) Create(_ context.Context, p model.Player) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := s.players[p.ID]; ok {
		return model.Player{}, repository.ErrAlreadyExists
	}
	now := s.now()
	p.Goals, p.Assists, p.Saves = clamp(p.Goals), clamp(p.Assists), clamp(p.Saves)
	p.CreatedAt, p.UpdatedAt = now, now
	s.players[p.ID] = p
	return clonePlayer(p), nil
}

func (s *playerStore) GetByID(_ context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	return clonePlayer(p), nil
}

func (s *playerStore) List(_ context.Context, f repository.PlayerFilter, p repository.Page) (repository.PageResult[model.Player], error) {
	s.mu.RLock()
	all := s.filter(f)
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return repository.PageResult[model.Player]{Items: repository.Window(all, p), Total: len(all)}, nil
}

func (s *playerStore) Update(_ context.Context, id string, patch model.PlayerPatch) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SkillLevel != nil {
		p.SkillLevel = *patch.SkillLevel
	}
	if patch.Position != nil {
		p.Position = *patch.Position
	}
	if patch.Weight != nil {
		w := *patch.Weight
		p.Weight = &w
	}
	if patch.Height != nil {
		h := *patch.Height
		p.Height = &h
	}
	if patch.PreferredFoot != nil {
		f := *patch.PreferredFoot
		p.PreferredFoot = &f
	}
	if patch.Goals != nil {
		p.Goals = clamp(*patch.Goals)
	}
	if patch.Assists != nil {
		p.Assists = clamp(*patch.Assists)
	}
	if patch.Saves != nil {
		p.Saves = clamp(*patch.Saves)
	}
	p.UpdatedAt = s.now()
	s.players[id] = p
	return clonePlayer(p), nil
}

func (s *playerStore) SetActive(_ context.Context, id string, active bool) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = s.now()
	s.players[id] = p
	return clonePlayer(p), nil
}

func (s *playerStore) IncrementStat(_ context.Context, id string, stat model.StatKind, delta int) (model.Player, error) {
	if !stat.Valid() {
		return model.Player{}, fmt.Errorf("unknown stat %q", stat)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	switch stat {
	case model.StatGoals:
		p.Goals = clamp(p.Goals + delta)
	case model.StatAssists:
		p.Assists = clamp(p.Assists + delta)
	case model.StatSaves:
		p.Saves = clamp(p.Saves + delta)
	}
	p.UpdatedAt = s.now()
	s.players[id] = p
	return clonePlayer(p), nil
}

func (s *playerStore) Ranking(_ context.Context, stat model.StatKind, f repository.PlayerFilter, limit int) ([]model.Player, error) {
	if !stat.Valid() {
		return nil, fmt.Errorf("unknown stat %q", stat)
	}
	f.IncludeInactive = false
	s.mu.RLock()
	all := s.filter(f)
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i].Stat(stat), all[j].Stat(stat)
		if a != b {
			return a > b
		}
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	if limit <= 0 {
		limit = repository.DefaultPageLimit
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// filter must be called with s.mu held.
func (s *playerStore) filter(f repository.PlayerFilter) []model.Player {
	out := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		if !f.IncludeInactive && !p.Active {
			continue
		}
		if f.GoalkeepersOnly && !p.IsGoalkeeper() {
			continue
		}
		out = append(out, clonePlayer(p))
	}
	return out
}

// clonePlayer detaches the optional pointer fields from the stored value.
func clonePlayer(p model.Player) model.Player {
	if p.Weight != nil {
		w := *p.Weight
		p.Weight = &w
	}
	if p.Height != nil {
		h := *p.Height
		p.Height = &h
	}
	if p.PreferredFoot != nil {
		f := *p.PreferredFoot
		p.PreferredFoot = &f
	}
	return p
}

var _ repository.PlayerRepository = (*playerStore)(nil)
