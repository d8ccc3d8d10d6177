package service

import (
	"context"
	"strings"
	"time"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/rs/zerolog"
)

type playerService struct {
	players repository.PlayerRepository
	pub     Publisher
	log     zerolog.Logger
}

func NewPlayerService(players repository.PlayerRepository, pub Publisher, logger zerolog.Logger) PlayerService {
	l := logger.With().Str("module", "service").Str("component", "player").Logger()
	return &playerService{players: players, pub: publisherOrNop(pub), log: l}
}

func (s *playerService) CreatePlayer(ctx context.Context, caller model.Caller, in PlayerInput) (model.Player, error) {
	if err := requireTrusted(caller); err != nil {
		return model.Player{}, err
	}
	start := time.Now()
	rawName := in.Name
	name := strings.TrimSpace(in.Name)

	var ferrs []FieldError
	ferrs = validateName(name, ferrs)
	ferrs = validateSkill(in.SkillLevel, ferrs)
	pos, ferrs := resolvePosition(in.Position, in.IsGoalkeeper, ferrs)
	ferrs = validateMeasure("weight", in.Weight, maxWeightKg, ferrs)
	ferrs = validateMeasure("height", in.Height, maxHeightCm, ferrs)
	var foot *model.Foot
	if in.PreferredFoot != nil && strings.TrimSpace(*in.PreferredFoot) != "" {
		if f, ok := parseFoot(*in.PreferredFoot); ok {
			foot = &f
		} else {
			ferrs = append(ferrs, FieldError{Field: "preferred_foot", Message: "must be one of left, right, both"})
		}
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Str("name_raw", rawName).Interface("field_errors", ferrs).Msg("player validation failed")
		return model.Player{}, err
	}

	out, err := s.players.Create(ctx, model.Player{
		Name:          name,
		SkillLevel:    in.SkillLevel,
		Position:      pos,
		Active:        true,
		Weight:        in.Weight,
		Height:        in.Height,
		PreferredFoot: foot,
	})
	if err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("create player failed")
		return model.Player{}, err
	}
	s.pub.Publish("players/"+out.ID, out.View())
	s.log.Info().Dur("took", time.Since(start)).Str("player_id", out.ID).Msg("player created")
	return out, nil
}

func (s *playerService) GetPlayer(ctx context.Context, id string) (model.Player, error) {
	if strings.TrimSpace(id) == "" {
		return model.Player{}, newInvalidInput([]FieldError{{Field: "id", Message: "must not be empty"}})
	}
	return s.players.GetByID(ctx, id)
}

func (s *playerService) ListPlayers(ctx context.Context, includeInactive bool, page repository.Page) (repository.PageResult[model.Player], error) {
	p := page.Normalize()
	res, err := s.players.List(ctx, repository.PlayerFilter{IncludeInactive: includeInactive}, p)
	if err != nil {
		s.log.Error().Err(err).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list players failed")
		return repository.PageResult[model.Player]{}, err
	}
	return res, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, caller model.Caller, id string, in PlayerUpdate) (model.Player, error) {
	if err := requireAdmin(caller); err != nil {
		return model.Player{}, err
	}
	start := time.Now()

	var (
		ferrs []FieldError
		patch model.PlayerPatch
	)
	if strings.TrimSpace(id) == "" {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must not be empty"})
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		ferrs = validateName(name, ferrs)
		patch.Name = &name
	}
	if in.SkillLevel != nil {
		ferrs = validateSkill(*in.SkillLevel, ferrs)
		patch.SkillLevel = in.SkillLevel
	}
	switch {
	case in.Position != nil:
		gk := in.IsGoalkeeper != nil && *in.IsGoalkeeper
		var pos model.Position
		pos, ferrs = resolvePosition(*in.Position, gk, ferrs)
		if pos != "" && in.IsGoalkeeper != nil && !*in.IsGoalkeeper && pos == model.PositionGoalkeeper {
			ferrs = append(ferrs, FieldError{Field: "is_goalkeeper", Message: "conflicts with position"})
		}
		patch.Position = &pos
	case in.IsGoalkeeper != nil && *in.IsGoalkeeper:
		pos := model.PositionGoalkeeper
		patch.Position = &pos
	case in.IsGoalkeeper != nil:
		// unflagging a goalkeeper without naming a new position falls back to the default
		cur, err := s.players.GetByID(ctx, id)
		if err != nil {
			return model.Player{}, err
		}
		if cur.IsGoalkeeper() {
			pos := model.DefaultPosition
			patch.Position = &pos
		}
	}
	ferrs = validateMeasure("weight", in.Weight, maxWeightKg, ferrs)
	ferrs = validateMeasure("height", in.Height, maxHeightCm, ferrs)
	patch.Weight, patch.Height = in.Weight, in.Height
	if in.PreferredFoot != nil {
		if f, ok := parseFoot(*in.PreferredFoot); ok {
			patch.PreferredFoot = &f
		} else {
			ferrs = append(ferrs, FieldError{Field: "preferred_foot", Message: "must be one of left, right, both"})
		}
	}
	patch.Goals = clampCounter(in.Goals)
	patch.Assists = clampCounter(in.Assists)
	patch.Saves = clampCounter(in.Saves)

	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Str("player_id", id).Interface("field_errors", ferrs).Msg("player update validation failed")
		return model.Player{}, err
	}

	out, err := s.players.Update(ctx, id, patch)
	if err != nil {
		s.log.Error().Err(err).Str("player_id", id).Msg("update player failed")
		return model.Player{}, err
	}
	s.pub.Publish("players/"+out.ID, out.View())
	s.log.Info().Dur("took", time.Since(start)).Str("player_id", out.ID).Str("by", caller.UserID).Msg("player updated")
	return out, nil
}

func (s *playerService) DeactivatePlayer(ctx context.Context, caller model.Caller, id string) (model.Player, error) {
	return s.setActive(ctx, caller, id, false)
}

func (s *playerService) ReactivatePlayer(ctx context.Context, caller model.Caller, id string) (model.Player, error) {
	return s.setActive(ctx, caller, id, true)
}

func (s *playerService) setActive(ctx context.Context, caller model.Caller, id string, active bool) (model.Player, error) {
	if err := requireAdmin(caller); err != nil {
		return model.Player{}, err
	}
	if strings.TrimSpace(id) == "" {
		return model.Player{}, newInvalidInput([]FieldError{{Field: "id", Message: "must not be empty"}})
	}
	out, err := s.players.SetActive(ctx, id, active)
	if err != nil {
		s.log.Error().Err(err).Str("player_id", id).Bool("active", active).Msg("set player active failed")
		return model.Player{}, err
	}
	s.pub.Publish("players/"+out.ID, out.View())
	s.log.Info().Str("player_id", id).Bool("active", active).Str("by", caller.UserID).Msg("player activity changed")
	return out, nil
}
