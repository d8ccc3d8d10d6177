package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maxviazov/pelada-service/internal/balancer"
	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/rs/zerolog"
)

// teamService holds the draft use cases: selection, manual moves and balancer runs.
type teamService struct {
	players repository.PlayerRepository
	live    *Live
	pub     Publisher
	log     zerolog.Logger
}

func NewTeamService(players repository.PlayerRepository, live *Live, pub Publisher, logger zerolog.Logger) TeamService {
	l := logger.With().Str("module", "service").Str("component", "team").Logger()
	return &teamService{players: players, live: live, pub: publisherOrNop(pub), log: l}
}

func (s *teamService) GetDraft(_ context.Context) DraftView {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	return viewDraft(s.live.draft)
}

// SelectPlayers replaces the selection. Every id must name an active player.
func (s *teamService) SelectPlayers(ctx context.Context, caller model.Caller, ids []string) (DraftView, error) {
	if err := requireTrusted(caller); err != nil {
		return DraftView{}, err
	}
	start := time.Now()

	var (
		ferrs    []FieldError
		selected = make([]model.Player, 0, len(ids))
		seen     = make(map[string]struct{}, len(ids))
	)
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			ferrs = append(ferrs, FieldError{Field: "player_ids", Message: "must not contain empty ids"})
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p, err := s.players.GetByID(ctx, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			ferrs = append(ferrs, FieldError{Field: "player_ids", Message: "unknown player " + id})
			continue
		case err != nil:
			s.log.Error().Err(err).Str("player_id", id).Msg("load player for selection failed")
			return DraftView{}, err
		case !p.Active:
			ferrs = append(ferrs, FieldError{Field: "player_ids", Message: "player " + id + " is inactive"})
			continue
		}
		selected = append(selected, p)
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("selection validation failed")
		return DraftView{}, err
	}

	s.live.mu.Lock()
	if s.live.session.Live() {
		s.live.mu.Unlock()
		return DraftView{}, ErrMatchAlreadyLive
	}
	s.live.draft.Select(selected)
	view := viewDraft(s.live.draft)
	s.live.mu.Unlock()

	s.pub.Publish("draft", view)
	s.log.Info().Dur("took", time.Since(start)).Int("selected", len(selected)).Msg("selection updated")
	return view, nil
}

// AssignPlayer moves a selected player into a team. The player must still be active.
func (s *teamService) AssignPlayer(ctx context.Context, caller model.Caller, id string, side string) (DraftView, error) {
	if err := requireTrusted(caller); err != nil {
		return DraftView{}, err
	}
	sd, ok := model.ParseSide(side)
	if !ok {
		return DraftView{}, newInvalidInput([]FieldError{{Field: "team", Message: "must be A or B"}})
	}
	fresh, ferrs, err := reloadActive(ctx, s.players, []string{id}, "player_id")
	if err != nil {
		s.log.Error().Err(err).Str("player_id", id).Msg("load player for assignment failed")
		return DraftView{}, err
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("assignment rejected")
		return DraftView{}, err
	}
	return s.edit(id, func(d *balancer.Draft) error {
		d.Refresh(fresh)
		return d.Assign(id, sd)
	})
}

func (s *teamService) UnassignPlayer(_ context.Context, caller model.Caller, id string) (DraftView, error) {
	if err := requireTrusted(caller); err != nil {
		return DraftView{}, err
	}
	return s.edit(id, func(d *balancer.Draft) error { return d.Unassign(id) })
}

func (s *teamService) edit(id string, fn func(*balancer.Draft) error) (DraftView, error) {
	s.live.mu.Lock()
	if s.live.session.Live() {
		s.live.mu.Unlock()
		return DraftView{}, ErrMatchAlreadyLive
	}
	err := fn(s.live.draft)
	view := viewDraft(s.live.draft)
	s.live.mu.Unlock()

	if err != nil {
		// every draft error is a bad request about the player id
		s.log.Debug().Err(err).Str("player_id", id).Msg("draft edit rejected")
		return DraftView{}, newInvalidInput([]FieldError{{Field: "player_id", Message: err.Error()}})
	}
	s.pub.Publish("draft", view)
	return view, nil
}

// Balance runs the balancer over the current selection, reloaded from the registry so skill and
// position edits made after selection count. Players deactivated or deleted since selection are
// rejected. In balance mode a NoGoalkeeper warning leaves the draft untouched unless acceptWarning
// is set; the proposal is returned either way.
func (s *teamService) Balance(ctx context.Context, caller model.Caller, mode string, acceptWarning bool) (BalanceResult, error) {
	if err := requireTrusted(caller); err != nil {
		return BalanceResult{}, err
	}
	m, ok := balancer.ParseMode(strings.ToLower(strings.TrimSpace(mode)))
	if !ok {
		return BalanceResult{}, newInvalidInput([]FieldError{{Field: "mode", Message: "must be balance or shuffle"}})
	}
	start := time.Now()

	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	if s.live.session.Live() {
		return BalanceResult{}, ErrMatchAlreadyLive
	}

	selected, ferrs, err := reloadActive(ctx, s.players, playerIDs(s.live.draft.Selected()), "player_ids")
	if err != nil {
		s.log.Error().Err(err).Msg("reload selection before balance failed")
		return BalanceResult{}, err
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("balance rejected")
		return BalanceResult{}, err
	}
	s.live.draft.Refresh(selected)

	var res balancer.Result
	if m == balancer.ModeShuffle {
		res, err = balancer.Shuffle(selected, s.live.rng)
	} else {
		res, err = balancer.Balance(selected)
	}
	switch {
	case errors.Is(err, balancer.ErrNotEnoughPlayers), errors.Is(err, balancer.ErrDuplicatePlayer):
		s.log.Debug().Err(err).Int("selected", len(selected)).Msg("balance rejected")
		return BalanceResult{}, newInvalidInput([]FieldError{{Field: "player_ids", Message: err.Error()}})
	case err != nil:
		s.log.Debug().Err(err).Int("selected", len(selected)).Msg("balance rejected")
		return BalanceResult{}, err
	}

	out := BalanceResult{Mode: m, TeamA: views(res.TeamA), TeamB: views(res.TeamB)}
	out.SkillSum.TeamA = balancer.SkillSum(res.TeamA)
	out.SkillSum.TeamB = balancer.SkillSum(res.TeamB)
	if res.Warning != nil {
		out.Warning = res.Warning.Error()
	}
	if res.Warning == nil || acceptWarning {
		s.live.draft.Apply(res)
		out.Applied = true
	}
	out.Draft = viewDraft(s.live.draft)

	if out.Applied {
		s.pub.Publish("draft", out.Draft)
	}
	s.log.Info().Dur("took", time.Since(start)).Str("mode", string(m)).Bool("applied", out.Applied).
		Int("skill_a", out.SkillSum.TeamA).Int("skill_b", out.SkillSum.TeamB).Msg("teams balanced")
	return out, nil
}

// reloadActive reads the current registry copy of every id, in order. Unknown and inactive
// players come back as field errors under field; only store failures are returned as err.
func reloadActive(ctx context.Context, players repository.PlayerRepository, ids []string, field string) ([]model.Player, []FieldError, error) {
	var (
		out   = make([]model.Player, 0, len(ids))
		ferrs []FieldError
	)
	for _, id := range ids {
		p, err := players.GetByID(ctx, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			ferrs = append(ferrs, FieldError{Field: field, Message: "unknown player " + id})
		case err != nil:
			return nil, nil, fmt.Errorf("load player %s: %w", id, err)
		case !p.Active:
			ferrs = append(ferrs, FieldError{Field: field, Message: "player " + id + " is inactive"})
		default:
			out = append(out, p)
		}
	}
	return out, ferrs, nil
}

func playerIDs(ps []model.Player) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func viewDraft(d *balancer.Draft) DraftView {
	a, b := d.Team(model.SideA), d.Team(model.SideB)
	v := DraftView{
		Selected:   views(d.Selected()),
		Unassigned: views(d.Unassigned()),
		TeamA:      views(a),
		TeamB:      views(b),
		Ready:      d.Ready(),
	}
	v.AverageSkill.TeamA = balancer.AverageSkill(a)
	v.AverageSkill.TeamB = balancer.AverageSkill(b)
	return v
}

func views(ps []model.Player) []model.PlayerView {
	out := make([]model.PlayerView, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.View())
	}
	return out
}
