package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxviazov/pelada-service/internal/match"
	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/rs/zerolog"
)

// matchService drives the live session and writes counters through to the registry.
// The in-memory update always happens first; a failed registry write is returned and logged
// but the live state is not rolled back.
type matchService struct {
	players repository.PlayerRepository
	matches repository.MatchRepository
	live    *Live
	now     Clock
	pub     Publisher
	log     zerolog.Logger
}

func NewMatchService(players repository.PlayerRepository, matches repository.MatchRepository, live *Live, now Clock, pub Publisher, logger zerolog.Logger) MatchService {
	l := logger.With().Str("module", "service").Str("component", "match").Logger()
	return &matchService{
		players: players,
		matches: matches,
		live:    live,
		now:     clockOrNow(now),
		pub:     publisherOrNop(pub),
		log:     l,
	}
}

func (s *matchService) Current(_ context.Context) match.Snapshot {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	return s.live.session.Snapshot()
}

// Start takes the drafted teams live. Player copies are refreshed from the registry so the
// session starts from current counters; a player deactivated since drafting blocks the start.
func (s *matchService) Start(ctx context.Context, caller model.Caller) (match.Snapshot, error) {
	if err := requireTrusted(caller); err != nil {
		return match.Snapshot{}, err
	}
	s.live.mu.Lock()
	defer s.live.mu.Unlock()

	if s.live.session.Live() {
		return match.Snapshot{}, ErrMatchAlreadyLive
	}
	if !s.live.draft.Ready() {
		return match.Snapshot{}, ErrTeamsIncomplete
	}
	teamA, err := s.refresh(ctx, s.live.draft.Team(model.SideA))
	if err != nil {
		return match.Snapshot{}, err
	}
	teamB, err := s.refresh(ctx, s.live.draft.Team(model.SideB))
	if err != nil {
		return match.Snapshot{}, err
	}
	if err := s.live.session.Start(teamA, teamB, s.now()); err != nil {
		return match.Snapshot{}, err
	}
	snap := s.live.session.Snapshot()
	s.pub.Publish("session", snap)
	s.log.Info().Int("team_a", len(teamA)).Int("team_b", len(teamB)).Str("by", caller.UserID).Msg("match started")
	return snap, nil
}

func (s *matchService) refresh(ctx context.Context, team []model.Player) ([]model.Player, error) {
	out, ferrs, err := reloadActive(ctx, s.players, playerIDs(team), "player_ids")
	if err != nil {
		s.log.Error().Err(err).Msg("refresh players before start failed")
		return nil, err
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("start rejected")
		return nil, err
	}
	s.live.draft.Refresh(out)
	return out, nil
}

func (s *matchService) RecordEvent(ctx context.Context, caller model.Caller, side, playerID, kind string) (match.Snapshot, error) {
	if err := requireTrusted(caller); err != nil {
		return match.Snapshot{}, err
	}
	var ferrs []FieldError
	sd, ok := model.ParseSide(side)
	if !ok {
		ferrs = append(ferrs, FieldError{Field: "team", Message: "must be A or B"})
	}
	if strings.TrimSpace(playerID) == "" {
		ferrs = append(ferrs, FieldError{Field: "player_id", Message: "must not be empty"})
	}
	k := model.EventKind(strings.ToLower(strings.TrimSpace(kind)))
	if k.Stat() == "" {
		ferrs = append(ferrs, FieldError{Field: "kind", Message: "must be one of goal, assist, save"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("event validation failed")
		return match.Snapshot{}, err
	}

	s.live.mu.Lock()
	if !s.live.session.Live() {
		s.live.mu.Unlock()
		return match.Snapshot{}, ErrMatchNotLive
	}
	if p, found := s.live.session.Player(playerID); found && k == model.EventSave &&
		p.Position != model.PositionGoalkeeper && p.Position != model.PositionDefender {
		s.live.mu.Unlock()
		return match.Snapshot{}, ErrSaveNotAllowed
	}
	ev, err := s.live.session.Record(sd, playerID, k, s.now())
	if err != nil {
		s.live.mu.Unlock()
		return match.Snapshot{}, err
	}
	snap := s.live.session.Snapshot()
	s.live.mu.Unlock()

	s.pub.Publish("session", snap)
	if err := s.writeThrough(ctx, playerID, k.Stat(), 1); err != nil {
		return snap, err
	}
	s.log.Info().Str("player_id", ev.PlayerID).Str("team", string(ev.Side)).Str("kind", string(ev.Kind)).Msg("event recorded")
	return snap, nil
}

// Adjust corrects a rostered player's counter during the live match. Admin only.
func (s *matchService) Adjust(ctx context.Context, caller model.Caller, playerID, stat string, delta int) (match.Snapshot, error) {
	if err := requireAdmin(caller); err != nil {
		return match.Snapshot{}, err
	}
	var ferrs []FieldError
	if strings.TrimSpace(playerID) == "" {
		ferrs = append(ferrs, FieldError{Field: "player_id", Message: "must not be empty"})
	}
	sk := model.StatKind(strings.ToLower(strings.TrimSpace(stat)))
	if !sk.Valid() {
		ferrs = append(ferrs, FieldError{Field: "stat", Message: "must be one of goals, assists, saves"})
	}
	if delta == 0 {
		ferrs = append(ferrs, FieldError{Field: "delta", Message: "must not be zero"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("adjustment validation failed")
		return match.Snapshot{}, err
	}

	s.live.mu.Lock()
	side, err := s.live.session.Adjust(playerID, sk, delta)
	if err != nil {
		s.live.mu.Unlock()
		return match.Snapshot{}, err
	}
	snap := s.live.session.Snapshot()
	s.live.mu.Unlock()

	s.pub.Publish("session", snap)
	if err := s.writeThrough(ctx, playerID, sk, delta); err != nil {
		return snap, err
	}
	s.log.Info().Str("player_id", playerID).Str("team", string(side)).Str("stat", string(sk)).
		Int("delta", delta).Str("by", caller.UserID).Msg("stat adjusted")
	return snap, nil
}

func (s *matchService) writeThrough(ctx context.Context, playerID string, stat model.StatKind, delta int) error {
	p, err := s.players.IncrementStat(ctx, playerID, stat, delta)
	if err != nil {
		s.log.Error().Err(err).Str("player_id", playerID).Str("stat", string(stat)).Int("delta", delta).
			Msg("registry write-through failed, live state kept")
		return fmt.Errorf("write %s for player %s: %w", stat, playerID, err)
	}
	s.pub.Publish("players/"+p.ID, p.View())
	return nil
}

// End finishes the live match and resets the draft. With archive set the final snapshot is
// stored and opens for voting.
func (s *matchService) End(ctx context.Context, caller model.Caller, archive bool) (EndResult, error) {
	if err := requireTrusted(caller); err != nil {
		return EndResult{}, err
	}
	s.live.mu.Lock()
	snap := s.live.session.Snapshot()
	out, err := s.live.session.End(s.now())
	if err != nil {
		s.live.mu.Unlock()
		return EndResult{}, err
	}
	s.live.draft.Reset()
	draft := viewDraft(s.live.draft)
	s.live.mu.Unlock()

	res := EndResult{Winner: out.Winner, Draw: out.Draw, TeamA: out.Archive.TeamA, TeamB: out.Archive.TeamB, MVP: snap.MVP}
	s.pub.Publish("session", match.Snapshot{State: match.StateIdle, Events: []model.MatchEvent{}})
	s.pub.Publish("draft", draft)

	if !archive {
		s.log.Info().Int("score_a", res.TeamA.Score).Int("score_b", res.TeamB.Score).Msg("match ended without archive")
		return res, nil
	}
	stored, err := s.matches.Create(ctx, out.Archive)
	if err != nil {
		s.log.Error().Err(err).Int("score_a", res.TeamA.Score).Int("score_b", res.TeamB.Score).Msg("archive match failed")
		return res, fmt.Errorf("archive match: %w", err)
	}
	res.Match = &stored
	s.pub.Publish("matches/"+stored.ID, stored)
	s.log.Info().Str("match_id", stored.ID).Int("score_a", res.TeamA.Score).Int("score_b", res.TeamB.Score).
		Dur("duration", stored.EndedAt.Sub(stored.StartedAt)).Msg("match archived")
	return res, nil
}
