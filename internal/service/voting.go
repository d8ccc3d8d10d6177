package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/rs/zerolog"
)

// VotingWindow is how long after a match ends its MVP vote stays open.
const VotingWindow = 2 * time.Hour

// DefaultRecentMatches is the archive page size when the caller does not ask for one.
const DefaultRecentMatches = 10

// VotingOpen reports whether a match that ended at endedAt still accepts votes at now.
func VotingOpen(endedAt, now time.Time) bool { return now.Sub(endedAt) < VotingWindow }

type votingService struct {
	matches repository.MatchRepository
	players repository.PlayerRepository
	now     Clock
	pub     Publisher
	log     zerolog.Logger
}

func NewVotingService(matches repository.MatchRepository, players repository.PlayerRepository, now Clock, pub Publisher, logger zerolog.Logger) VotingService {
	l := logger.With().Str("module", "service").Str("component", "voting").Logger()
	return &votingService{matches: matches, players: players, now: clockOrNow(now), pub: publisherOrNop(pub), log: l}
}

func (s *votingService) ListRecent(ctx context.Context, caller model.Caller, page repository.Page) (repository.PageResult[MatchView], error) {
	if page.Limit <= 0 {
		page.Limit = DefaultRecentMatches
	}
	p := page.Normalize()
	res, err := s.matches.ListRecent(ctx, p)
	if err != nil {
		s.log.Error().Err(err).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list recent matches failed")
		return repository.PageResult[MatchView]{}, err
	}
	now := s.now()
	out := repository.PageResult[MatchView]{Items: make([]MatchView, 0, len(res.Items)), Total: res.Total}
	for _, m := range res.Items {
		out.Items = append(out.Items, viewMatch(m, caller.UserID, now, nil))
	}
	return out, nil
}

func (s *votingService) GetMatch(ctx context.Context, caller model.Caller, id string) (MatchView, error) {
	if strings.TrimSpace(id) == "" {
		return MatchView{}, newInvalidInput([]FieldError{{Field: "id", Message: "must not be empty"}})
	}
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return MatchView{}, err
	}
	return viewMatch(m, caller.UserID, s.now(), s.names(ctx, m)), nil
}

// Vote casts caller's MVP vote. Checks run in order: receipt, window, roster; the repository
// then enforces one vote per user atomically.
func (s *votingService) Vote(ctx context.Context, caller model.Caller, matchID, playerID string) (MatchView, error) {
	if err := requireTrusted(caller); err != nil {
		return MatchView{}, err
	}
	var ferrs []FieldError
	if strings.TrimSpace(matchID) == "" {
		ferrs = append(ferrs, FieldError{Field: "match_id", Message: "must not be empty"})
	}
	if strings.TrimSpace(playerID) == "" {
		ferrs = append(ferrs, FieldError{Field: "player_id", Message: "must not be empty"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return MatchView{}, err
	}

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return MatchView{}, err
	}
	if _, voted := m.UserVotes[caller.UserID]; voted {
		return MatchView{}, ErrAlreadyVoted
	}
	now := s.now()
	if !VotingOpen(m.EndedAt, now) {
		return MatchView{}, ErrVotingClosed
	}
	if !m.HasPlayer(playerID) {
		s.log.Debug().Str("match_id", matchID).Str("player_id", playerID).Msg("vote for non-member rejected")
		return MatchView{}, newInvalidInput([]FieldError{{Field: "player_id", Message: "did not play in this match"}})
	}

	if err := s.matches.RecordVote(ctx, matchID, caller.UserID, playerID); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return MatchView{}, ErrAlreadyVoted
		}
		s.log.Error().Err(err).Str("match_id", matchID).Str("player_id", playerID).Msg("record vote failed")
		return MatchView{}, err
	}

	m, err = s.matches.GetByID(ctx, matchID)
	if err != nil {
		s.log.Error().Err(err).Str("match_id", matchID).Msg("reload match after vote failed")
		return MatchView{}, err
	}
	s.pub.Publish("matches/"+matchID+"/votes/"+playerID, m.Votes[playerID])
	s.pub.Publish("matches/"+matchID+"/userVotes/"+caller.UserID, playerID)
	s.log.Info().Str("match_id", matchID).Str("player_id", playerID).Int("votes", m.Votes[playerID]).Msg("vote recorded")
	return viewMatch(m, caller.UserID, now, s.names(ctx, m)), nil
}

func (s *votingService) HasVoted(ctx context.Context, matchID, userID string) (bool, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return false, err
	}
	_, ok := m.UserVotes[userID]
	return ok, nil
}

// names resolves roster ids to player names. Lookup failures only leave the name blank.
func (s *votingService) names(ctx context.Context, m model.ArchivedMatch) map[string]string {
	out := make(map[string]string, len(m.TeamA.PlayerIDs)+len(m.TeamB.PlayerIDs))
	for _, id := range append(append([]string{}, m.TeamA.PlayerIDs...), m.TeamB.PlayerIDs...) {
		p, err := s.players.GetByID(ctx, id)
		if err != nil {
			s.log.Debug().Err(err).Str("player_id", id).Msg("player name lookup failed")
			continue
		}
		out[id] = p.Name
	}
	return out
}

func viewMatch(m model.ArchivedMatch, userID string, now time.Time, names map[string]string) MatchView {
	v := MatchView{
		ArchivedMatch: m,
		Ranking:       VoteRanking(m, names),
		VotingOpen:    VotingOpen(m.EndedAt, now),
		VotingEndsAt:  m.EndedAt.Add(VotingWindow),
	}
	if pid, ok := m.UserVotes[userID]; ok && userID != "" {
		v.HasVoted, v.MyVote = true, pid
	}
	return v
}

// VoteRanking lists every rostered player by votes descending, then player id.
func VoteRanking(m model.ArchivedMatch, names map[string]string) []VoteTally {
	out := make([]VoteTally, 0, len(m.TeamA.PlayerIDs)+len(m.TeamB.PlayerIDs))
	add := func(side model.Side, ids []string) {
		for _, id := range ids {
			out = append(out, VoteTally{PlayerID: id, Name: names[id], Side: side, Votes: m.Votes[id]})
		}
	}
	add(model.SideA, m.TeamA.PlayerIDs)
	add(model.SideB, m.TeamB.PlayerIDs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}
