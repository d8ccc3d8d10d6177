// Package match holds the live state of a single match: the two rosters, the running score
// and the chronological event log. It knows nothing about persistence; callers write the
// cumulative counters through to the registry after a successful call here.
package match

import (
	"errors"
	"sort"
	"time"

	"github.com/maxviazov/pelada-service/internal/model"
)

var (
	ErrNotLive         = errors.New("no match is live")
	ErrAlreadyLive     = errors.New("a match is already live")
	ErrTeamsIncomplete = errors.New("both teams need at least one player")
	ErrNotOnTeam       = errors.New("player is not on that team")
	ErrUnknownEvent    = errors.New("unknown event kind")
)

// State of the session machine.
type State string

const (
	StateIdle State = "idle"
	StateLive State = "live"
)

// Session is Idle until Start and goes back to Idle on End.
// It is not safe for concurrent use.
type Session struct {
	state     State
	teamA     model.Team
	teamB     model.Team
	events    []model.MatchEvent
	startedAt time.Time
}

func NewSession() *Session { return &Session{state: StateIdle} }

func (s *Session) State() State { return s.state }

func (s *Session) Live() bool { return s.state == StateLive }

// Start moves Idle to Live with a fresh 0-0 score and an empty log.
func (s *Session) Start(teamA, teamB []model.Player, now time.Time) error {
	if s.state == StateLive {
		return ErrAlreadyLive
	}
	if len(teamA) == 0 || len(teamB) == 0 {
		return ErrTeamsIncomplete
	}
	s.teamA = model.Team{Name: model.TeamAName, Players: append([]model.Player(nil), teamA...)}
	s.teamB = model.Team{Name: model.TeamBName, Players: append([]model.Player(nil), teamB...)}
	s.events = nil
	s.startedAt = now
	s.state = StateLive
	return nil
}

// Record appends an event attributed to side. A goal also bumps that side's score.
// The player must be on the given side.
func (s *Session) Record(side model.Side, playerID string, kind model.EventKind, at time.Time) (model.MatchEvent, error) {
	if s.state != StateLive {
		return model.MatchEvent{}, ErrNotLive
	}
	stat := kind.Stat()
	if stat == "" {
		return model.MatchEvent{}, ErrUnknownEvent
	}
	team := s.team(side)
	if team == nil || !team.Has(playerID) {
		return model.MatchEvent{}, ErrNotOnTeam
	}
	ev := model.MatchEvent{Side: side, PlayerID: playerID, Kind: kind, At: at}
	s.events = append(s.events, ev)
	if kind == model.EventGoal {
		team.Score++
	}
	bumpCopy(team, playerID, stat, 1)
	return ev, nil
}

// Adjust applies a manual correction for a player on either team. For goals the owning
// team's score moves by the same delta. Nothing is appended to the event log, so the
// MVP is unaffected. Values clamp at zero.
func (s *Session) Adjust(playerID string, stat model.StatKind, delta int) (model.Side, error) {
	if s.state != StateLive {
		return "", ErrNotLive
	}
	side, ok := s.SideOf(playerID)
	if !ok {
		return "", ErrNotOnTeam
	}
	team := s.team(side)
	if stat == model.StatGoals {
		team.Score = clamp(team.Score + delta)
	}
	bumpCopy(team, playerID, stat, delta)
	return side, nil
}

// SideOf reports which live team playerID belongs to.
func (s *Session) SideOf(playerID string) (model.Side, bool) {
	switch {
	case s.teamA.Has(playerID):
		return model.SideA, true
	case s.teamB.Has(playerID):
		return model.SideB, true
	}
	return "", false
}

// Player returns the in-session copy of a rostered player.
func (s *Session) Player(id string) (model.Player, bool) {
	for _, t := range []*model.Team{&s.teamA, &s.teamB} {
		for _, p := range t.Players {
			if p.ID == id {
				return p, true
			}
		}
	}
	return model.Player{}, false
}

// Outcome is the result of ending a match. Winner is empty on a draw.
type Outcome struct {
	Winner  model.Side
	Draw    bool
	Archive model.ArchivedMatch
}

// End moves Live to Idle and returns the final result plus an archive snapshot without an id.
// The live state is discarded.
func (s *Session) End(now time.Time) (Outcome, error) {
	if s.state != StateLive {
		return Outcome{}, ErrNotLive
	}
	var out Outcome
	switch {
	case s.teamA.Score > s.teamB.Score:
		out.Winner = model.SideA
	case s.teamB.Score > s.teamA.Score:
		out.Winner = model.SideB
	default:
		out.Draw = true
	}
	out.Archive = model.ArchivedMatch{
		TeamA:     archived(s.teamA),
		TeamB:     archived(s.teamB),
		StartedAt: s.startedAt,
		EndedAt:   now,
		Votes:     map[string]int{},
		UserVotes: map[string]string{},
	}
	*s = Session{state: StateIdle}
	return out, nil
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	State     State              `json:"state"`
	TeamA     *model.Team        `json:"team_a,omitempty"`
	TeamB     *model.Team        `json:"team_b,omitempty"`
	Events    []model.MatchEvent `json:"events"`
	StartedAt *time.Time         `json:"started_at,omitempty"`
	MVP       *Candidate         `json:"mvp,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{State: s.state, Events: []model.MatchEvent{}}
	if s.state != StateLive {
		return snap
	}
	a, b := copyTeam(s.teamA), copyTeam(s.teamB)
	started := s.startedAt
	snap.TeamA, snap.TeamB, snap.StartedAt = &a, &b, &started
	snap.Events = append(snap.Events, s.events...)
	if c, ok := MVP(s.events); ok {
		snap.MVP = &c
	}
	return snap
}

// Candidate is one player's contribution to the current match.
type Candidate struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Goals    int    `json:"goals"`
	Assists  int    `json:"assists"`
	Saves    int    `json:"saves"`
}

// Ranking scores every player that appears in events by 2*goals + assists + saves.
// Ordered by score, then goals, then player id.
func Ranking(events []model.MatchEvent) []Candidate {
	byID := map[string]*Candidate{}
	for _, ev := range events {
		c, ok := byID[ev.PlayerID]
		if !ok {
			c = &Candidate{PlayerID: ev.PlayerID}
			byID[ev.PlayerID] = c
		}
		switch ev.Kind {
		case model.EventGoal:
			c.Goals++
			c.Score += 2
		case model.EventAssist:
			c.Assists++
			c.Score++
		case model.EventSave:
			c.Saves++
			c.Score++
		}
	}
	out := make([]Candidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Goals != out[j].Goals {
			return out[i].Goals > out[j].Goals
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// MVP returns the top of Ranking, or false when nobody has scored a point.
func MVP(events []model.MatchEvent) (Candidate, bool) {
	r := Ranking(events)
	if len(r) == 0 || r[0].Score == 0 {
		return Candidate{}, false
	}
	return r[0], true
}

func (s *Session) team(side model.Side) *model.Team {
	switch side {
	case model.SideA:
		return &s.teamA
	case model.SideB:
		return &s.teamB
	}
	return nil
}

func bumpCopy(t *model.Team, playerID string, stat model.StatKind, delta int) {
	for i := range t.Players {
		if t.Players[i].ID != playerID {
			continue
		}
		p := &t.Players[i]
		switch stat {
		case model.StatGoals:
			p.Goals = clamp(p.Goals + delta)
		case model.StatAssists:
			p.Assists = clamp(p.Assists + delta)
		case model.StatSaves:
			p.Saves = clamp(p.Saves + delta)
		}
		return
	}
}

func archived(t model.Team) model.ArchivedTeam {
	return model.ArchivedTeam{Name: t.Name, Score: t.Score, PlayerIDs: t.PlayerIDs()}
}

func copyTeam(t model.Team) model.Team {
	t.Players = append([]model.Player(nil), t.Players...)
	return t
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
