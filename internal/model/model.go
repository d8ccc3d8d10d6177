// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes; the only behavior here is derivation
// of redundant fields (IsGoalkeeper) and simple lookups.
package model

import (
	"strings"
	"time"
)

// Position is the field position a player usually plays.
type Position string

const (
	PositionGoalkeeper Position = "Goalkeeper"
	PositionDefender   Position = "Defender"
	PositionMidfielder Position = "Midfielder"
	PositionForward    Position = "Forward"
)

// DefaultPosition is assigned when a player is registered without one.
const DefaultPosition = PositionForward

// ParsePosition normalizes user input to a Position. Matching is case-insensitive
// and accepts the Portuguese labels the group historically used.
func ParsePosition(s string) (Position, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "goalkeeper", "gk", "goleiro":
		return PositionGoalkeeper, true
	case "defender", "df", "zagueiro":
		return PositionDefender, true
	case "midfielder", "mf", "meio campo", "meio-campo":
		return PositionMidfielder, true
	case "forward", "fw", "atacante":
		return PositionForward, true
	default:
		return "", false
	}
}

// Foot is a player's preferred foot.
type Foot string

const (
	FootLeft  Foot = "left"
	FootRight Foot = "right"
	FootBoth  Foot = "both"
)

// StatKind names one of the cumulative player counters.
type StatKind string

const (
	StatGoals   StatKind = "goals"
	StatAssists StatKind = "assists"
	StatSaves   StatKind = "saves"
)

// Valid reports whether k is one of the known counters.
func (k StatKind) Valid() bool {
	return k == StatGoals || k == StatAssists || k == StatSaves
}

// Player is a registered member of the group.
// IsGoalkeeper is derived from Position and is not stored on its own.
type Player struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SkillLevel    int       `json:"skill_level"`
	Position      Position  `json:"position"`
	Active        bool      `json:"active"`
	Goals         int       `json:"goals"`
	Assists       int       `json:"assists"`
	Saves         int       `json:"saves"`
	Weight        *float64  `json:"weight,omitempty"`
	Height        *float64  `json:"height,omitempty"`
	PreferredFoot *Foot     `json:"preferred_foot,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsGoalkeeper is true iff the player's position is Goalkeeper.
func (p Player) IsGoalkeeper() bool { return p.Position == PositionGoalkeeper }

// Stat returns the value of the cumulative counter k.
func (p Player) Stat(k StatKind) int {
	switch k {
	case StatGoals:
		return p.Goals
	case StatAssists:
		return p.Assists
	case StatSaves:
		return p.Saves
	}
	return 0
}

// PlayerView is the wire shape of a player, carrying the derived goalkeeper flag.
type PlayerView struct {
	Player
	IsGoalkeeper bool `json:"is_goalkeeper"`
}

// View wraps p with its derived fields for JSON responses.
func (p Player) View() PlayerView { return PlayerView{Player: p, IsGoalkeeper: p.IsGoalkeeper()} }

// PlayerPatch is a merge-patch: nil fields stay unchanged.
type PlayerPatch struct {
	Name          *string
	SkillLevel    *int
	Position      *Position
	Weight        *float64
	Height        *float64
	PreferredFoot *Foot
	Goals         *int
	Assists       *int
	Saves         *int
}

// Side identifies one of the two teams of a match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide accepts "A"/"B" in any case.
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return SideA, true
	case "B":
		return SideB, true
	}
	return "", false
}

// Default team labels.
const (
	TeamAName = "Team A"
	TeamBName = "Team B"
)

// Team is one side of a live match. Score counts live goals only.
type Team struct {
	Name    string   `json:"name"`
	Players []Player `json:"players"`
	Score   int      `json:"score"`
}

// Has reports whether the player with id is a member of t.
func (t Team) Has(id string) bool {
	for _, p := range t.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// PlayerIDs lists member ids in roster order.
func (t Team) PlayerIDs() []string {
	ids := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

// EventKind is the type of a live match event.
type EventKind string

const (
	EventGoal   EventKind = "goal"
	EventAssist EventKind = "assist"
	EventSave   EventKind = "save"
)

// Stat maps an event to the cumulative counter it increments.
func (k EventKind) Stat() StatKind {
	switch k {
	case EventGoal:
		return StatGoals
	case EventAssist:
		return StatAssists
	case EventSave:
		return StatSaves
	}
	return ""
}

// MatchEvent is one entry of a session's chronological event log.
type MatchEvent struct {
	Side     Side      `json:"team"`
	PlayerID string    `json:"player_id"`
	Kind     EventKind `json:"kind"`
	At       time.Time `json:"at"`
}

// ArchivedTeam is a team as recorded at the end of a match.
type ArchivedTeam struct {
	Name      string   `json:"name"`
	Score     int      `json:"score"`
	PlayerIDs []string `json:"player_ids"`
}

// Has reports whether id is in the archived roster.
func (t ArchivedTeam) Has(id string) bool {
	for _, pid := range t.PlayerIDs {
		if pid == id {
			return true
		}
	}
	return false
}

// ArchivedMatch is the persisted snapshot of a finished match.
// Only Votes and UserVotes change after creation, and they only grow.
type ArchivedMatch struct {
	ID        string            `json:"id"`
	TeamA     ArchivedTeam      `json:"team_a"`
	TeamB     ArchivedTeam      `json:"team_b"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Votes     map[string]int    `json:"votes"`
	UserVotes map[string]string `json:"user_votes"`
}

// HasPlayer reports whether id played on either side.
func (m ArchivedMatch) HasPlayer(id string) bool { return m.TeamA.Has(id) || m.TeamB.Has(id) }

// UserProfile is the stored identity record for an authenticated user.
type UserProfile struct {
	UID        string    `json:"uid"`
	Email      string    `json:"email"`
	IsAdmin    bool      `json:"is_admin"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// Caller is the capability set of whoever invokes an operation.
type Caller struct {
	UserID    string
	IsAdmin   bool
	IsTrusted bool
}

// CallerFor derives capabilities from a profile. Admins are implicitly trusted.
func CallerFor(u UserProfile) Caller {
	return Caller{UserID: u.UID, IsAdmin: u.IsAdmin, IsTrusted: u.IsApproved || u.IsAdmin}
}
