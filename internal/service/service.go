// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation, authorization and domain error shaping.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/maxviazov/pelada-service/internal/balancer"
	"github.com/maxviazov/pelada-service/internal/match"
	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// Authorization errors.
var (
	ErrForbidden       = errors.New("forbidden")
	ErrPendingApproval = errors.New("account is pending approval")
)

// Domain errors. Some are re-exported from the packages that raise them so callers
// only need this package for errors.Is.
var (
	ErrSingleGoalkeeper = balancer.ErrSingleGoalkeeper
	ErrMatchNotLive     = match.ErrNotLive
	ErrMatchAlreadyLive = match.ErrAlreadyLive
	ErrNotOnTeam        = match.ErrNotOnTeam
	ErrTeamsIncomplete  = match.ErrTeamsIncomplete
	ErrAlreadyVoted     = errors.New("user already voted in this match")
	ErrVotingClosed     = errors.New("voting window is closed")
	ErrSaveNotAllowed   = errors.New("only goalkeepers and defenders can record saves")
)

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// NewInvalidInputError is the exported form for handlers rejecting malformed requests.
func NewInvalidInputError(fe ...FieldError) error { return newInvalidInput(fe) }

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// Publisher receives a notification after every successful write. Paths follow the store
// layout: players/{id}, matches/{id}, matches/{id}/votes/{playerId}, users/{uid}, session, draft.
type Publisher interface {
	Publish(path string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// Clock is injected wherever a decision depends on the current time.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return func() time.Time { return time.Now().UTC() }
	}
	return c
}

// PlayerInput is the create request for a player.
type PlayerInput struct {
	Name          string
	SkillLevel    int
	Position      string
	IsGoalkeeper  bool
	Weight        *float64
	Height        *float64
	PreferredFoot *string
}

// PlayerUpdate is a merge-patch; nil fields are left alone.
type PlayerUpdate struct {
	Name          *string
	SkillLevel    *int
	Position      *string
	IsGoalkeeper  *bool
	Weight        *float64
	Height        *float64
	PreferredFoot *string
	Goals         *int
	Assists       *int
	Saves         *int
}

// PlayerService defines player registry use cases.
type PlayerService interface {
	CreatePlayer(ctx context.Context, caller model.Caller, in PlayerInput) (model.Player, error)
	GetPlayer(ctx context.Context, id string) (model.Player, error)
	ListPlayers(ctx context.Context, includeInactive bool, page repository.Page) (repository.PageResult[model.Player], error)
	UpdatePlayer(ctx context.Context, caller model.Caller, id string, in PlayerUpdate) (model.Player, error)
	DeactivatePlayer(ctx context.Context, caller model.Caller, id string) (model.Player, error)
	ReactivatePlayer(ctx context.Context, caller model.Caller, id string) (model.Player, error)
}

// DraftView is the pre-match selection as rendered to clients.
type DraftView struct {
	Selected     []model.PlayerView `json:"selected"`
	Unassigned   []model.PlayerView `json:"unassigned"`
	TeamA        []model.PlayerView `json:"team_a"`
	TeamB        []model.PlayerView `json:"team_b"`
	AverageSkill struct {
		TeamA float64 `json:"team_a"`
		TeamB float64 `json:"team_b"`
	} `json:"average_skill"`
	Ready bool `json:"ready"`
}

// BalanceResult reports a balancer run. Applied is false when a warning was raised and not accepted.
type BalanceResult struct {
	Mode     balancer.Mode      `json:"mode"`
	Applied  bool               `json:"applied"`
	Warning  string             `json:"warning,omitempty"`
	TeamA    []model.PlayerView `json:"team_a"`
	TeamB    []model.PlayerView `json:"team_b"`
	Draft    DraftView          `json:"draft"`
	SkillSum struct {
		TeamA int `json:"team_a"`
		TeamB int `json:"team_b"`
	} `json:"skill_sum"`
}

// TeamService defines the team draft and balancer use cases.
type TeamService interface {
	GetDraft(ctx context.Context) DraftView
	SelectPlayers(ctx context.Context, caller model.Caller, ids []string) (DraftView, error)
	AssignPlayer(ctx context.Context, caller model.Caller, id string, side string) (DraftView, error)
	UnassignPlayer(ctx context.Context, caller model.Caller, id string) (DraftView, error)
	Balance(ctx context.Context, caller model.Caller, mode string, acceptWarning bool) (BalanceResult, error)
}

// EndResult is returned when a live match ends. Match is nil when archiving was skipped.
type EndResult struct {
	Winner model.Side           `json:"winner,omitempty"`
	Draw   bool                 `json:"draw"`
	TeamA  model.ArchivedTeam   `json:"team_a"`
	TeamB  model.ArchivedTeam   `json:"team_b"`
	MVP    *match.Candidate     `json:"mvp,omitempty"`
	Match  *model.ArchivedMatch `json:"match,omitempty"`
}

// MatchService defines live match use cases.
type MatchService interface {
	Current(ctx context.Context) match.Snapshot
	Start(ctx context.Context, caller model.Caller) (match.Snapshot, error)
	RecordEvent(ctx context.Context, caller model.Caller, side, playerID, kind string) (match.Snapshot, error)
	Adjust(ctx context.Context, caller model.Caller, playerID, stat string, delta int) (match.Snapshot, error)
	End(ctx context.Context, caller model.Caller, archive bool) (EndResult, error)
}

// VoteTally is one row of a match's MVP vote ranking.
type VoteTally struct {
	PlayerID string     `json:"player_id"`
	Name     string     `json:"name,omitempty"`
	Side     model.Side `json:"team"`
	Votes    int        `json:"votes"`
}

// MatchView is an archived match with its voting state for the calling user.
type MatchView struct {
	model.ArchivedMatch
	Ranking      []VoteTally `json:"ranking"`
	VotingOpen   bool        `json:"voting_open"`
	VotingEndsAt time.Time   `json:"voting_ends_at"`
	HasVoted     bool        `json:"has_voted"`
	MyVote       string      `json:"my_vote,omitempty"`
}

// VotingService defines archive browsing and the MVP voting ledger.
type VotingService interface {
	ListRecent(ctx context.Context, caller model.Caller, page repository.Page) (repository.PageResult[MatchView], error)
	GetMatch(ctx context.Context, caller model.Caller, id string) (MatchView, error)
	Vote(ctx context.Context, caller model.Caller, matchID, playerID string) (MatchView, error)
	HasVoted(ctx context.Context, matchID, userID string) (bool, error)
}

// Statistics is the read-side rankings view.
type Statistics struct {
	TopScorers     []model.PlayerView `json:"top_scorers"`
	TopGoalkeepers []model.PlayerView `json:"top_goalkeepers"`
	TopScorer      *model.PlayerView  `json:"top_scorer,omitempty"`
	TopGoalkeeper  *model.PlayerView  `json:"top_goalkeeper,omitempty"`
}

// StatsService defines statistic rankings over the registry.
type StatsService interface {
	Overview(ctx context.Context, limit int) (Statistics, error)
}

// UserService defines the user directory use cases.
type UserService interface {
	Resolve(ctx context.Context, uid, email string) (model.UserProfile, error)
	Approve(ctx context.Context, caller model.Caller, uid string) (model.UserProfile, error)
	SetAdmin(ctx context.Context, caller model.Caller, uid string, admin bool) (model.UserProfile, error)
}
