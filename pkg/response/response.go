// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/pelada-service/internal/auth"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/maxviazov/pelada-service/internal/service"
)

// ErrorPayload is the canonical error envelope returned by the API.
type ErrorPayload struct {
	Error       string               `json:"error"`
	Message     string               `json:"message,omitempty"`
	FieldErrors []service.FieldError `json:"field_errors,omitempty"`
}

// domainErrors maps business rule violations to status and code. Order matters only for
// errors that wrap one another, and none here do.
var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrSingleGoalkeeper, http.StatusUnprocessableEntity, "single_goalkeeper"},
	{service.ErrSaveNotAllowed, http.StatusUnprocessableEntity, "save_not_allowed"},
	{service.ErrNotOnTeam, http.StatusUnprocessableEntity, "not_on_team"},
	{service.ErrTeamsIncomplete, http.StatusUnprocessableEntity, "teams_incomplete"},
	{service.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{service.ErrVotingClosed, http.StatusConflict, "voting_closed"},
	{service.ErrMatchNotLive, http.StatusConflict, "match_not_live"},
	{service.ErrMatchAlreadyLive, http.StatusConflict, "match_already_live"},
}

// MapError converts a domain / infrastructure error into an HTTP status and payload.
// Extend here as new domain error categories emerge.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{Error: "ok"}
	}

	if errors.Is(err, service.ErrInvalidInput) {
		return http.StatusBadRequest, ErrorPayload{
			Error:       "invalid_input",
			Message:     "one or more fields are invalid",
			FieldErrors: service.FieldErrors(err),
		}
	}

	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.status, ErrorPayload{Error: d.code, Message: d.err.Error()}
		}
	}

	switch {
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, ErrorPayload{Error: "unauthenticated"}
	case errors.Is(err, service.ErrPendingApproval):
		return http.StatusForbidden, ErrorPayload{Error: "pending_approval", Message: service.ErrPendingApproval.Error()}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, ErrorPayload{Error: "forbidden"}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "not_found"}
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, ErrorPayload{Error: "already_exists"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ErrorPayload{Error: "conflict"}
	default:
		return http.StatusInternalServerError, ErrorPayload{Error: "internal_error"}
	}
}

// WriteError writes an error response and aborts the context.
// The error is attached to the gin context so the request logger can report it.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}
