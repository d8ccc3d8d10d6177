package response_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/maxviazov/pelada-service/internal/auth"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name     string
		in       error
		wantCode int
		wantErr  string
	}{
		{"invalid_input", service.NewInvalidInputError(service.FieldError{Field: "name", Message: "bad"}), 400, "invalid_input"},
		{"unauthenticated", fmt.Errorf("%w: expired", auth.ErrInvalidToken), 401, "unauthenticated"},
		{"missing token", auth.ErrMissingToken, 401, "unauthenticated"},
		{"pending", service.ErrPendingApproval, 403, "pending_approval"},
		{"forbidden", service.ErrForbidden, 403, "forbidden"},
		{"not_found", repository.ErrNotFound, 404, "not_found"},
		{"already_exists", repository.ErrAlreadyExists, 409, "already_exists"},
		{"conflict", repository.ErrConflict, 409, "conflict"},
		{"already_voted", service.ErrAlreadyVoted, 409, "already_voted"},
		{"voting_closed", service.ErrVotingClosed, 409, "voting_closed"},
		{"not live", service.ErrMatchNotLive, 409, "match_not_live"},
		{"already live", service.ErrMatchAlreadyLive, 409, "match_already_live"},
		{"single goalkeeper", service.ErrSingleGoalkeeper, 422, "single_goalkeeper"},
		{"save not allowed", service.ErrSaveNotAllowed, 422, "save_not_allowed"},
		{"not on team", service.ErrNotOnTeam, 422, "not_on_team"},
		{"teams incomplete", service.ErrTeamsIncomplete, 422, "teams_incomplete"},
		{"wrapped store failure", fmt.Errorf("write goals: %w", repository.ErrNotFound), 404, "not_found"},
		{"internal", errors.New("boom"), 500, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, payload := response.MapError(tc.in)
			if code != tc.wantCode || payload.Error != tc.wantErr {
				t.Fatalf("unexpected mapping: got (%d,%s) want (%d,%s)", code, payload.Error, tc.wantCode, tc.wantErr)
			}
			if tc.wantErr == "invalid_input" && len(payload.FieldErrors) == 0 {
				t.Fatalf("expected field errors in payload")
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	code, payload := response.MapError(nil)
	if code != http.StatusOK || payload.Error != "ok" {
		t.Fatalf("unexpected mapping for nil: (%d,%s)", code, payload.Error)
	}
}
