package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/pelada-service/internal/auth"
	"github.com/maxviazov/pelada-service/internal/handler"
	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository/memory"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

const testSecret = "handler-test-secret-0123"

type api struct {
	t      *testing.T
	engine *gin.Engine
	store  *memory.Store
}

// newAPI wires real services over a memory store; "root" is the bootstrap admin.
func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	log := zerolog.Nop()
	live := service.NewLive(rand.New(rand.NewPCG(7, 7)))
	users := service.NewUserService(store.Users(), []string{"root"}, nil, log)

	r := gin.New()
	handler.Register(r, handler.Deps{
		Pinger:   store,
		Verifier: auth.NewVerifier(testSecret, ""),
		Players:  service.NewPlayerService(store.Players(), nil, log),
		Teams:    service.NewTeamService(store.Players(), live, nil, log),
		Match:    service.NewMatchService(store.Players(), store.Matches(), live, nil, nil, log),
		Voting:   service.NewVotingService(store.Matches(), store.Players(), nil, nil, log),
		Stats:    service.NewStatsService(store.Players(), log),
		Users:    users,
		Logger:   log,
	})
	return &api{t: t, engine: r, store: store}
}

func (a *api) token(uid string) string {
	a.t.Helper()
	tok, err := auth.Issue(testSecret, "", uid, uid+"@example.com", time.Hour)
	require.NoError(a.t, err)
	return tok
}

func (a *api) do(method, path, uid string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, handler.APIV1Prefix+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(uid))
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// approved registers uid and has root approve it.
func (a *api) approved(uid string) {
	a.t.Helper()
	require.Equal(a.t, http.StatusOK, a.do(http.MethodGet, "/me", uid, nil).Code)
	require.Equal(a.t, http.StatusOK, a.do(http.MethodPost, "/users/"+uid+"/approve", "root", nil).Code)
}

func TestAuth_Rejections(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, "/players", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", decode[response.ErrorPayload](t, w).Error)

	req := httptest.NewRequest(http.MethodGet, handler.APIV1Prefix+"/players", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// authenticated but unapproved users only reach /me
	w = a.do(http.MethodGet, "/me", "newbie", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		Profile   model.UserProfile `json:"profile"`
		IsTrusted bool              `json:"is_trusted"`
	}](t, w)
	assert.Equal(t, "newbie", me.Profile.UID)
	assert.False(t, me.IsTrusted)

	w = a.do(http.MethodGet, "/players", "newbie", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "pending_approval", decode[response.ErrorPayload](t, w).Error)

	w = a.do(http.MethodPost, "/users/newbie/approve", "newbie", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPlayers_CRUD(t *testing.T) {
	a := newAPI(t)
	a.approved("ana")

	w := a.do(http.MethodPost, "/players", "ana", map[string]any{"name": "Rui", "skill_level": 7, "is_goalkeeper": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.PlayerView](t, w)
	assert.True(t, created.IsGoalkeeper)
	assert.Equal(t, model.PositionGoalkeeper, created.Position)

	w = a.do(http.MethodPost, "/players", "ana", map[string]any{"name": "", "skill_level": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/players", "ana", map[string]any{"name": "X", "skill_level": 42})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "skill_level", decode[response.ErrorPayload](t, w).FieldErrors[0].Field)

	w = a.do(http.MethodPatch, "/players/"+created.ID, "ana", map[string]any{"name": "Rui Costa"})
	assert.Equal(t, http.StatusForbidden, w.Code, "only admins update")

	w = a.do(http.MethodPatch, "/players/"+created.ID, "root", map[string]any{"name": "Rui Costa", "saves": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[model.PlayerView](t, w).Saves)

	w = a.do(http.MethodDelete, "/players/"+created.ID, "root", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/players", "ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[struct{ Total int }](t, w).Total)

	w = a.do(http.MethodGet, "/players?include_inactive=true", "ana", nil)
	assert.Equal(t, 1, decode[struct{ Total int }](t, w).Total)

	w = a.do(http.MethodPost, "/players/"+created.ID+"/reactivate", "root", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.PlayerView](t, w).Active)

	w = a.do(http.MethodGet, "/players/missing", "ana", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (a *api) seedPlayers(ps ...model.Player) {
	a.t.Helper()
	for _, p := range ps {
		p.Active = true
		_, err := a.store.Players().Create(context.Background(), p)
		require.NoError(a.t, err)
	}
}

func TestMatchFlow_EndToEnd(t *testing.T) {
	a := newAPI(t)
	a.approved("ana")
	a.seedPlayers(
		model.Player{ID: "g1", Name: "G1", SkillLevel: 6, Position: model.PositionGoalkeeper},
		model.Player{ID: "g2", Name: "G2", SkillLevel: 5, Position: model.PositionGoalkeeper},
		model.Player{ID: "f1", Name: "F1", SkillLevel: 8, Position: model.PositionForward},
		model.Player{ID: "f2", Name: "F2", SkillLevel: 7, Position: model.PositionForward},
	)

	w := a.do(http.MethodPut, "/teams/draft/selection", "ana", map[string]any{"player_ids": []string{"g1", "g2", "f1", "f2"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/teams/balance", "ana", map[string]any{"mode": "balance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bal := decode[service.BalanceResult](t, w)
	require.True(t, bal.Applied)
	// g1 6 -> A, g2 5 -> B, f1 8 -> B, f2 7 -> A
	assert.Equal(t, []string{"g1", "f2"}, []string{bal.TeamA[0].ID, bal.TeamA[1].ID})

	w = a.do(http.MethodPost, "/match/events", "ana", map[string]any{"team": "A", "player_id": "f2", "kind": "goal"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "match_not_live", decode[response.ErrorPayload](t, w).Error)

	w = a.do(http.MethodPost, "/match/start", "ana", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/match/events", "ana", map[string]any{"team": "A", "player_id": "f2", "kind": "goal"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = a.do(http.MethodPost, "/match/events", "ana", map[string]any{"team": "A", "player_id": "f2", "kind": "save"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "save_not_allowed", decode[response.ErrorPayload](t, w).Error)
	w = a.do(http.MethodPost, "/match/adjustments", "ana", map[string]any{"player_id": "f1", "stat": "goals", "delta": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodPost, "/match/adjustments", "root", map[string]any{"player_id": "f1", "stat": "goals", "delta": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/match", "ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[struct {
		State string     `json:"state"`
		TeamA model.Team `json:"team_a"`
		TeamB model.Team `json:"team_b"`
	}](t, w)
	assert.Equal(t, "live", snap.State)
	assert.Equal(t, 1, snap.TeamA.Score)
	assert.Equal(t, 1, snap.TeamB.Score)

	w = a.do(http.MethodPost, "/match/end", "ana", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	end := decode[service.EndResult](t, w)
	assert.True(t, end.Draw)
	require.NotNil(t, end.Match)

	w = a.do(http.MethodPost, "/matches/"+end.Match.ID+"/votes", "ana", map[string]any{"player_id": "f2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[service.MatchView](t, w)
	assert.True(t, view.HasVoted)
	assert.Equal(t, "f2", view.Ranking[0].PlayerID)

	w = a.do(http.MethodPost, "/matches/"+end.Match.ID+"/votes", "ana", map[string]any{"player_id": "g1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_voted", decode[response.ErrorPayload](t, w).Error)

	w = a.do(http.MethodGet, "/matches", "ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[struct{ Total int }](t, w).Total)

	w = a.do(http.MethodGet, "/stats", "ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[service.Statistics](t, w)
	require.NotNil(t, stats.TopScorer)
	assert.Len(t, stats.TopGoalkeepers, 2)
	assert.Nil(t, stats.TopGoalkeeper)

	w = a.do(http.MethodGet, "/stats?limit=abc", "ana", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBalance_SingleGoalkeeper(t *testing.T) {
	a := newAPI(t)
	a.approved("ana")
	a.seedPlayers(
		model.Player{ID: "g1", Name: "G1", SkillLevel: 6, Position: model.PositionGoalkeeper},
		model.Player{ID: "f1", Name: "F1", SkillLevel: 8, Position: model.PositionForward},
	)
	w := a.do(http.MethodPut, "/teams/draft/selection", "ana", map[string]any{"player_ids": []string{"g1", "f1"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, "/teams/balance", "ana", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "single_goalkeeper", decode[response.ErrorPayload](t, w).Error)

	w = a.do(http.MethodPost, "/teams/draft/assign", "ana", map[string]any{"player_id": "g1", "team": "A"})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodPost, "/match/start", "ana", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "teams_incomplete", decode[response.ErrorPayload](t, w).Error)

	w = a.do(http.MethodDelete, "/teams/draft/players/g1", "ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[service.DraftView](t, w).Unassigned, 2)
}
