package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/pelada-service/internal/service"
)

// ChangeFeed upgrades a request into a change notification subscription.
type ChangeFeed interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Pinger   Pinger
	Verifier TokenVerifier
	Feed     ChangeFeed
	Players  service.PlayerService
	Teams    service.TeamService
	Match    service.MatchService
	Voting   service.VotingService
	Stats    service.StatsService
	Users    service.UserService
	Logger   zerolog.Logger
	// RequestTimeout bounds every /api call; zero means serviceTimeout.
	RequestTimeout time.Duration
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	h := NewHealthHandler(d.Pinger)

	r.Use(RequestID(), RequestLogger(d.Logger))

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = serviceTimeout
	}
	authn := Authenticate(d.Verifier, d.Users)
	if d.Feed != nil {
		r.GET("/ws", authn, RequireTrusted(), func(c *gin.Context) { d.Feed.ServeWS(c.Writer, c.Request) })
	}

	api := r.Group(APIV1Prefix) // Versioning added via single source of truth
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}

		authed := api.Group("", Timeout(timeout), authn)
		NewUserHandler(d.Users).Register(authed)

		trusted := authed.Group("", RequireTrusted())
		NewPlayerHandler(d.Players).Register(trusted)
		NewTeamHandler(d.Teams).Register(trusted)
		NewMatchHandler(d.Match).Register(trusted)
		NewVoteHandler(d.Voting).Register(trusted)
		NewStatsHandler(d.Stats).Register(trusted)
	}
}
