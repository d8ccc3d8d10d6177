package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/pelada-service/internal/auth"
	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

const (
	serviceTimeout  = 5 * time.Second
	requestIDHeader = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxProfile   = "profile"
	ctxCaller    = "caller"
)

// TokenVerifier turns a bearer token into a verified identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequestID propagates the client's X-Request-ID or mints a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request once the handler chain is done.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	l := logger.With().Str("module", "handler").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Err(c.Errors.Last().Err)
		}
		ev.Str("request_id", c.GetString(ctxRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("uid", callerFrom(c).UserID).
			Msg("request handled")
	}
}

// Timeout bounds everything downstream of the handler with serviceTimeout.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authenticate verifies the bearer token and resolves the caller's profile.
// Websocket clients cannot set headers, so an access_token query parameter is accepted too.
func Authenticate(verifier TokenVerifier, users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			token = c.Query("access_token")
		}
		id, err := verifier.Verify(token)
		if err != nil {
			response.WriteError(c, err)
			return
		}
		profile, err := users.Resolve(c.Request.Context(), id.UID, id.Email)
		if err != nil {
			response.WriteError(c, err)
			return
		}
		c.Set(ctxProfile, profile)
		c.Set(ctxCaller, model.CallerFor(profile))
		c.Next()
	}
}

// RequireTrusted rejects callers who are authenticated but not yet approved.
func RequireTrusted() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !callerFrom(c).IsTrusted {
			response.WriteError(c, service.ErrPendingApproval)
			return
		}
		c.Next()
	}
}

func callerFrom(c *gin.Context) model.Caller {
	if v, ok := c.Get(ctxCaller); ok {
		if caller, ok := v.(model.Caller); ok {
			return caller
		}
	}
	return model.Caller{}
}

func profileFrom(c *gin.Context) model.UserProfile {
	if v, ok := c.Get(ctxProfile); ok {
		if p, ok := v.(model.UserProfile); ok {
			return p
		}
	}
	return model.UserProfile{}
}

func bindError(err error) error {
	return service.NewInvalidInputError(service.FieldError{Field: "body", Message: err.Error()})
}
