package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/maxviazov/pelada-service/internal/auth"
	"github.com/maxviazov/pelada-service/internal/config"
	"github.com/maxviazov/pelada-service/internal/handler"
	"github.com/maxviazov/pelada-service/internal/logger"
	"github.com/maxviazov/pelada-service/internal/realtime"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/maxviazov/pelada-service/internal/repository/memory"
	"github.com/maxviazov/pelada-service/internal/repository/postgres"
	"github.com/maxviazov/pelada-service/internal/service"
)

// stores is the repository set chosen by storage.driver.
type stores struct {
	players repository.PlayerRepository
	matches repository.MatchRepository
	users   repository.UserRepository
	pinger  repository.Pinger
	close   func()
}

func main() {
	configPath := "config.yaml"
	if p := os.Getenv("APP_CONFIG"); p != "" {
		configPath = p
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// run on defaults + env
		configPath = ""
	}

	// Load application config
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}
	appLogger.Info().Str("env", cfg.App.Env).Str("storage", cfg.Storage.Driver).Msg("✅ Config loaded")

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("service stopped with error")
	}
	appLogger.Info().Msg("👋 Service stopped")
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, &appLogger)
	if err != nil {
		return err
	}
	defer st.close()

	hub := realtime.NewHub(cfg.Cors.AllowedOrigins, appLogger)
	defer hub.Close()

	live := service.NewLive(nil)
	users := service.NewUserService(st.users, cfg.Auth.AdminUIDs, hub, appLogger)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.Register(engine, handler.Deps{
		Pinger:         st.pinger,
		Verifier:       auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Feed:           hub,
		Players:        service.NewPlayerService(st.players, hub, appLogger),
		Teams:          service.NewTeamService(st.players, live, hub, appLogger),
		Match:          service.NewMatchService(st.players, st.matches, live, nil, hub, appLogger),
		Voting:         service.NewVotingService(st.matches, st.players, nil, hub, appLogger),
		Stats:          service.NewStatsService(st.players, appLogger),
		Users:          users,
		Logger:         appLogger,
		RequestTimeout: cfg.App.RequestTimeout,
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Cors.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           c.Handler(engine),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info().Str("addr", srv.Addr).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		// websocket connections are hijacked, so Shutdown does not wait for them
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, appLogger *zerolog.Logger) (stores, error) {
	if cfg.Storage.Driver != config.DriverPostgres {
		m := memory.New()
		appLogger.Warn().Msg("using in-memory storage; data is lost on restart")
		return stores{players: m.Players(), matches: m.Matches(), users: m.Users(), pinger: m, close: func() {}}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres, appLogger)
	if err != nil {
		return stores{}, fmt.Errorf("postgres connection: %w", err)
	}
	if cfg.Postgres.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool, *appLogger); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("migrations: %w", err)
		}
	}
	return stores{
		players: postgres.NewPlayerRepository(pool),
		matches: postgres.NewMatchRepository(pool),
		users:   postgres.NewUserRepository(pool),
		pinger:  postgres.NewPinger(pool),
		close:   pool.Close,
	}, nil
}
