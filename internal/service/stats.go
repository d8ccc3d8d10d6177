package service

import (
	"context"
	"time"

	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultRankingLimit caps each statistics ranking when no limit is requested.
const DefaultRankingLimit = 10

type statsService struct {
	players repository.PlayerRepository
	log     zerolog.Logger
}

func NewStatsService(players repository.PlayerRepository, logger zerolog.Logger) StatsService {
	l := logger.With().Str("module", "service").Str("component", "stats").Logger()
	return &statsService{players: players, log: l}
}

// Overview ranks active players by goals and active goalkeepers by saves. A spotlight is
// only set when its leader has a non-zero count.
func (s *statsService) Overview(ctx context.Context, limit int) (Statistics, error) {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	if limit > repository.MaxPageLimit {
		return Statistics{}, newInvalidInput([]FieldError{{Field: "limit", Message: "must be <= 200"}})
	}
	start := time.Now()

	var scorers, keepers []model.Player
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scorers, err = s.players.Ranking(gctx, model.StatGoals, repository.PlayerFilter{}, limit)
		return err
	})
	g.Go(func() error {
		var err error
		keepers, err = s.players.Ranking(gctx, model.StatSaves, repository.PlayerFilter{GoalkeepersOnly: true}, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Int("limit", limit).Msg("load rankings failed")
		return Statistics{}, err
	}

	out := Statistics{TopScorers: views(scorers), TopGoalkeepers: views(keepers)}
	if len(scorers) > 0 && scorers[0].Goals > 0 {
		v := scorers[0].View()
		out.TopScorer = &v
	}
	if len(keepers) > 0 && keepers[0].Saves > 0 {
		v := keepers[0].View()
		out.TopGoalkeeper = &v
	}
	s.log.Debug().Dur("took", time.Since(start)).Int("scorers", len(scorers)).Int("keepers", len(keepers)).Msg("statistics computed")
	return out, nil
}
