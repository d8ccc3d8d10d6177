package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// pgxLogger adapts zerolog.Logger to pgx's tracelog interface.
type pgxLogger struct {
	logger zerolog.Logger
}

// newPgxLogger tags the pgx component so SQL noise stays filterable.
func newPgxLogger(logger zerolog.Logger) *pgxLogger {
	return &pgxLogger{logger: logger.With().Str("module", "repository").Str("component", "pgx").Logger()}
}

// Log maps pgx levels to zerolog and lifts sql/args into dedicated fields.
func (l *pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var event *zerolog.Event
	switch level {
	case tracelog.LogLevelNone:
		return
	case tracelog.LogLevelTrace:
		event = l.logger.Trace()
	case tracelog.LogLevelDebug:
		event = l.logger.Debug()
	case tracelog.LogLevelInfo:
		event = l.logger.Info()
	case tracelog.LogLevelWarn:
		event = l.logger.Warn()
	case tracelog.LogLevelError:
		event = l.logger.Error()
	default:
		event = l.logger.Info().Str("pgx_log_level", level.String())
	}

	if s, ok := data["sql"].(string); ok {
		event = event.Str("sql", s)
		delete(data, "sql")
	}
	if args, ok := data["args"]; ok && level == tracelog.LogLevelTrace {
		event = event.Interface("args", args)
	}
	delete(data, "args")
	if d, ok := data["time"]; ok {
		event = event.Interface("elapsed", d)
		delete(data, "time")
	}

	if len(data) > 0 {
		event = event.Fields(data)
	}
	event.Msg(msg)
}
