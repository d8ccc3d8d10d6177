package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/maxviazov/pelada-service/internal/config"
	"github.com/maxviazov/pelada-service/internal/model"
)

func TestDSN_EscapesCredentials(t *testing.T) {
	dsn := DSN(config.PostgresConfig{
		Host: "db", Port: 5433, User: "pel@da", Password: "p/ss word", DBName: "pelada", SSLMode: "require",
	})
	assert.Equal(t, "postgres://pel%40da:p%2Fss%20word@db:5433/pelada?sslmode=require", dsn)
}

func TestTraceLevel(t *testing.T) {
	assert.Equal(t, tracelog.LogLevelTrace, traceLevel(zerolog.TraceLevel))
	assert.Equal(t, tracelog.LogLevelDebug, traceLevel(zerolog.DebugLevel))
	assert.Equal(t, tracelog.LogLevelInfo, traceLevel(zerolog.InfoLevel))
	assert.Equal(t, tracelog.LogLevelWarn, traceLevel(zerolog.WarnLevel))
	assert.Equal(t, tracelog.LogLevelError, traceLevel(zerolog.ErrorLevel))
}

func TestStatColumn(t *testing.T) {
	col, err := statColumn(model.StatSaves)
	assert.NoError(t, err)
	assert.Equal(t, "saves", col)
	_, err = statColumn(model.StatKind("fouls; DROP TABLE players"))
	assert.Error(t, err)
}
