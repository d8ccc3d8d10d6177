package config

import (
	"time"

	"github.com/maxviazov/pelada-service/internal/logger"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Storage  StorageConfig       `mapstructure:"storage"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	Auth     AuthConfig          `mapstructure:"auth"`
	Cors     CorsConfig          `mapstructure:"cors"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name" validate:"required"`
	Env             string        `mapstructure:"env" validate:"oneof=dev staging prod"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory postgres"`
}

// PostgresConfig is only validated when the storage driver is postgres.
// Durations in seconds, the way pgxpool tuning is usually written in yaml.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"min=1,max=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"gte=0"`
	MinConns          int32  `mapstructure:"min_conns" validate:"gte=0"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime" validate:"gte=0"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time" validate:"gte=0"`
	HealthCheckPeriod int    `mapstructure:"health_check_period" validate:"gte=0"`
	MigrateOnStart    bool   `mapstructure:"migrate_on_start"`
}

type AuthConfig struct {
	JWTSecret string   `mapstructure:"jwt_secret" validate:"required,min=16"`
	Issuer    string   `mapstructure:"issuer"`
	AdminUIDs []string `mapstructure:"admin_uids"`
}

type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
