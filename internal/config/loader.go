package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the yaml config at path (optional) and overlays APP_* environment variables.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks every section that applies to the selected storage driver.
// The logger section is validated by logger.New.
func (c *Config) Validate() error {
	v := validator.New()
	sections := []any{c.App, c.Storage, c.Auth}
	if c.Storage.Driver == DriverPostgres {
		sections = append(sections, c.Postgres)
	}
	for _, s := range sections {
		if err := v.Struct(s); err != nil {
			return fmt.Errorf("config validation error: %w", err)
		}
	}
	return nil
}

// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pelada-service")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", 5*time.Second)
	v.SetDefault("app.request_timeout", 5*time.Second)

	v.SetDefault("logger.level", "")
	v.SetDefault("logger.format", "")
	v.SetDefault("logger.output_target", "")
	v.SetDefault("logger.env", "")
	v.SetDefault("logger.service_name", "")

	v.SetDefault("storage.driver", DriverMemory)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "pelada")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)
	v.SetDefault("postgres.migrate_on_start", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.admin_uids", []string{})

	v.SetDefault("cors.allowed_origins", []string{"*"})
}
