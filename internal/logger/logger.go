package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type LoggerConfig struct {
	Level              string                 `json:"level,omitempty" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format             string                 `json:"format,omitempty" mapstructure:"format" validate:"oneof=json console"`
	OutputTarget       string                 `json:"outputTarget,omitempty" mapstructure:"output_target" validate:"oneof=stdout stderr"`
	TimeField          string                 `json:"timeField,omitempty" mapstructure:"time_field"`
	TimeFormat         string                 `json:"timeFormat,omitempty" mapstructure:"time_format" validate:"oneof=rfc3339 rfc3339nano unix unix_ms"`
	ServiceName        string                 `json:"serviceName,omitempty" mapstructure:"service_name"`
	ServiceVersion     string                 `json:"serviceVersion,omitempty" mapstructure:"service_version"`
	Env                string                 `json:"env,omitempty" mapstructure:"env" validate:"oneof=dev staging prod"`
	WithCaller         bool                   `json:"withCaller,omitempty" mapstructure:"with_caller"`
	Stacktrace         bool                   `json:"stacktrace,omitempty" mapstructure:"stacktrace"`
	StacktraceMinLevel string                 `json:"stacktraceMinLevel,omitempty" mapstructure:"stacktrace_min_level" validate:"oneof=debug info warn error fatal panic"`
	DebugFile          string                 `json:"debugFile,omitempty" mapstructure:"debug_file"`
	Fields             map[string]interface{} `json:"fields,omitempty" mapstructure:"fields"`

	// Out overrides OutputTarget; tests point it at a buffer.
	Out io.Writer `json:"-" mapstructure:"-" validate:"-"`
}

var timeFormats = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"unix":        zerolog.TimeFormatUnix,
	"unix_ms":     zerolog.TimeFormatUnixMs,
}

func New(logg *LoggerConfig) (logger zerolog.Logger, err error) {
	logg.setDefaults()

	v := validator.New()
	if err = v.Struct(logg); err != nil {
		return logger, fmt.Errorf("logger config validation error: %w", err)
	}

	zerolog.TimestampFieldName = logg.TimeField
	zerolog.TimeFieldFormat = timeFormats[logg.TimeFormat]

	logger = zerolog.New(logg.writer()).
		With().
		Timestamp().
		Str("service", logg.ServiceName).
		Str("version", logg.ServiceVersion).
		Str("env", logg.Env).
		Logger()

	if logg.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	if logg.Stacktrace {
		logger = logger.With().Stack().Logger()
	}
	if len(logg.Fields) > 0 {
		logger = logger.With().Fields(logg.Fields).Logger()
	}

	level, err := zerolog.ParseLevel(logg.Level)
	if err != nil {
		return logger, err
	}
	zerolog.SetGlobalLevel(level)

	return logger, nil
}

// writer picks the sink: JSON or console on the chosen stream, plus a debug file in dev+debug.
// A debug file that can't be opened is skipped rather than failing startup.
func (c *LoggerConfig) writer() io.Writer {
	out := c.Out
	if out == nil {
		out = os.Stdout
		if c.OutputTarget == "stderr" {
			out = os.Stderr
		}
	}
	if c.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormats[c.TimeFormat]}
	}

	if c.Env != "dev" || c.Level != "debug" || c.DebugFile == "" || c.Out != nil {
		return out
	}
	if err := os.MkdirAll(filepath.Dir(c.DebugFile), 0o755); err != nil {
		return out
	}
	file, err := os.OpenFile(c.DebugFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return out
	}
	return zerolog.MultiLevelWriter(out, file)
}

func (c *LoggerConfig) setDefaults() {
	if c.Env == "" {
		c.Env = "prod"
	}

	if c.Level == "" {
		if c.Env == "dev" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}

	if c.Format == "" {
		if c.Env == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}

	// dev goes to stderr so it doesn't mix with anything piped from stdout
	if c.OutputTarget == "" {
		if c.Env == "dev" {
			c.OutputTarget = "stderr"
		} else {
			c.OutputTarget = "stdout"
		}
	}

	if c.TimeField == "" {
		c.TimeField = "ts"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "rfc3339nano"
	}

	if !c.WithCaller && c.Env == "dev" {
		c.WithCaller = true
	}
	if !c.Stacktrace && c.Env != "dev" {
		c.Stacktrace = true
	}
	if c.StacktraceMinLevel == "" {
		c.StacktraceMinLevel = "error"
	}
	if c.DebugFile == "" && c.Env == "dev" {
		c.DebugFile = "logs/debug.log"
	}

	if c.ServiceName == "" {
		c.ServiceName = "pelada-service"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.1.0"
	}

	if c.Fields == nil {
		c.Fields = make(map[string]interface{})
	}
}
