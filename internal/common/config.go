package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Renderer methods.
const (
	RendererPdftotext = "pdftotext"
	RendererNative    = "native"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Renderer RendererConfig
	Export   ExportConfig
	Watch    WatchConfig
	Queue    QueueConfig
	Log      LogConfig
}

// DatabaseConfig holds run-history database configuration. An empty DSN disables run history.
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr         string `validate:"required"`
	EnableReflection bool
	RateLimit        float64 `validate:"gte=0"` // requests per second, 0 disables
	RateBurst        int     `validate:"gte=0"`
}

// RendererConfig selects how PDF pages are turned into text.
type RendererConfig struct {
	Method    string `validate:"oneof=pdftotext native"`
	Pdftotext string `validate:"required"`
	Layout    bool
	MaxPages  int           `validate:"gte=0"`
	Timeout   time.Duration `validate:"gte=0"`
}

// ExportConfig controls where and how extracted rows are written.
type ExportConfig struct {
	Dir    string `validate:"required"`
	Format string `validate:"oneof=xlsx json"`
}

// WatchConfig enables the inbox watcher of the daemon.
type WatchConfig struct {
	Enabled  bool
	Dir      string        `validate:"required_if=Enabled true"`
	Platform string        `validate:"required_if=Enabled true"`
	Debounce time.Duration `validate:"gte=0"`
	Rescan   string        // cron spec for a periodic full scan of Dir, e.g. "@every 10m"
}

// QueueConfig sizes the background worker queue.
type QueueConfig struct {
	Workers        int           `validate:"gt=0"`
	Size           int           `validate:"gt=0"`
	ProcessTimeout time.Duration `validate:"gte=0"`
}

// LogConfig selects the slog handler of the commands.
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:         getEnv("GRPC_ADDR", ":8080"),
			EnableReflection: getEnvAsBool("GRPC_REFLECTION", true),
			RateLimit:        getEnvAsFloat("GRPC_RATE_LIMIT", 0),
			RateBurst:        getEnvAsInt("GRPC_RATE_BURST", 10),
		},
		Renderer: RendererConfig{
			Method:    strings.ToLower(getEnv("RENDERER", RendererPdftotext)),
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Layout:    getEnvAsBool("PDFTOTEXT_LAYOUT", false),
			MaxPages:  getEnvAsInt("RENDERER_MAX_PAGES", 0),
			Timeout:   getEnvAsDuration("RENDERER_TIMEOUT", time.Minute),
		},
		Export: ExportConfig{
			Dir:    getEnv("EXPORT_DIR", "./out"),
			Format: strings.ToLower(getEnv("EXPORT_FORMAT", FormatXLSX)),
		},
		Watch: WatchConfig{
			Enabled:  getEnvAsBool("WATCH_ENABLED", false),
			Dir:      getEnv("WATCH_DIR", "./inbox"),
			Platform: getEnv("WATCH_PLATFORM", ""),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 750*time.Millisecond),
			Rescan:   getEnv("WATCH_RESCAN", ""),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 2),
			Size:           getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", 2*time.Minute),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", LogText)),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration against the struct tags and the rescan schedule.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := fmt.Sprintf("%s: failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			return NewAppError("CONFIG_ERROR", msg, ErrInvalidInput)
		}
		return NewAppError("CONFIG_ERROR", err.Error(), ErrInvalidInput)
	}
	if c.Watch.Rescan != "" {
		if _, err := cron.ParseStandard(c.Watch.Rescan); err != nil {
			return NewAppError("CONFIG_ERROR", "WATCH_RESCAN is not a valid schedule", errors.Join(ErrInvalidInput, err))
		}
	}
	return nil
}
