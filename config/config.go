package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultSheetURL is the public CSV export of the complaints spreadsheet.
const DefaultSheetURL = "https://docs.google.com/spreadsheets/d/1MV2b4e3GNc_rhA32jeMuVNhUQWz6HkP7xrC42VscYIk/export?format=csv"

// Source kinds accepted in SOURCE_KIND.
const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

var tableNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SourceKind       string        `validate:"oneof=http file postgres"`
	SheetURL         string        `validate:"required,url"`
	SourceFile       string        `validate:"required_if=SourceKind file"`
	FetchTimeout     time.Duration `validate:"gt=0"`
	FetchMaxAttempts int           `validate:"min=1,max=10"`

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresTable    string `validate:"required_if=SourceKind postgres"`

	ServerHost       string
	ServerPort       int           `validate:"min=1,max=65535"`
	ReadTimeout      time.Duration `validate:"gt=0"`
	WriteTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout  time.Duration `validate:"gt=0"`
	CorsOrigins      []string
	ReloadRateLimit  int           `validate:"min=1"`
	ReloadRateWindow time.Duration `validate:"gt=0"`

	CSVOutputPath       string `validate:"required"`
	ShapefileOutputPath string `validate:"required"`
	SnapshotPath        string `validate:"required"`
	ChromeBin           string

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=console json"`
}

// Load reads the .env file and returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		SourceKind:       strings.ToLower(getEnv("SOURCE_KIND", SourceHTTP)),
		SheetURL:         getEnv("SHEET_URL", DefaultSheetURL),
		SourceFile:       getEnv("SOURCE_FILE", ""),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchMaxAttempts: getEnvInt("FETCH_MAX_ATTEMPTS", 1),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "denuncias"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "denuncias"),
		PostgresDB:       getEnv("POSTGRES_DB", "denuncias"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTable:    getEnv("POSTGRES_TABLE", "denuncias"),

		ServerHost:       getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:       getEnvInt("SERVER_PORT", 8080),
		ReadTimeout:      getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:     getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout:  getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		CorsOrigins:      getEnvSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		ReloadRateLimit:  getEnvInt("RELOAD_RATE_LIMIT", 5),
		ReloadRateWindow: getEnvDuration("RELOAD_RATE_WINDOW", time.Minute),

		CSVOutputPath:       getEnv("CSV_OUTPUT_PATH", "./output/denuncias.csv"),
		ShapefileOutputPath: getEnv("SHAPEFILE_OUTPUT_PATH", "./output/denuncias.shp"),
		SnapshotPath:        getEnv("SNAPSHOT_PATH", "./output/dashboard.png"),
		ChromeBin:           getEnv("CHROME_BIN", ""),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the postgres table identifier.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.SourceKind == SourcePostgres && !tableNameRegexp.MatchString(c.PostgresTable) {
		return fmt.Errorf("config: invalid POSTGRES_TABLE %q", c.PostgresTable)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
