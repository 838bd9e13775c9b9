// Package daemon manages the focusera server lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/tutu-network/focusera/internal/domain"
)

// Storage drivers for the profile store.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// Config holds all daemon configuration.
type Config struct {
	API           APIConfig           `toml:"api"`
	Storage       StorageConfig       `toml:"storage"`
	Auth          AuthConfig          `toml:"auth"`
	Notifications NotificationsConfig `toml:"notifications"`
	Progression   ProgressionConfig   `toml:"progression"`
	Telemetry     TelemetryConfig     `toml:"telemetry"`
	Logging       LoggingConfig       `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   float64  `toml:"rate_limit"` // requests per second per client, 0 disables
	RateBurst   int      `toml:"rate_burst"`
}

// StorageConfig selects where profiles live. The local SQLite database in
// Dir always exists and holds the notification outbox.
type StorageConfig struct {
	Driver              string `toml:"driver"`
	Dir                 string `toml:"dir"`
	PostgresURL         string `toml:"postgres_url"`
	MaxConns            int32  `toml:"max_conns"`
	MinConns            int32  `toml:"min_conns"`
	FirebaseProjectID   string `toml:"firebase_project_id"`
	FirebaseCredentials string `toml:"firebase_credentials"`
}

// AuthConfig controls request authentication.
type AuthConfig struct {
	ClerkSecretKey string `toml:"clerk_secret_key"`
}

// NotificationsConfig controls the notification policy and push delivery.
type NotificationsConfig struct {
	Enabled    bool   `toml:"enabled"`
	Push       bool   `toml:"push"`
	MaxPerDay  int    `toml:"max_per_day"`
	QuietStart string `toml:"quiet_start"`
	QuietEnd   string `toml:"quiet_end"`
}

// Policy returns the notification policy described by the config.
func (n NotificationsConfig) Policy() domain.NotificationPolicy {
	return domain.NotificationPolicy{
		MaxPerDay:  n.MaxPerDay,
		QuietStart: n.QuietStart,
		QuietEnd:   n.QuietEnd,
	}
}

// ProgressionConfig points at an operator catalog and the calendar zone.
type ProgressionConfig struct {
	CatalogFile string `toml:"catalog_file"` // empty uses the built-in catalog
	Timezone    string `toml:"timezone"`     // IANA name, empty uses the host zone
}

// Location resolves the configured time zone.
func (p ProgressionConfig) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// TelemetryConfig controls metrics and health checks.
type TelemetryConfig struct {
	Prometheus     bool   `toml:"prometheus"`
	HealthInterval string `toml:"health_interval"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	File string `toml:"file"` // also log here when set
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := focuseraHome()
	policy := domain.DefaultNotificationPolicy()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8420,
			CORSOrigins: []string{"*"},
			RateLimit:   5,
			RateBurst:   30,
		},
		Storage: StorageConfig{
			Driver:   DriverSQLite,
			Dir:      homeDir,
			MaxConns: 25,
			MinConns: 5,
		},
		Notifications: NotificationsConfig{
			Enabled:    true,
			MaxPerDay:  policy.MaxPerDay,
			QuietStart: policy.QuietStart,
			QuietEnd:   policy.QuietEnd,
		},
		Telemetry: TelemetryConfig{
			Prometheus:     true,
			HealthInterval: "60s",
		},
	}
}

// LoadConfig reads config from ~/.focusera/config.toml, falling back to
// defaults, then applies .env files and environment overrides.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(filepath.Join(focuseraHome(), "config.toml"))
}

// LoadConfigFrom reads the config file at path. A missing file is not an
// error.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotEnv loads each existing file. Variables already set in the
// environment win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("[daemon] load %s: %v", p, err)
		}
	}
}

// applyEnv overrides secrets and deployment settings from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.PostgresURL = v
	}
	if v := os.Getenv("FOCUSERA_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("CLERK_SECRET_KEY"); v != "" {
		cfg.Auth.ClerkSecretKey = v
	}
	if v := os.Getenv("FIREBASE_PROJECT_ID"); v != "" {
		cfg.Storage.FirebaseProjectID = v
	}
	if v := os.Getenv("FIREBASE_CREDENTIALS_FILE"); v != "" {
		cfg.Storage.FirebaseCredentials = v
	}
	if os.Getenv("FCM_SERVICE_ACCOUNT_JSON") != "" {
		cfg.Notifications.Push = true
	}
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.API.Port = port
		}
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			errs = append(errs, errors.New("storage.postgres_url (or DATABASE_URL) is required for the postgres driver"))
		}
	case DriverFirestore:
		if c.Storage.FirebaseProjectID == "" {
			errs = append(errs, errors.New("storage.firebase_project_id (or FIREBASE_PROJECT_ID) is required for the firestore driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.Notifications.MaxPerDay < 0 {
		errs = append(errs, errors.New("notifications.max_per_day must not be negative"))
	}
	if _, err := c.Progression.Location(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveConfig writes the config to ~/.focusera/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(focuseraHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// focuseraHome returns the focusera data directory.
func focuseraHome() string {
	if env := os.Getenv("FOCUSERA_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".focusera")
}

// Home is exported for use by other packages.
func Home() string {
	return focuseraHome()
}
