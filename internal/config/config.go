package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress       string        `mapstructure:"SERVER_ADDRESS"`
	StoreBackend        string        `mapstructure:"STORE_BACKEND"`
	DBSource            string        `mapstructure:"DB_SOURCE"`
	FirestoreProjectID  string        `mapstructure:"FIRESTORE_PROJECT_ID"`
	FirebaseCredentials string        `mapstructure:"FIREBASE_CREDENTIALS"`
	ReportCollection    string        `mapstructure:"REPORT_COLLECTION"`
	ReportTitle         string        `mapstructure:"REPORT_TITLE"`
	RegionSpanMeters    float64       `mapstructure:"REGION_SPAN_METERS"`
	BackendTimeout      time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	RefreshSchedule     string        `mapstructure:"REFRESH_SCHEDULE"`
	ShutdownTimeout     time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	LogFormat           string        `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]interface{}{
	"SERVER_ADDRESS":       ":8080",
	"STORE_BACKEND":        BackendPostgres,
	"DB_SOURCE":            "",
	"FIRESTORE_PROJECT_ID": "",
	"FIREBASE_CREDENTIALS": "",
	"REPORT_COLLECTION":    "FloodingReport",
	"REPORT_TITLE":         "Flooding reported",
	"REGION_SPAN_METERS":   250.0,
	"BACKEND_TIMEOUT":      "10s",
	"REFRESH_SCHEDULE":     "",
	"SHUTDOWN_TIMEOUT":     "10s",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
}

// LoadConfig reads app.env from path, then environment variables. A .env.local
// next to app.env is loaded into the environment first when present.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env.local")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("config: failed to load .env.local: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: failed to decode config: %w", err)
	}

	config.StoreBackend = strings.ToLower(strings.TrimSpace(config.StoreBackend))
	return config, config.validate()
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DBSource == "" {
			return errors.New("config: DB_SOURCE is required for the postgres backend")
		}
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			return errors.New("config: FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.RegionSpanMeters <= 0 {
		return errors.New("config: REGION_SPAN_METERS must be positive")
	}
	if c.BackendTimeout <= 0 {
		return errors.New("config: BACKEND_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
