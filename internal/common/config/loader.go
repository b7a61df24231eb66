// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored if not present
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from several locations so workers and tests behave
// the same regardless of working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "wedding-vendor-workers"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Camunda.BrokerAddress == "" {
		cfg.Camunda.BrokerAddress = "localhost:26500"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 32
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	m := &cfg.Matching
	if m.BudgetWeight == 0 && m.StyleWeight == 0 && m.LocationWeight == 0 &&
		m.RatingWeight == 0 && m.AvailabilityWeight == 0 && m.PopularityWeight == 0 {
		m.BudgetWeight = 0.25
		m.StyleWeight = 0.20
		m.LocationWeight = 0.20
		m.RatingWeight = 0.20
		m.AvailabilityWeight = 0.10
		m.PopularityWeight = 0.05
	}
	if m.NeutralMidpoint == 0 {
		m.NeutralMidpoint = 50
	}
	if m.TierPenalty == 0 {
		m.TierPenalty = 25
	}
	if m.MaxUsefulRadius == 0 {
		m.MaxUsefulRadius = 50
	}
	if m.PopularitySaturation == 0 {
		m.PopularitySaturation = 200
	}
	if m.DistanceUnit == "" {
		m.DistanceUnit = "miles"
	}
	if m.CacheTTLDays == 0 {
		m.CacheTTLDays = 30
	}
	if m.ProfileCacheTTL == 0 {
		m.ProfileCacheTTL = 600
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}

	sum := cfg.Matching.BudgetWeight + cfg.Matching.StyleWeight + cfg.Matching.LocationWeight +
		cfg.Matching.RatingWeight + cfg.Matching.AvailabilityWeight + cfg.Matching.PopularityWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("matching weights must sum to 1.0, got %v", sum)
	}

	if u := cfg.Matching.DistanceUnit; u != "miles" && u != "km" {
		return fmt.Errorf("matching.distance_unit must be miles or km, got %q", u)
	}

	return nil
}
