// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Matching MatchingConfig          `mapstructure:"matching"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MatchingConfig is the tuning surface of the discovery engine. It is copied
// into an immutable matching.ScoringConfig at startup; workers never read it
// directly during scoring.
type MatchingConfig struct {
	BudgetWeight         float64 `mapstructure:"budget_weight"`
	StyleWeight          float64 `mapstructure:"style_weight"`
	LocationWeight       float64 `mapstructure:"location_weight"`
	RatingWeight         float64 `mapstructure:"rating_weight"`
	AvailabilityWeight   float64 `mapstructure:"availability_weight"`
	PopularityWeight     float64 `mapstructure:"popularity_weight"`
	NeutralMidpoint      int     `mapstructure:"neutral_midpoint"`
	TierPenalty          int     `mapstructure:"tier_penalty"`
	MaxUsefulRadius      float64 `mapstructure:"max_useful_radius"`
	PopularitySaturation int     `mapstructure:"popularity_saturation"`
	DistanceUnit         string  `mapstructure:"distance_unit"` // miles | km
	CacheTTLDays         int     `mapstructure:"cache_ttl_days"`
	ScoringPoolSize      int     `mapstructure:"scoring_pool_size"`
	ProfileCacheTTL      int     `mapstructure:"profile_cache_ttl"` // seconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
