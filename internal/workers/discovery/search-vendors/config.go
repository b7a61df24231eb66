// internal/workers/discovery/search-vendors/config.go
package searchvendors

import (
	"time"

	"wedding-vendor-workers/internal/matching"
)

type Config struct {
	Timeout      time.Duration
	DistanceUnit matching.DistanceUnit
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DistanceUnit: matching.Miles,
	}
}
