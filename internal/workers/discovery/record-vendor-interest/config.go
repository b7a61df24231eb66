// internal/workers/discovery/record-vendor-interest/config.go
package recordvendorinterest

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
