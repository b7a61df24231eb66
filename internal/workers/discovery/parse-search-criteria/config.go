// internal/workers/discovery/parse-search-criteria/config.go
package parsesearchcriteria

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
