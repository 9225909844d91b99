package config

import "time"

// Redis is optional: an empty URL disables the statistics cache.
type Redis struct {
	URL           string        `env:"REDIS_URL"`
	StatisticsTTL time.Duration `env:"REDIS_STATISTICS_TTL" envDefault:"30s"`
}
