package locker

import "time"

// Config holds settings for RedisLocker.
type Config struct {
	Prefix        string        `env:"LOCK_PREFIX" envDefault:"leagueflow:lock:"` // Prefix is prepended to every key stored in Redis.
	TTL           time.Duration `env:"LOCK_TTL" envDefault:"10s"`                 // TTL bounds how long a crashed holder can block others.
	RetryInterval time.Duration `env:"LOCK_RETRY_INTERVAL" envDefault:"20ms"`     // RetryInterval is the pause between SET NX attempts.
}

// DefaultConfig returns the defaults used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		Prefix:        "leagueflow:lock:",
		TTL:           10 * time.Second,
		RetryInterval: 20 * time.Millisecond,
	}
}
