package webhook

import "time"

// Config holds the collaborator endpoint settings. Delivery is disabled when URL is empty.
type Config struct {
	URL              string        `env:"EFFECTS_WEBHOOK_URL"`                                 // URL receives one POST per effect.
	Secret           string        `env:"EFFECTS_WEBHOOK_SECRET"`                              // Secret signs request bodies; empty disables signing.
	Timeout          time.Duration `env:"EFFECTS_WEBHOOK_TIMEOUT" envDefault:"10s"`            // Timeout bounds each attempt.
	MaxRetries       int           `env:"EFFECTS_WEBHOOK_MAX_RETRIES" envDefault:"3"`          // MaxRetries is the number of attempts after the first.
	RetryInterval    time.Duration `env:"EFFECTS_WEBHOOK_RETRY_INTERVAL" envDefault:"500ms"`   // RetryInterval is the first backoff step; it doubles per attempt.
	MaxRetryInterval time.Duration `env:"EFFECTS_WEBHOOK_MAX_RETRY_INTERVAL" envDefault:"30s"` // MaxRetryInterval caps the backoff.
	FailureThreshold int           `env:"EFFECTS_WEBHOOK_FAILURE_THRESHOLD" envDefault:"5"`    // FailureThreshold opens the circuit after this many failed deliveries in a row.
	RecoveryTimeout  time.Duration `env:"EFFECTS_WEBHOOK_RECOVERY_TIMEOUT" envDefault:"30s"`   // RecoveryTimeout is how long the circuit stays open.
}
