package webhook

import "errors"

var (
	ErrDeliveryFailed       = errors.New("effect delivery failed")
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrPermanentFailure     = errors.New("permanent delivery failure")
	ErrCircuitOpen          = errors.New("webhook circuit breaker is open")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
)

// IsCircuitOpen reports whether err was returned because the endpoint is
// currently considered down.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
