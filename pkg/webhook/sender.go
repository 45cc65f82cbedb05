package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/workflow"
)

// Sender delivers effect envelopes to one collaborator endpoint.
// The envelope id travels in HeaderDeliveryID so receivers can drop redeliveries.
type Sender struct {
	url     string
	secret  string
	client  *http.Client
	timeout time.Duration
	retries int
	backoff func(attempt int) time.Duration
	breaker *CircuitBreaker
	clock   func() time.Time
	log     *slog.Logger
}

const maxErrorBody = 200

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) {
		if c != nil {
			s.client = c
		}
	}
}

// WithClock overrides the time source used for signatures and the breaker.
func WithClock(clock func() time.Time) Option {
	return func(s *Sender) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.log = l
		}
	}
}

// New validates cfg and returns a sender for cfg.URL.
func New(cfg Config, opts ...Option) (*Sender, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfiguration, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: url must be absolute http(s), got '%s'", ErrInvalidConfiguration, cfg.URL)
	}

	s := &Sender{
		url:     cfg.URL,
		secret:  cfg.Secret,
		client:  &http.Client{},
		timeout: cfg.Timeout,
		retries: max(cfg.MaxRetries, 0),
		backoff: exponential(cfg.RetryInterval, cfg.MaxRetryInterval),
		clock:   time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	s.breaker = NewCircuitBreaker(cfg.FailureThreshold, cfg.RecoveryTimeout, s.clock)
	s.log = s.log.With(logger.Component("webhook"))
	return s, nil
}

// Breaker exposes the endpoint's circuit breaker.
func (s *Sender) Breaker() *CircuitBreaker {
	return s.breaker
}

// Deliver POSTs env as JSON, retrying transient failures with exponential
// backoff. 4xx responses other than 408, 425 and 429 are permanent.
// Its signature matches dispatch.Handler.
func (s *Sender) Deliver(ctx context.Context, env workflow.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", env.Kind, err)
	}
	if !s.breaker.Allow() {
		return ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				s.breaker.Record(false)
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(s.backoff(attempt)):
			}
		}

		status, err := s.attempt(ctx, env, body)
		if err == nil {
			s.breaker.Record(true)
			return nil
		}
		lastErr = err

		s.log.WarnContext(ctx, "effect delivery attempt failed",
			logger.MessageID(env.ID.String()),
			logger.EffectKind(env.Kind),
			slog.Int("attempt", attempt+1),
			slog.Int("status", status),
			logger.Error(err),
		)

		if permanent(status) {
			s.breaker.Record(false)
			return errors.Join(ErrPermanentFailure, err)
		}
	}

	s.breaker.Record(false)
	return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, s.retries+1, lastErr)
}

func (s *Sender) attempt(ctx context.Context, env workflow.Envelope, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	now := s.clock()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "leagueflow-webhook/1.0")
	req.Header.Set(HeaderDeliveryID, env.ID.String())
	req.Header.Set(HeaderEffect, env.Kind)
	req.Header.Set(HeaderTimestamp, fmt.Sprint(now.Unix()))
	if s.secret != "" {
		req.Header.Set(HeaderSignature, Sign(s.secret, now, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return resp.StatusCode, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(strings.ReplaceAll(string(msg), "\n", " "))
	if text == "" {
		return resp.StatusCode, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, text)
}

func permanent(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}

func exponential(initial, limit time.Duration) func(int) time.Duration {
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	if limit < initial {
		limit = initial
	}
	return func(attempt int) time.Duration {
		d := initial
		for i := 1; i < attempt && d < limit; i++ {
			d *= 2
		}
		return min(d, limit)
	}
}
