package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"slidecast/internal/logging"
	"slidecast/internal/services"
)

// Gate coordinates rate-limit cooldowns across synthesis workers. The limit
// belongs to the shared external API, not to a single worker: when one call
// is told to back off, every worker holds until the reset time passes.
type Gate struct {
	limiter *rate.Limiter

	mu        sync.Mutex
	notBefore time.Time
}

// NewGate builds a gate. A positive minInterval additionally paces calls so
// parallel workers cannot burst the endpoint between cooldowns.
func NewGate(minInterval time.Duration) *Gate {
	gate := &Gate{}
	if minInterval > 0 {
		gate.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return gate
}

// Wait blocks until any active cooldown has elapsed and a pacing slot is
// available.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	wait := time.Until(g.notBefore)
	g.mu.Unlock()
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if g.limiter != nil {
		return g.limiter.Wait(ctx)
	}
	return nil
}

// SuspendFor extends the cooldown so no worker calls the API again before it
// expires. Overlapping suspensions keep the latest deadline.
func (g *Gate) SuspendFor(wait time.Duration) {
	if g == nil || wait <= 0 {
		return
	}
	deadline := time.Now().Add(wait)
	g.mu.Lock()
	if deadline.After(g.notBefore) {
		g.notBefore = deadline
	}
	g.mu.Unlock()
}

// SynthesizerOption customizes the retry wrapper.
type SynthesizerOption func(*Synthesizer)

// WithMaxAttempts overrides the attempt ceiling (defaults to 5). Rate limits
// are retried only up to this bound; a persistently throttled endpoint must
// surface as a failure rather than starve the run.
func WithMaxAttempts(attempts int) SynthesizerOption {
	return func(s *Synthesizer) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithSleeper overrides how retry waits are performed (used in tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) SynthesizerOption {
	return func(s *Synthesizer) {
		if sleeper != nil {
			s.sleeper = sleeper
		}
	}
}

// WithGate attaches a shared cooldown gate.
func WithGate(gate *Gate) SynthesizerOption {
	return func(s *Synthesizer) {
		s.gate = gate
	}
}

// WithLogger attaches a logger for backoff visibility.
func WithLogger(logger *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

const defaultMaxAttempts = 5

// Synthesizer wraps a backend Client with the rate-limit retry protocol:
// wait exactly as long as the reset hint says, then re-invoke the whole
// synthesis call. Errors other than rate limits propagate immediately.
type Synthesizer struct {
	client      Client
	maxAttempts int
	gate        *Gate
	sleeper     func(context.Context, time.Duration) error
	logger      *slog.Logger
}

// NewSynthesizer wraps the backend client.
func NewSynthesizer(client Client, opts ...SynthesizerOption) (*Synthesizer, error) {
	if client == nil {
		return nil, errors.New("tts client required")
	}
	synth := &Synthesizer{
		client:      client,
		maxAttempts: defaultMaxAttempts,
		sleeper:     sleepContext,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(synth)
	}
	return synth, nil
}

// Backend returns the name of the wrapped client.
func (s *Synthesizer) Backend() string { return s.client.Name() }

// Synthesize runs the backend call under the retry protocol.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := s.gate.Wait(ctx); err != nil {
			return Audio{}, err
		}

		audio, err := s.client.Synthesize(ctx, text)
		if err == nil {
			return audio, nil
		}

		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			return Audio{}, err
		}
		lastErr = err

		if attempt == s.maxAttempts {
			break
		}
		s.logger.Info("rate limit exceeded, waiting before retry",
			logging.Duration("wait", rateErr.Wait),
			logging.Int("attempt", attempt),
			logging.String("backend", s.client.Name()),
		)
		s.gate.SuspendFor(rateErr.Wait)
		if err := s.sleeper(ctx, rateErr.Wait); err != nil {
			return Audio{}, err
		}
	}
	return Audio{}, services.Wrap(services.ErrRateLimited, "narrate", "synthesize",
		fmt.Sprintf("gave up after %d attempts", s.maxAttempts), lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
