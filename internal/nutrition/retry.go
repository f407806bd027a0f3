package nutrition

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Retry policy defaults. Every gateway operation retries up to MaxRetries
// times with delays 2s, 4s, 8s, 16s, 32s. All failures are treated as
// potentially transient; the quota classification only changes the final
// error, not retry eligibility.
const (
	DefaultMaxRetries      = 5
	DefaultInitialInterval = 2 * time.Second
	DefaultMultiplier      = 2.0
)

// RetryPolicy retries an operation with a fixed exponential delay ladder.
// The loop is explicit (attempt counter + delay source) so behavior is
// deterministic; cenkalti/backoff supplies the schedule.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64

	// Sleep waits for d or until ctx is done. Overridable in tests.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger zerolog.Logger
}

// DefaultRetryPolicy returns the gateway's standard policy.
func DefaultRetryPolicy(log zerolog.Logger) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: DefaultInitialInterval,
		Multiplier:      DefaultMultiplier,
		Sleep:           sleepCtx,
		Logger:          log,
	}
}

// Do runs op, retrying on any error until MaxRetries is exhausted. When
// retries run out the error is ErrOverloaded if the last failure was
// quota-class, otherwise the last error itself.
func (p RetryPolicy) Do(ctx context.Context, operation string, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.Multiplier = p.Multiplier
	bo.RandomizationFactor = 0
	bo.MaxInterval = 1 << 62 // never cap within the ladder
	bo.MaxElapsedTime = 0
	bo.Reset()

	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt >= p.MaxRetries {
			break
		}

		delay := bo.NextBackOff()
		p.Logger.Warn().
			Str("operation", operation).
			Int("attempt", attempt+1).
			Bool("quota_class", IsQuotaError(lastErr)).
			Dur("delay", delay).
			Err(lastErr).
			Msg("generation call failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	p.Logger.Error().
		Str("operation", operation).
		Err(lastErr).
		Msg("generation retries exhausted")

	if IsQuotaError(lastErr) {
		return ErrOverloaded
	}
	return lastErr
}

// MaxElapsed returns the worst-case wall time for one call under this
// policy: every attempt spending perAttempt, plus the full delay ladder.
func (p RetryPolicy) MaxElapsed(perAttempt time.Duration) time.Duration {
	total := time.Duration(p.MaxRetries+1) * perAttempt
	delay := p.InitialInterval
	for i := 0; i < p.MaxRetries; i++ {
		total += delay
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return total
}

// sleepCtx waits for d unless the context finishes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
