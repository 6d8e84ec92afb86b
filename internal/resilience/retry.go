package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/labelwise/labelwise/pkg/errors"
)

// Retry re-invokes fn on transient failures only (timeouts, upstream 5xx,
// upstream 429), up to maxRetries additional attempts, sleeping an
// exponentially growing, jittered interval between attempts. Any other
// failure returns immediately, as retrying a 404 or a parse error cannot
// succeed.
func Retry(ctx context.Context, maxRetries int, initial time.Duration, fn func(context.Context) error) error {
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.RandomizationFactor = 0.5
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0 // bounded by attempt count and ctx, not wall time
	bo.Reset()

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !errors.IsTransient(errors.GetCode(err)) {
			return err
		}
		select {
		case <-time.After(bo.NextBackOff()):
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.CodeTimeout, "call deadline reached while waiting to retry")
		}
	}
}
