package cache

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/skuswap/backend/internal/domain/integration"
)

const (
	minLockPoll = 25 * time.Millisecond
	maxLockPoll = time.Second
)

var errLockHeld = errors.New("order lock held")

func lockBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minLockPoll
	b.MaxInterval = maxLockPoll
	b.Multiplier = 2
	return b
}

// waitForLock calls try with exponential backoff until it reports success.
// It gives up with ErrOrderLockTimeout once wait has elapsed and returns the
// caller's context error if that is cancelled first.
func waitForLock(ctx context.Context, wait time.Duration, try func() (bool, error)) error {
	waitCtx, cancel := context.WithTimeoutCause(ctx, wait, integration.ErrOrderLockTimeout)
	defer cancel()

	_, err := backoff.Retry(waitCtx, func() (struct{}, error) {
		ok, err := try()
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !ok {
			return struct{}{}, errLockHeld
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(lockBackOff()), backoff.WithMaxElapsedTime(0))

	if errors.Is(err, errLockHeld) {
		// The final attempt raced the deadline
		return integration.ErrOrderLockTimeout
	}
	return err
}
