package outbox

import (
	"math/rand"
	"time"
)

const maxBackoffShift = 30

// NextDelay computes the retry delay after the given number of attempts:
// base * 2^attempt capped at max, with equal jitter so concurrent retries
// do not synchronize. The result is always in [d/2, d] for the capped d.
func NextDelay(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = 5 * time.Minute
	}
	if attempt < 0 {
		attempt = 0
	} else if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}

	d := base << uint(attempt)
	if d <= 0 || d > max {
		d = max
	}

	half := d / 2

	return half + time.Duration(rand.Int63n(int64(half)+1))
}
