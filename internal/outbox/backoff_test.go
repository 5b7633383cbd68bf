package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDelayBounds(t *testing.T) {
	base := time.Second
	max := 5 * time.Minute

	for attempt := 0; attempt <= 12; attempt++ {
		full := base << uint(attempt)
		if full <= 0 || full > max {
			full = max
		}

		// jittered result is always in [full/2, full]
		for i := 0; i < 50; i++ {
			d := NextDelay(base, max, attempt)
			assert.GreaterOrEqual(t, d, full/2, "attempt %d", attempt)
			assert.LessOrEqual(t, d, full, "attempt %d", attempt)
		}
	}
}

func TestNextDelayCaps(t *testing.T) {
	max := 2 * time.Minute

	d := NextDelay(time.Second, max, 60)
	assert.LessOrEqual(t, d, max)
	assert.GreaterOrEqual(t, d, max/2)
}

func TestNextDelayDefaults(t *testing.T) {
	// zero config falls back to 1s base / 5m cap
	d := NextDelay(0, 0, 0)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, time.Second)

	// negative attempts treated as zero
	d = NextDelay(time.Second, time.Minute, -3)
	assert.LessOrEqual(t, d, time.Second)
}
