package syncer

import (
	"math/rand"
	"time"
)

// maxExponent keeps 2^attempts from overflowing; anything this large is
// already past every realistic cap.
const maxExponent = 30

// Backoff computes the retry delay for the given attempt count: 2^attempts
// seconds capped at max, plus jitter. Jitter spreads retries so tasks that
// failed together do not all come back at once.
func Backoff(attempts int, max time.Duration, jitter func() time.Duration) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	delay := max
	if attempts <= maxExponent {
		exponential := time.Duration(1<<uint(attempts)) * time.Second
		if exponential < max {
			delay = exponential
		}
	}
	if jitter != nil {
		delay += jitter()
	}
	return delay
}

// defaultJitter returns a random duration in [0, 1s).
func defaultJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(time.Second)))
}
