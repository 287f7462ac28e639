// package counters provides expiring integer counters used to
// track the outcomes of bundle items per upstream host
package counters

import (
	"context"
	"time"
)

// Counters is a store of named integer counters.
// Every increment pushes the counter's expiry out by window,
// a counter that is not incremented within window disappears.
type Counters interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Get returns 0 for counters that do not exist
	Get(ctx context.Context, key string) (int64, error)
	Healthcheck(ctx context.Context) error
}
