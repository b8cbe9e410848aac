// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package classifier

import (
	"context"
	"time"
)

// Backoff calculates the delay before retrying after the specified number of
// failed attempts (starting with 0): base * 2^attempt, capped at limit. A
// non-positive limit means no cap.
func Backoff(base, limit time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 0; i < attempt; i++ {
		if limit > 0 && delay >= limit {
			break
		}
		delay *= 2
		if delay <= 0 { // overflow
			delay = time.Duration(1<<63 - 1)
			break
		}
	}
	if limit > 0 && delay > limit {
		delay = limit
	}
	return delay
}

// sleep for the specified duration, returning false if the context got
// cancelled in the meantime.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
