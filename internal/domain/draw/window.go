package draw

import (
	"fmt"
	"strconv"
	"time"
)

// WindowStart rounds t down to the cadence boundary in UTC. Concurrent
// callers within one boundary always land on the identical instant.
func WindowStart(t time.Time, cadence time.Duration) time.Time {
	if cadence <= 0 {
		cadence = time.Minute
	}
	return t.UTC().Truncate(cadence)
}

// WindowKey derives the lock/result key for the window containing t. The
// format ("YYYY-M-D-H-m", unpadded) is part of the persisted contract.
func WindowKey(t time.Time, cadence time.Duration) string {
	start := WindowStart(t, cadence)
	return fmt.Sprintf("%d-%d-%d-%d-%d",
		start.Year(), int(start.Month()), start.Day(), start.Hour(), start.Minute())
}

// ResultID returns the time-derived settlement result identifier for the
// window containing t: stable across retries of one window, monotonic
// across windows.
func ResultID(t time.Time, cadence time.Duration) string {
	return strconv.FormatInt(WindowStart(t, cadence).UnixMilli(), 10)
}
