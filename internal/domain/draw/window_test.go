package draw

import (
	"testing"
	"time"
)

func TestWindowKeyStableWithinWindow(t *testing.T) {
	t.Parallel()

	early := time.Date(2026, 8, 31, 10, 15, 0, 0, time.UTC)
	late := time.Date(2026, 8, 31, 10, 15, 59, 999_000_000, time.UTC)

	if WindowKey(early, time.Minute) != WindowKey(late, time.Minute) {
		t.Fatalf("keys differ within one window: %s vs %s",
			WindowKey(early, time.Minute), WindowKey(late, time.Minute))
	}
	if got, want := WindowKey(early, time.Minute), "2026-8-31-10-15"; got != want {
		t.Fatalf("WindowKey = %s, want %s", got, want)
	}
}

func TestWindowKeyChangesAtBoundary(t *testing.T) {
	t.Parallel()

	before := time.Date(2026, 8, 31, 10, 15, 59, 0, time.UTC)
	after := before.Add(time.Second)

	if WindowKey(before, time.Minute) == WindowKey(after, time.Minute) {
		t.Fatalf("key did not change across boundary: %s", WindowKey(after, time.Minute))
	}
}

func TestWindowKeyNormalizesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+7", 7*60*60)
	local := time.Date(2026, 8, 31, 17, 15, 30, 0, loc)
	utc := local.UTC()

	if WindowKey(local, time.Minute) != WindowKey(utc, time.Minute) {
		t.Fatalf("local and UTC instants map to different keys: %s vs %s",
			WindowKey(local, time.Minute), WindowKey(utc, time.Minute))
	}
}

func TestResultIDStableAndMonotonic(t *testing.T) {
	t.Parallel()

	first := time.Date(2026, 8, 31, 10, 15, 10, 0, time.UTC)
	retry := first.Add(20 * time.Second)
	next := first.Add(time.Minute)

	if ResultID(first, time.Minute) != ResultID(retry, time.Minute) {
		t.Fatalf("result id changed within a window: %s vs %s",
			ResultID(first, time.Minute), ResultID(retry, time.Minute))
	}
	if ResultID(first, time.Minute) >= ResultID(next, time.Minute) {
		t.Fatalf("result id not monotonic across windows: %s vs %s",
			ResultID(first, time.Minute), ResultID(next, time.Minute))
	}
}

func TestWindowStartDefaultsCadence(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 31, 10, 15, 42, 0, time.UTC)
	want := time.Date(2026, 8, 31, 10, 15, 0, 0, time.UTC)
	if got := WindowStart(at, 0); !got.Equal(want) {
		t.Fatalf("WindowStart with zero cadence = %v, want %v", got, want)
	}
}
