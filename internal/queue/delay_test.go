package queue

import (
	"testing"
	"time"
)

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		want  time.Duration
		wait  bool
	}{
		{"due now", 0, 0, false},
		{"overdue", -time.Hour, 0, false},
		{"below smallest bucket", 20 * time.Second, time.Minute, true},
		{"exact bucket", time.Hour, time.Hour, true},
		{"between buckets", 90 * time.Minute, time.Hour, true},
		{"beyond largest bucket", 7 * 24 * time.Hour, 24 * time.Hour, true},
	}
	for _, tt := range tests {
		got, wait := bucketFor(tt.delay)
		if wait != tt.wait || got != tt.want {
			t.Fatalf("%s: bucketFor(%s)=(%s,%v) want=(%s,%v)",
				tt.name, tt.delay, got, wait, tt.want, tt.wait)
		}
	}
}

// A bucket longer than the remaining delay would surface the job after its
// fire time was already handled by a shorter path, but more importantly a
// bucket is the one hop the job sleeps before it is re-checked: it must
// never exceed the remaining delay once the delay is at least the smallest
// bucket, or jobs would drift past their fire time in a single hop.
func TestBucketForNeverExceedsRemaining(t *testing.T) {
	delays := []time.Duration{
		time.Minute,
		5 * time.Minute,
		3 * time.Hour,
		30 * time.Hour,
		10 * 24 * time.Hour,
	}
	for _, delay := range delays {
		b, wait := bucketFor(delay)
		if !wait || b > delay {
			t.Fatalf("bucketFor(%s)=(%s,%v); bucket must not exceed the remaining delay", delay, b, wait)
		}
	}
}

// Jobs of different lengths share the ladder without interfering: each
// converges to its own fire time through queue-level TTL hops, firing at
// or after the fire time and at most one smallest bucket late. A one-day
// job therefore never waits behind a seven-day job the way it would with
// per-message TTLs on a single shared queue.
func TestDelayLadderConvergence(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		delay time.Duration
	}{
		{"ninety minutes", 90 * time.Minute},
		{"one day", 24 * time.Hour},
		{"seven days", 7 * 24 * time.Hour},
		{"odd remainder", 24*time.Hour + 37*time.Minute + 12*time.Second},
	}
	for _, tt := range tests {
		fireAt := start.Add(tt.delay)
		now := start
		for hops := 0; ; hops++ {
			if hops > 50 {
				t.Fatalf("%s: job did not converge", tt.name)
			}
			bucket, wait := bucketFor(fireAt.Sub(now))
			if !wait {
				break
			}
			// The queue-level TTL surfaces the job one bucket later.
			now = now.Add(bucket)
		}
		if now.Before(fireAt) {
			t.Fatalf("%s: job fired early at %v (fire time %v)", tt.name, now, fireAt)
		}
		if late := now.Sub(fireAt); late > delayBuckets[0] {
			t.Fatalf("%s: job fired %s late, want within %s", tt.name, late, delayBuckets[0])
		}
	}
}

func TestRemainingDelay(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := remainingDelay(now.Add(time.Hour).Format(time.RFC3339), now); got != time.Hour {
		t.Fatalf("future fire time: got %s want 1h", got)
	}
	if got := remainingDelay(now.Add(-time.Minute).Format(time.RFC3339), now); got > 0 {
		t.Fatalf("past fire time must be due, got %s", got)
	}
	if got := remainingDelay("not-a-timestamp", now); got != 0 {
		t.Fatalf("unparseable fire time must be due now, got %s", got)
	}
	if got := remainingDelay("", now); got != 0 {
		t.Fatalf("missing fire time must be due now, got %s", got)
	}
}
