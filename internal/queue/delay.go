package queue

import (
	"fmt"
	"time"
)

// delayBuckets is the ladder of wait queues for delayed close jobs. Every
// bucket is a durable queue with a uniform queue-level TTL that
// dead-letters into auction.close. The TTL must be uniform per queue: the
// broker only evaluates expiry on the head message, so mixing per-message
// TTLs in one queue would hold a short job hostage behind a longer one.
// A job whose remaining delay exceeds its bucket surfaces early and is put
// back on the ladder with the remaining delay until its fire time is due.
var delayBuckets = []time.Duration{
	time.Minute,
	10 * time.Minute,
	time.Hour,
	6 * time.Hour,
	24 * time.Hour,
}

// bucketFor picks the wait bucket for a remaining delay: the largest
// bucket not exceeding it, so a job never overshoots its fire time inside
// a single hop. Delays shorter than every bucket take the smallest one
// (the consumer re-checks the fire time on arrival, so the job runs at
// most one small bucket late, never early). Non-positive delays report
// wait=false: the job is due now.
func bucketFor(delay time.Duration) (bucket time.Duration, wait bool) {
	if delay <= 0 {
		return 0, false
	}
	bucket = delayBuckets[0]
	for _, b := range delayBuckets {
		if b <= delay {
			bucket = b
		}
	}
	return bucket, true
}

func waitQueueName(bucket time.Duration) string {
	return fmt.Sprintf("%s.wait.%s", closeQueueName, bucket)
}

// remainingDelay reports how far in the future the job's fire time still
// is. An absent or unparseable fire time counts as due now; the closer's
// stale-session guards make a premature run harmless.
func remainingDelay(scheduledFor string, now time.Time) time.Duration {
	t, err := time.Parse(time.RFC3339, scheduledFor)
	if err != nil {
		return 0
	}
	return t.Sub(now)
}
