// Package auction contains the pure decision logic of the manual-auction
// subsystem: bidding-window computation, bid validation and session token
// minting.  Nothing in this package performs I/O; persistence and
// scheduling live in the repository and queue packages.
package auction

import "time"

// Phase describes where an instant falls relative to a bidding window.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseLive
	PhaseEnded
)

// String returns a short name for the phase, used in log lines.
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseLive:
		return "live"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// ComputeWindow derives the bidding window for an ad.  The window starts at
// the scheduled publish time when one is set, otherwise at now, and ends
// durationDays calendar days later (AddDate, not elapsed seconds, so DST
// transitions keep the wall-clock end time).  All times are normalized to
// UTC.  Callers must not invoke the scheduler when durationDays <= 0; such
// ads are never live for bidding.
func ComputeWindow(scheduledAt *time.Time, durationDays int, now time.Time) (start, end time.Time) {
	start = now.UTC()
	if scheduledAt != nil {
		start = scheduledAt.UTC()
	}
	end = start.AddDate(0, 0, durationDays)
	return start, end
}

// PhaseAt reports the phase of now relative to [start, end).  The start
// instant is live, the end instant is ended.
func PhaseAt(now, start, end time.Time) Phase {
	if now.Before(start) {
		return PhaseNotStarted
	}
	if now.Before(end) {
		return PhaseLive
	}
	return PhaseEnded
}
