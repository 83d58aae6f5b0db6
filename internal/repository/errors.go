// Package repository defines sentinel errors shared across the data access
// layer. Handlers and the closer use errors.Is against these values to
// distinguish failure scenarios: a missing ad maps to HTTP 404, a stale
// session turns a close job into a logged no-op, and so on.
package repository

import "errors"

// ErrAdNotFound is returned when no ad row exists for the requested id.
var ErrAdNotFound = errors.New("ad not found")

// ErrBidNotFound is returned when a bid lookup matches no rows.
var ErrBidNotFound = errors.New("bid not found")

// ErrStaleSession is returned when a state transition carries a session id
// that is no longer the ad's live session. The caller observed an old
// generation; the operation did not change anything.
var ErrStaleSession = errors.New("stale auction session")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as approving an ad that is not pending.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
