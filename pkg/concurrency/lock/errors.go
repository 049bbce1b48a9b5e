package lock

import (
	lockerr "scopedlock/pkg/error"
)

const (
	CodeTimeout        = "LOCK_TIMEOUT"
	CodeStateViolation = "LOCK_STATE_VIOLATION"
)

var (
	// ErrTimeout reports that an acquisition or upgrade did not complete
	// before its timeout or context ended. The lock state is unchanged.
	ErrTimeout = lockerr.New(lockerr.ErrCategoryTransient, CodeTimeout, "lock acquisition timed out")

	// ErrStateViolation reports caller misuse of the lock protocol: double
	// upgrade, use of a handle from a goroutine that does not own it, use
	// after release, or re-entrant acquisition.
	ErrStateViolation = lockerr.New(lockerr.ErrCategoryUsage, CodeStateViolation, "lock state violation")
)
