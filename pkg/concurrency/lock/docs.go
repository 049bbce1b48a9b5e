// Package lock implements scoped reader/writer locks with an upgradable
// read mode, timeout-bounded acquisition, and typed failure reporting.
//
// # Overview
//
// A [Lock] is a single-process lock state machine built on a
// [primitive.Primitive]. It is always in one of four states:
//
//   - [StateFree]: nobody holds it.
//   - [StateReadHeld]: one or more plain readers.
//   - [StateUpgradableReadHeld]: one upgradable reader, plus any plain readers.
//   - [StateWriteHeld]: a single writer, or the upgradable reader after a
//     successful upgrade.
//
// Callers acquire a handle, work, and release it:
//
//	h, err := l.AcquireRead(lock.UseDefault)
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//
// # Handles
//
// Handles form a closed set ([Handle]): [*ReadHandle], [*WriteHandle],
// [*UpgradableReadHandle] and [*UpgradeCookie]. Only the upgradable handle
// can upgrade, so a read handle cannot be promoted by accident. Release is
// idempotent: the second call is a logged no-op.
//
// Handles belong to the goroutine that acquired them. With owner checks
// enabled (the default) upgrading or releasing from another goroutine fails
// with [ErrStateViolation], and so does acquiring the same lock again from a
// goroutine that already holds it. Re-entrant acquisition is unsupported;
// with owner checks disabled it is undefined and usually ends in a timeout.
//
// # Upgrade Flow
//
// When [UpgradableReadHandle.Upgrade] is called:
//
//  1. The handle must be live, owned by the caller, and not already upgraded.
//  2. The primitive blocks new readers (writer-preferred fairness) and waits
//     for existing plain readers to drain.
//  3. On success the lock is WriteHeld and an [UpgradeCookie] is returned.
//     On timeout the lock stays UpgradableReadHeld and nothing changes.
//  4. Releasing the cookie returns the lock to UpgradableReadHeld. Releasing
//     the upgradable handle releases a live cookie first.
//
// # Readers After a Downgrade
//
// The two kinds differ once a cookie is released. On the reader/writer kind
// plain readers coexist with the upgradable reader, so a read from another
// goroutine is admitted as soon as the cookie is released, while the
// upgradable handle is still live. On the exclusive-only kind the upgradable
// reader owns the monitor, so that read keeps blocking until the upgradable
// handle itself is released. Code that needs "no readers until I am done"
// must use the exclusive-only kind or hold a write handle instead.
//
// # Errors
//
// Every failure matches one of two sentinels under errors.Is:
//
//   - [ErrTimeout]: the wait ended before the lock was available. The lock
//     state is unchanged and the caller may retry.
//   - [ErrStateViolation]: the caller broke the protocol. Never retry.
//
// # Invariants
//
//   - At most one writer or one upgradable reader at any time.
//   - A writer excludes all readers; plain readers and the upgradable reader
//     may coexist (reader/writer kind only).
//   - A failed acquisition or upgrade leaves the lock exactly as it was.
//   - Each handle releases its hold on the primitive at most once.
package lock
