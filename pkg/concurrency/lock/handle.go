package lock

import (
	"context"
	"time"
)

// Handle is implemented by every handle and by UpgradeCookie.
type Handle interface {
	ID() HandleID
	Mode() Mode
	Release() error
	Released() bool
	isHandle()
}

// handle is the state every handle kind shares. Released is guarded by
// lock.mu; the other fields never change after acquisition.
type handle struct {
	lock       *Lock
	id         HandleID
	mode       Mode
	owner      int64
	acquiredAt time.Time
	released   bool
}

func (h *handle) holder() *Holder {
	return &Holder{
		ID:         h.id,
		Mode:       h.mode,
		Owner:      h.owner,
		AcquiredAt: h.acquiredAt,
	}
}

func (h *handle) ID() HandleID {
	return h.id
}

func (h *handle) Mode() Mode {
	return h.mode
}

// Owner is the goroutine that acquired the handle, or 0 when owner checks
// are disabled.
func (h *handle) Owner() int64 {
	return h.owner
}

func (h *handle) AcquiredAt() time.Time {
	return h.acquiredAt
}

func (h *handle) Lock() *Lock {
	return h.lock
}

func (h *handle) Released() bool {
	h.lock.mu.Lock()
	defer h.lock.mu.Unlock()
	return h.released
}

func (h *handle) isHandle() {}

// ReadHandle is a shared read grant.
type ReadHandle struct {
	handle
}

func (h *ReadHandle) Release() error {
	return h.lock.releaseRead(h)
}

// WriteHandle is an exclusive write grant.
type WriteHandle struct {
	handle
}

func (h *WriteHandle) Release() error {
	return h.lock.releaseWrite(h)
}

// UpgradableReadHandle is a read grant that may be upgraded to exclusive
// access. At most one exists per lock.
type UpgradableReadHandle struct {
	handle
	cookie    *UpgradeCookie
	upgrading bool
}

// Upgrade waits until every plain reader has released and returns a cookie
// that grants exclusive access until it is released. Releasing the cookie
// returns the handle to upgradable read.
func (h *UpgradableReadHandle) Upgrade(timeout time.Duration) (*UpgradeCookie, error) {
	ctx, cancel := h.lock.timeoutContext(timeout)
	defer cancel()
	return h.lock.upgrade(ctx, h)
}

func (h *UpgradableReadHandle) UpgradeContext(ctx context.Context) (*UpgradeCookie, error) {
	return h.lock.upgrade(ctx, h)
}

// Upgraded reports whether a cookie from this handle is live.
func (h *UpgradableReadHandle) Upgraded() bool {
	h.lock.mu.Lock()
	defer h.lock.mu.Unlock()
	return h.cookie != nil
}

// Release also releases a live cookie.
func (h *UpgradableReadHandle) Release() error {
	return h.lock.releaseUpgradable(h)
}

// UpgradeCookie is the exclusive grant produced by Upgrade.
type UpgradeCookie struct {
	handle
	origin       *UpgradableReadHandle
	transitioned bool
}

// Handle returns the upgradable handle the cookie was taken from.
func (c *UpgradeCookie) Handle() *UpgradableReadHandle {
	return c.origin
}

// Transitioned reports whether the upgrade changed the underlying primitive.
// On an exclusive-only lock the upgradable holder is already exclusive and
// the cookie is bookkeeping only.
func (c *UpgradeCookie) Transitioned() bool {
	return c.transitioned
}

func (c *UpgradeCookie) Release() error {
	return c.lock.releaseCookie(c)
}
