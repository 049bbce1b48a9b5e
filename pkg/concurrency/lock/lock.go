package lock

import (
	"context"
	"fmt"
	"log/slog"
	"scopedlock/pkg/concurrency/goid"
	"scopedlock/pkg/concurrency/primitive"
	"scopedlock/pkg/logging"
	"sync"
	"time"
)

// Lock is a reader/writer lock with an upgradable read mode. Create one
// with a Factory. A Lock must not be copied.
//
// Blocking happens only inside the primitive; mu guards the bookkeeping and
// is never held while waiting.
type Lock struct {
	name           string
	prim           primitive.Primitive
	defaultTimeout time.Duration
	ownerChecks    bool

	mu         sync.Mutex
	readers    int
	writer     bool
	upgradable *UpgradableReadHandle
	holders    *HolderTable

	stats stats
}

func newLock(name string, cfg Config) *Lock {
	return &Lock{
		name:           name,
		prim:           primitive.New(cfg.Kind, cfg.Fairness),
		defaultTimeout: cfg.DefaultTimeout,
		ownerChecks:    cfg.OwnerChecks,
		holders:        NewHolderTable(),
	}
}

// logger is resolved on every call so locks created before logging.Init
// follow the current configuration.
func (l *Lock) logger() *slog.Logger {
	return logging.WithLock(l.name)
}

func (l *Lock) Name() string {
	return l.name
}

func (l *Lock) Kind() primitive.Kind {
	return l.prim.Kind()
}

func (l *Lock) DefaultTimeout() time.Duration {
	return l.defaultTimeout
}

// AcquireRead blocks until a plain read handle is granted or timeout
// elapses. Pass UseDefault for the lock's default timeout or NoTimeout to
// wait indefinitely.
func (l *Lock) AcquireRead(timeout time.Duration) (*ReadHandle, error) {
	ctx, cancel := l.timeoutContext(timeout)
	defer cancel()
	return l.acquireRead(ctx, "AcquireRead")
}

// AcquireReadContext is AcquireRead bounded by ctx instead of a timeout.
func (l *Lock) AcquireReadContext(ctx context.Context) (*ReadHandle, error) {
	return l.acquireRead(ctx, "AcquireRead")
}

// AcquireWrite blocks until no other handle is outstanding, then grants an
// exclusive write handle.
func (l *Lock) AcquireWrite(timeout time.Duration) (*WriteHandle, error) {
	ctx, cancel := l.timeoutContext(timeout)
	defer cancel()
	return l.acquireWrite(ctx, "AcquireWrite")
}

func (l *Lock) AcquireWriteContext(ctx context.Context) (*WriteHandle, error) {
	return l.acquireWrite(ctx, "AcquireWrite")
}

// AcquireUpgradableRead grants the single upgradable read slot. Plain
// readers may continue to enter until the handle is upgraded.
func (l *Lock) AcquireUpgradableRead(timeout time.Duration) (*UpgradableReadHandle, error) {
	ctx, cancel := l.timeoutContext(timeout)
	defer cancel()
	return l.acquireUpgradable(ctx, "AcquireUpgradableRead")
}

func (l *Lock) AcquireUpgradableReadContext(ctx context.Context) (*UpgradableReadHandle, error) {
	return l.acquireUpgradable(ctx, "AcquireUpgradableRead")
}

func (l *Lock) acquireRead(ctx context.Context, op string) (*ReadHandle, error) {
	h, err := l.acquire(ctx, op, ModeRead, l.prim.AcquireShared)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.readers++
	l.holders.Add(h.holder())
	l.mu.Unlock()

	l.stats.read.Add(1)
	return &ReadHandle{handle: h}, nil
}

func (l *Lock) acquireWrite(ctx context.Context, op string) (*WriteHandle, error) {
	h, err := l.acquire(ctx, op, ModeWrite, l.prim.AcquireExclusive)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.writer = true
	l.holders.Add(h.holder())
	l.mu.Unlock()

	l.stats.write.Add(1)
	return &WriteHandle{handle: h}, nil
}

func (l *Lock) acquireUpgradable(ctx context.Context, op string) (*UpgradableReadHandle, error) {
	h, err := l.acquire(ctx, op, ModeUpgradableRead, l.prim.AcquireUpgradable)
	if err != nil {
		return nil, err
	}

	uh := &UpgradableReadHandle{handle: h}
	l.mu.Lock()
	l.upgradable = uh
	l.holders.Add(h.holder())
	l.mu.Unlock()

	l.stats.upgradable.Add(1)
	return uh, nil
}

// acquire runs the checks shared by every mode, then blocks in wait.
func (l *Lock) acquire(ctx context.Context, op string, mode Mode, wait func(context.Context) error) (handle, error) {
	owner := l.currentOwner()
	if err := l.checkReentrant(owner, op); err != nil {
		return handle{}, err
	}

	start := time.Now()
	err := wait(ctx)
	waited := time.Since(start)
	l.stats.wait.Add(int64(waited))
	if err != nil {
		return handle{}, l.timeoutErr(op, mode, waited, err)
	}

	h := handle{
		lock:       l,
		id:         nextHandleID(),
		mode:       mode,
		owner:      owner,
		acquiredAt: time.Now(),
	}
	l.logger().Debug("acquired", "handle", h.id, "mode", mode, "waited", waited)
	return h, nil
}

func (l *Lock) releaseRead(h *ReadHandle) error {
	return l.release(&h.handle, "ReleaseRead", func() {
		l.readers--
		l.prim.ReleaseShared()
	})
}

func (l *Lock) releaseWrite(h *WriteHandle) error {
	return l.release(&h.handle, "ReleaseWrite", func() {
		l.writer = false
		l.prim.ReleaseExclusive()
	})
}

func (l *Lock) releaseUpgradable(h *UpgradableReadHandle) error {
	if err := l.checkOwner(&h.handle, "ReleaseUpgradableRead"); err != nil {
		return err
	}

	l.mu.Lock()
	if h.upgrading {
		l.mu.Unlock()
		return l.violation("ReleaseUpgradableRead", fmt.Sprintf("handle %s is being upgraded", h.id))
	}
	if h.released {
		l.mu.Unlock()
		l.alreadyReleased(&h.handle)
		return nil
	}

	if h.cookie != nil {
		l.releaseCookieLocked(h.cookie)
	}
	h.released = true
	l.upgradable = nil
	l.holders.Remove(h.id)
	l.prim.ReleaseUpgradable()
	l.mu.Unlock()

	l.logger().Debug("released", "handle", h.id, "mode", h.mode, "held_for", time.Since(h.acquiredAt))
	return nil
}

// release marks h released and runs undo under mu. A second release is a
// logged no-op.
func (l *Lock) release(h *handle, op string, undo func()) error {
	if err := l.checkOwner(h, op); err != nil {
		return err
	}

	l.mu.Lock()
	if h.released {
		l.mu.Unlock()
		l.alreadyReleased(h)
		return nil
	}
	h.released = true
	l.holders.Remove(h.id)
	undo()
	l.mu.Unlock()

	l.logger().Debug("released", "handle", h.id, "mode", h.mode, "held_for", time.Since(h.acquiredAt))
	return nil
}

func (l *Lock) upgrade(ctx context.Context, h *UpgradableReadHandle) (*UpgradeCookie, error) {
	const op = "Upgrade"
	if err := l.checkOwner(&h.handle, op); err != nil {
		return nil, err
	}

	l.mu.Lock()
	switch {
	case h.released:
		l.mu.Unlock()
		return nil, l.violation(op, fmt.Sprintf("handle %s already released", h.id))
	case h.cookie != nil:
		l.mu.Unlock()
		return nil, l.violation(op, fmt.Sprintf("handle %s already upgraded by cookie %s", h.id, h.cookie.id))
	case h.upgrading:
		l.mu.Unlock()
		return nil, l.violation(op, fmt.Sprintf("handle %s is already being upgraded", h.id))
	}
	h.upgrading = true
	l.mu.Unlock()

	start := time.Now()
	transitioned, err := l.prim.Promote(ctx)
	waited := time.Since(start)
	l.stats.wait.Add(int64(waited))

	l.mu.Lock()
	h.upgrading = false
	if err != nil {
		l.mu.Unlock()
		return nil, l.timeoutErr(op, ModeUpgradedWrite, waited, err)
	}

	c := &UpgradeCookie{
		handle: handle{
			lock:       l,
			id:         nextHandleID(),
			mode:       ModeUpgradedWrite,
			owner:      h.owner,
			acquiredAt: time.Now(),
		},
		origin:       h,
		transitioned: transitioned,
	}
	h.cookie = c
	l.holders.SetMode(h.id, ModeUpgradedWrite)
	l.mu.Unlock()

	l.stats.upgrades.Add(1)
	l.logger().Debug("upgraded", "handle", h.id, "cookie", c.id, "transitioned", transitioned, "waited", waited)
	return c, nil
}

func (l *Lock) releaseCookie(c *UpgradeCookie) error {
	if err := l.checkOwner(&c.handle, "ReleaseCookie"); err != nil {
		return err
	}

	l.mu.Lock()
	if c.released {
		l.mu.Unlock()
		l.alreadyReleased(&c.handle)
		return nil
	}
	l.releaseCookieLocked(c)
	l.mu.Unlock()

	l.logger().Debug("downgraded", "handle", c.origin.id, "cookie", c.id, "held_for", time.Since(c.acquiredAt))
	return nil
}

// releaseCookieLocked returns the lock to UpgradableReadHeld. mu must be held.
func (l *Lock) releaseCookieLocked(c *UpgradeCookie) {
	c.released = true
	c.origin.cookie = nil
	l.holders.SetMode(c.origin.id, ModeUpgradableRead)
	if c.transitioned {
		l.prim.Demote()
	}
}

// Snapshot returns the current state and counts.
func (l *Lock) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Snapshot{
		Readers:    l.readers,
		Upgradable: l.upgradable != nil,
		Upgraded:   l.upgradable != nil && l.upgradable.cookie != nil,
		Writer:     l.writer,
	}

	switch {
	case s.Writer || s.Upgraded:
		s.State = StateWriteHeld
	case s.Upgradable:
		s.State = StateUpgradableReadHeld
	case s.Readers > 0:
		s.State = StateReadHeld
	default:
		s.State = StateFree
	}
	return s
}

// State is shorthand for Snapshot().State.
func (l *Lock) State() State {
	return l.Snapshot().State
}

// Holders lists the live handles ordered by handle ID. An upgraded
// upgradable handle is listed once, in ModeUpgradedWrite.
func (l *Lock) Holders() []Holder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holders.All()
}

func (l *Lock) timeoutContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == UseDefault {
		timeout = l.defaultTimeout
	}
	if timeout < 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (l *Lock) currentOwner() int64 {
	if !l.ownerChecks {
		return 0
	}
	return goid.Current()
}

func (l *Lock) checkOwner(h *handle, op string) error {
	if !l.ownerChecks {
		return nil
	}

	if g := goid.Current(); g != h.owner {
		return l.violation(op, fmt.Sprintf("handle %s owned by goroutine %d used from goroutine %d", h.id, h.owner, g))
	}
	return nil
}

func (l *Lock) checkReentrant(owner int64, op string) error {
	if owner == 0 {
		return nil
	}

	l.mu.Lock()
	held, exists := l.holders.HeldBy(owner)
	l.mu.Unlock()

	if exists {
		return l.violation(op, fmt.Sprintf("goroutine %d already holds %s handle %s; re-entrant acquisition is not supported", owner, held.Mode, held.ID))
	}
	return nil
}

func (l *Lock) alreadyReleased(h *handle) {
	logging.WithHandle(l.name, uint64(h.id)).Debug("release of already released handle ignored", "mode", h.mode)
}

func (l *Lock) timeoutErr(op string, mode Mode, waited time.Duration, cause error) error {
	l.stats.timeouts.Add(1)
	l.logger().Warn("lock acquisition failed", "op", op, "mode", mode, "waited", waited, "cause", cause)
	detail := fmt.Sprintf("%s on lock %q after %s", mode, l.name, waited.Round(time.Millisecond))
	return ErrTimeout.Derive(detail, op, "Lock", cause)
}

func (l *Lock) violation(op, detail string) error {
	l.stats.violations.Add(1)
	l.logger().Error("lock state violation", "op", op, "detail", detail)
	return ErrStateViolation.Derive(detail, op, "Lock", nil)
}
