package lock

import (
	"errors"
	"time"
)

// WithRead runs fn while holding a read handle. The handle is released on
// every exit path, including a panic in fn.
func WithRead(l *Lock, timeout time.Duration, fn func() error) (err error) {
	h, err := l.AcquireRead(timeout)
	if err != nil {
		return err
	}
	defer releaseInto(&err, h)
	return fn()
}

// WithWrite runs fn while holding a write handle.
func WithWrite(l *Lock, timeout time.Duration, fn func() error) (err error) {
	h, err := l.AcquireWrite(timeout)
	if err != nil {
		return err
	}
	defer releaseInto(&err, h)
	return fn()
}

// WithUpgradableRead runs fn while holding the upgradable read handle. fn may
// upgrade; a cookie it leaves live is released together with the handle.
func WithUpgradableRead(l *Lock, timeout time.Duration, fn func(h *UpgradableReadHandle) error) (err error) {
	h, err := l.AcquireUpgradableRead(timeout)
	if err != nil {
		return err
	}
	defer releaseInto(&err, h)
	return fn(h)
}

// WithUpgrade upgrades h, runs fn with exclusive access and downgrades again.
func WithUpgrade(h *UpgradableReadHandle, timeout time.Duration, fn func() error) (err error) {
	c, err := h.Upgrade(timeout)
	if err != nil {
		return err
	}
	defer releaseInto(&err, c)
	return fn()
}

// releaseInto releases h and records its error in *err. An error already in
// *err is returned as is when the release succeeds.
func releaseInto(err *error, h Handle) {
	rerr := h.Release()
	switch {
	case rerr == nil:
	case *err == nil:
		*err = rerr
	default:
		*err = errors.Join(*err, rerr)
	}
}
