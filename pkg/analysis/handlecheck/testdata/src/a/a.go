package a

import (
	"context"
	"scopedlock/pkg/concurrency/lock"
	"time"
)

type holder struct {
	h *lock.WriteHandle
}

func discarded(l *lock.Lock) {
	l.AcquireRead(time.Second) // want `result of Lock.AcquireRead is discarded; the handle is never released`
}

func blank(l *lock.Lock) error {
	_, err := l.AcquireWrite(time.Second) // want `handle from Lock.AcquireWrite is assigned to _ and never released`
	return err
}

func leaked(l *lock.Lock) error {
	h, err := l.AcquireRead(time.Second) // want `handle h from Lock.AcquireRead is never released`
	if err != nil {
		return err
	}
	_ = h.ID()
	return nil
}

func silenced(l *lock.Lock) error {
	h, err := l.AcquireRead(time.Second) // want `handle h from Lock.AcquireRead is never released`
	if err != nil {
		return err
	}
	_ = h
	return nil
}

func reassigned(l *lock.Lock) (*lock.ReadHandle, error) {
	h, err := l.AcquireRead(time.Second)
	var kept *lock.ReadHandle
	kept, _ = h, err
	return kept, err
}

func leakedCookie(l *lock.Lock) error {
	uh, err := l.AcquireUpgradableRead(time.Second)
	if err != nil {
		return err
	}
	defer uh.Release()

	c, err := uh.Upgrade(time.Second) // want `handle c from UpgradableReadHandle.Upgrade is never released`
	if err != nil || c == nil {
		return err
	}
	return nil
}

func deferred(l *lock.Lock) error {
	h, err := l.AcquireRead(time.Second)
	if err != nil {
		return err
	}
	defer h.Release()
	return nil
}

func explicit(ctx context.Context, l *lock.Lock) error {
	h, err := l.AcquireReadContext(ctx)
	if err != nil {
		return err
	}
	return h.Release()
}

func returned(l *lock.Lock) (*lock.WriteHandle, error) {
	h, err := l.AcquireWrite(time.Second)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func stored(l *lock.Lock) (*holder, error) {
	h, err := l.AcquireWrite(time.Second)
	return &holder{h: h}, err
}

func passed(l *lock.Lock, release func(*lock.ReadHandle)) {
	h, _ := l.AcquireRead(time.Second)
	release(h)
}

func inClosure(l *lock.Lock) {
	var h, _ = l.AcquireRead(time.Second)
	func() {
		defer h.Release()
	}()
}

func cookieReleased(l *lock.Lock) error {
	uh, err := l.AcquireUpgradableRead(time.Second)
	if err != nil {
		return err
	}
	defer uh.Release()

	c, err := uh.UpgradeContext(context.Background())
	if err != nil {
		return err
	}
	defer c.Release()
	return nil
}

func unrelated(l *lock.Lock) string {
	name := l.Name()
	return name
}
