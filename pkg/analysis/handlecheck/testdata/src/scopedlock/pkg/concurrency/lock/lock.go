package lock

import (
	"context"
	"time"
)

type Lock struct{}

type ReadHandle struct{}

func (h *ReadHandle) Release() error { return nil }
func (h *ReadHandle) ID() int64      { return 0 }

type WriteHandle struct{}

func (h *WriteHandle) Release() error { return nil }

type UpgradableReadHandle struct{}

func (h *UpgradableReadHandle) Release() error { return nil }

func (h *UpgradableReadHandle) Upgrade(time.Duration) (*UpgradeCookie, error) {
	return &UpgradeCookie{}, nil
}

func (h *UpgradableReadHandle) UpgradeContext(context.Context) (*UpgradeCookie, error) {
	return &UpgradeCookie{}, nil
}

type UpgradeCookie struct{}

func (c *UpgradeCookie) Release() error { return nil }

func (l *Lock) AcquireRead(time.Duration) (*ReadHandle, error) {
	return &ReadHandle{}, nil
}

func (l *Lock) AcquireReadContext(context.Context) (*ReadHandle, error) {
	return &ReadHandle{}, nil
}

func (l *Lock) AcquireWrite(time.Duration) (*WriteHandle, error) {
	return &WriteHandle{}, nil
}

func (l *Lock) AcquireUpgradableRead(time.Duration) (*UpgradableReadHandle, error) {
	return &UpgradableReadHandle{}, nil
}

func (l *Lock) Name() string { return "" }
