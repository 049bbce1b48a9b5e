package primitive

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// monitor serializes every role through a single slot.
type monitor struct {
	sem *semaphore.Weighted
}

func newMonitor() *monitor {
	return &monitor{sem: semaphore.NewWeighted(1)}
}

func (m *monitor) AcquireShared(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

func (m *monitor) ReleaseShared() {
	m.sem.Release(1)
}

func (m *monitor) AcquireUpgradable(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

func (m *monitor) ReleaseUpgradable() {
	m.sem.Release(1)
}

// Promote never blocks: the upgradable holder already owns the monitor.
func (m *monitor) Promote(context.Context) (bool, error) {
	return false, nil
}

func (m *monitor) Demote() {}

func (m *monitor) AcquireExclusive(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

func (m *monitor) ReleaseExclusive() {
	m.sem.Release(1)
}

func (m *monitor) Kind() Kind { return ExclusiveOnly }
