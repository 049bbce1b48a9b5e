package primitive

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds concurrent shared holders. An exclusive holder takes
// every slot.
const maxReaders int64 = 1 << 30

// semRW is the writer-preferred reader/writer primitive.
//
// Writers and the upgradable holder first take gate, so at most one of them
// ever waits on slots. slots is FIFO: once a writer or upgrader is queued on
// it, readers arriving later queue behind it.
type semRW struct {
	gate  *semaphore.Weighted // writer or upgradable holder
	slots *semaphore.Weighted // one per reader, maxReaders for a writer
}

func newSemRW() *semRW {
	return &semRW{
		gate:  semaphore.NewWeighted(1),
		slots: semaphore.NewWeighted(maxReaders),
	}
}

func (p *semRW) AcquireShared(ctx context.Context) error {
	return p.slots.Acquire(ctx, 1)
}

func (p *semRW) ReleaseShared() {
	p.slots.Release(1)
}

func (p *semRW) AcquireUpgradable(ctx context.Context) error {
	if err := p.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := p.slots.Acquire(ctx, 1); err != nil {
		p.gate.Release(1)
		return err
	}
	return nil
}

func (p *semRW) ReleaseUpgradable() {
	p.slots.Release(1)
	p.gate.Release(1)
}

// Promote takes the remaining slots. The upgradable holder already owns one.
func (p *semRW) Promote(ctx context.Context) (bool, error) {
	if err := p.slots.Acquire(ctx, maxReaders-1); err != nil {
		return false, err
	}
	return true, nil
}

func (p *semRW) Demote() {
	p.slots.Release(maxReaders - 1)
}

func (p *semRW) AcquireExclusive(ctx context.Context) error {
	if err := p.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := p.slots.Acquire(ctx, maxReaders); err != nil {
		p.gate.Release(1)
		return err
	}
	return nil
}

func (p *semRW) ReleaseExclusive() {
	p.slots.Release(maxReaders)
	p.gate.Release(1)
}

func (p *semRW) Kind() Kind { return ReaderWriter }
