package primitive

import (
	"context"
	"sync"
)

// condRW is the reader-preferred reader/writer primitive.
//
// State lives under mu. Every release closes wake and replaces it, so all
// blocked callers re-check their condition; a caller whose context ends
// simply stops waiting, which leaves the state untouched.
type condRW struct {
	mu         sync.Mutex
	readers    int
	upgradable bool
	writer     bool // exclusive holder or promoted upgradable holder
	wake       chan struct{}
}

func newCondRW() *condRW {
	return &condRW{wake: make(chan struct{})}
}

// await blocks until ready reports true, then runs take, both under mu.
func (p *condRW) await(ctx context.Context, ready func() bool, take func()) error {
	for {
		p.mu.Lock()
		if ready() {
			take()
			p.mu.Unlock()
			return nil
		}
		wake := p.wake
		p.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// broadcast must be called with mu held.
func (p *condRW) broadcast() {
	close(p.wake)
	p.wake = make(chan struct{})
}

func (p *condRW) AcquireShared(ctx context.Context) error {
	return p.await(ctx,
		func() bool { return !p.writer },
		func() { p.readers++ })
}

func (p *condRW) ReleaseShared() {
	p.mu.Lock()
	p.readers--
	p.broadcast()
	p.mu.Unlock()
}

func (p *condRW) AcquireUpgradable(ctx context.Context) error {
	return p.await(ctx,
		func() bool { return !p.writer && !p.upgradable },
		func() { p.upgradable = true })
}

func (p *condRW) ReleaseUpgradable() {
	p.mu.Lock()
	p.upgradable = false
	p.broadcast()
	p.mu.Unlock()
}

func (p *condRW) Promote(ctx context.Context) (bool, error) {
	err := p.await(ctx,
		func() bool { return p.readers == 0 },
		func() { p.writer = true })
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *condRW) Demote() {
	p.mu.Lock()
	p.writer = false
	p.broadcast()
	p.mu.Unlock()
}

func (p *condRW) AcquireExclusive(ctx context.Context) error {
	return p.await(ctx,
		func() bool { return !p.writer && !p.upgradable && p.readers == 0 },
		func() { p.writer = true })
}

func (p *condRW) ReleaseExclusive() {
	p.mu.Lock()
	p.writer = false
	p.broadcast()
	p.mu.Unlock()
}

func (p *condRW) Kind() Kind { return ReaderWriter }
