package collections

import (
	"log/slog"
	"scopedlock/pkg/concurrency/lock"
	"scopedlock/pkg/logging"
	"time"
)

type options struct {
	name     string
	timeout  time.Duration
	capacity int
}

// Option configures a container at construction.
type Option func(*options)

// WithName names the container and its lock. Unnamed containers get the
// factory's generated lock name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithTimeout sets the timeout of every acquisition the container makes.
// The default is lock.UseDefault.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithCapacity preallocates storage.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = max(n, 0)
	}
}

// guarded is the lock plumbing shared by every container.
type guarded struct {
	lock    *lock.Lock
	timeout time.Duration
	kind    string
}

func newGuarded(f *lock.Factory, kind string, opts []Option) (guarded, options) {
	o := options{timeout: lock.UseDefault}
	for _, opt := range opts {
		opt(&o)
	}

	var l *lock.Lock
	if o.name != "" {
		l = f.New(o.name)
	} else {
		cfg := f.Config()
		l = f.Create(cfg.Kind, lock.UseDefault)
	}

	return guarded{
		lock:    l,
		timeout: o.timeout,
		kind:    kind,
	}, o
}

func (g *guarded) logger() *slog.Logger {
	return logging.WithContainer(g.kind, g.lock.Name())
}

// Lock exposes the container's lock for inspection.
func (g *guarded) Lock() *lock.Lock {
	return g.lock
}

func (g *guarded) Name() string {
	return g.lock.Name()
}

func (g *guarded) read(fn func()) error {
	return lock.WithRead(g.lock, g.timeout, func() error {
		fn()
		return nil
	})
}

func (g *guarded) write(fn func()) error {
	return lock.WithWrite(g.lock, g.timeout, func() error {
		fn()
		return nil
	})
}

// checkThenAct runs check under the upgradable read handle and, when it
// reports true, act under the upgraded handle.
func (g *guarded) checkThenAct(check func() bool, act func()) error {
	return lock.WithUpgradableRead(g.lock, g.timeout, func(h *lock.UpgradableReadHandle) error {
		if !check() {
			return nil
		}
		return lock.WithUpgrade(h, g.timeout, func() error {
			act()
			return nil
		})
	})
}
