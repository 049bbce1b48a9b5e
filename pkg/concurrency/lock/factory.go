package lock

import (
	"fmt"
	"scopedlock/pkg/concurrency/primitive"
	"sync/atomic"
	"time"
)

// Factory creates locks sharing one configuration. It is safe for
// concurrent use and holds no reference to the locks it creates.
type Factory struct {
	cfg     Config
	created atomic.Uint64
}

// NewFactory validates cfg and returns a factory for it.
func NewFactory(cfg Config) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Factory{cfg: cfg}, nil
}

// DefaultFactory uses DefaultConfig.
func DefaultFactory() *Factory {
	return &Factory{cfg: DefaultConfig()}
}

func (f *Factory) Config() Config {
	return f.cfg
}

// Create returns a new unnamed lock of the given kind. defaultTimeout
// replaces the factory's default unless it is UseDefault.
//
// kind must be primitive.ExclusiveOnly or primitive.ReaderWriter. Any other
// value is a programming error and Create panics with an INVALID_CONFIG
// error; use primitive.ParseKind to turn untrusted input into a Kind.
func (f *Factory) Create(kind primitive.Kind, defaultTimeout time.Duration) *Lock {
	cfg := f.cfg
	cfg.Kind = kind
	if defaultTimeout != UseDefault {
		cfg.DefaultTimeout = defaultTimeout
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	n := f.created.Add(1)
	return newLock(fmt.Sprintf("lock-%d", n), cfg)
}

// New returns a named lock using the factory configuration unchanged.
func (f *Factory) New(name string) *Lock {
	f.created.Add(1)
	return newLock(name, f.cfg)
}

// Created reports how many locks the factory has produced.
func (f *Factory) Created() uint64 {
	return f.created.Load()
}
