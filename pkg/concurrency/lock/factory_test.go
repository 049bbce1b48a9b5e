package lock

import (
	"errors"
	"scopedlock/pkg/concurrency/primitive"
	lockerr "scopedlock/pkg/error"
	"sync"
	"testing"
	"time"
)

func TestNewFactory_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultTimeout = 0

	f, err := NewFactory(cfg)
	if err == nil || f != nil {
		t.Fatalf("Expected error and nil factory, got %v, %v", f, err)
	}
}

func TestFactory_Create(t *testing.T) {
	f := DefaultFactory()

	l := f.Create(primitive.ExclusiveOnly, 200*time.Millisecond)
	if l.Kind() != primitive.ExclusiveOnly {
		t.Errorf("Expected exclusiveOnly, got %v", l.Kind())
	}
	if l.DefaultTimeout() != 200*time.Millisecond {
		t.Errorf("Expected 200ms default timeout, got %v", l.DefaultTimeout())
	}
	if l.Name() != "lock-1" {
		t.Errorf("Expected name lock-1, got %q", l.Name())
	}
	expectState(t, l, StateFree)

	l2 := f.Create(primitive.ReaderWriter, UseDefault)
	if l2.DefaultTimeout() != f.Config().DefaultTimeout {
		t.Errorf("UseDefault should keep the factory timeout, got %v", l2.DefaultTimeout())
	}
	if l2.Name() != "lock-2" {
		t.Errorf("Expected name lock-2, got %q", l2.Name())
	}
}

func TestFactory_CreateRejectsUnknownKind(t *testing.T) {
	f := DefaultFactory()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok {
			t.Fatalf("Expected a panic with an error, got %v", r)
		}
		var e *lockerr.Error
		if !errors.As(err, &e) || e.Code != "INVALID_CONFIG" {
			t.Errorf("Expected INVALID_CONFIG, got %v", err)
		}
		if f.Created() != 0 {
			t.Errorf("Rejected Create should not count, got %d", f.Created())
		}
	}()

	f.Create(primitive.Kind(7), UseDefault)
	t.Fatal("Create accepted an unknown kind")
}

func TestFactory_New(t *testing.T) {
	f := DefaultFactory()
	l := f.New("sessions")

	if l.Name() != "sessions" {
		t.Errorf("Expected name sessions, got %q", l.Name())
	}
	if l.Kind() != primitive.ReaderWriter {
		t.Errorf("Expected factory kind, got %v", l.Kind())
	}
	if f.Created() != 1 {
		t.Errorf("Expected 1 created lock, got %d", f.Created())
	}
}

func TestFactory_ConcurrentCreate(t *testing.T) {
	f := DefaultFactory()
	const n = 64

	var wg sync.WaitGroup
	names := make(chan string, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names <- f.Create(primitive.ReaderWriter, UseDefault).Name()
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Errorf("Duplicate lock name %s", name)
		}
		seen[name] = true
	}
	if f.Created() != n {
		t.Errorf("Expected %d created locks, got %d", n, f.Created())
	}
}

func TestLock_UseDefaultTimeout(t *testing.T) {
	f := DefaultFactory()
	l := f.Create(primitive.ReaderWriter, 40*time.Millisecond)
	w, _ := l.AcquireWrite(UseDefault)
	defer w.Release()

	var (
		err     error
		elapsed time.Duration
	)
	inGoroutine(func() {
		start := time.Now()
		_, err = l.AcquireRead(UseDefault)
		elapsed = time.Since(start)
	})
	expectCode(t, err, ErrTimeout)
	if elapsed > time.Second {
		t.Errorf("UseDefault waited %v instead of the lock default", elapsed)
	}
}
