package collections

import (
	"iter"
	"maps"
	"scopedlock/pkg/concurrency/lock"
	"slices"
)

// Map is a map guarded by a scoped lock.
type Map[K comparable, V any] struct {
	guarded
	m map[K]V
}

func NewMap[K comparable, V any](f *lock.Factory, opts ...Option) *Map[K, V] {
	g, o := newGuarded(f, "map", opts)
	return &Map[K, V]{
		guarded: g,
		m:       make(map[K]V, o.capacity),
	}
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (value V, ok bool, err error) {
	err = m.read(func() {
		value, ok = m.m[key]
	})
	return value, ok, err
}

func (m *Map[K, V]) Contains(key K) (bool, error) {
	_, ok, err := m.Get(key)
	return ok, err
}

func (m *Map[K, V]) Len() (n int, err error) {
	err = m.read(func() {
		n = len(m.m)
	})
	return n, err
}

func (m *Map[K, V]) Store(key K, value V) error {
	return m.write(func() {
		m.m[key] = value
	})
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) (existed bool, err error) {
	err = m.checkThenAct(
		func() bool {
			_, existed = m.m[key]
			return existed
		},
		func() { delete(m.m, key) },
	)
	return existed, err
}

// Clear removes every entry and returns how many there were.
func (m *Map[K, V]) Clear() (removed int, err error) {
	err = m.write(func() {
		removed = len(m.m)
		clear(m.m)
	})
	if err == nil {
		m.logger().Debug("cleared", "removed", removed)
	}
	return removed, err
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores value and returns it. loaded is true if the value was already there.
func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool, err error) {
	err = m.checkThenAct(
		func() bool {
			actual, loaded = m.m[key]
			return !loaded
		},
		func() {
			m.m[key] = value
			actual = value
		},
	)
	return actual, loaded, err
}

// CompareAndSwap stores new under key if the current value equals old. As
// with sync.Map, the values are compared with == and V must be comparable at
// run time or CompareAndSwap panics.
func (m *Map[K, V]) CompareAndSwap(key K, old, new V) (swapped bool, err error) {
	err = m.checkThenAct(
		func() bool {
			cur, ok := m.m[key]
			return ok && any(cur) == any(old)
		},
		func() {
			m.m[key] = new
			swapped = true
		},
	)
	return swapped, err
}

// Update performs a read-modify-write of key. fn receives the current value
// and whether it exists, and returns the new value and whether to store it.
// fn runs while the map is locked.
func (m *Map[K, V]) Update(key K, fn func(current V, exists bool) (V, bool)) (updated bool, err error) {
	var next V
	err = m.checkThenAct(
		func() bool {
			cur, ok := m.m[key]
			next, updated = fn(cur, ok)
			return updated
		},
		func() { m.m[key] = next },
	)
	if err != nil {
		updated = false
	}
	return updated, err
}

// Snapshot returns a copy of the map.
func (m *Map[K, V]) Snapshot() (snap map[K]V, err error) {
	err = m.read(func() {
		snap = maps.Clone(m.m)
	})
	return snap, err
}

func (m *Map[K, V]) Keys() (keys []K, err error) {
	err = m.read(func() {
		keys = slices.Collect(maps.Keys(m.m))
	})
	return keys, err
}

// All returns a sequence over a snapshot of the map.
func (m *Map[K, V]) All() (iter.Seq2[K, V], error) {
	snap, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return maps.All(snap), nil
}
