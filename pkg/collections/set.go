package collections

import (
	"iter"
	"scopedlock/pkg/concurrency/lock"
	"slices"
)

// Set is a set of unique elements guarded by a scoped lock.
type Set[T comparable] struct {
	guarded
	m map[T]struct{}
}

func NewSet[T comparable](f *lock.Factory, opts ...Option) *Set[T] {
	g, o := newGuarded(f, "set", opts)
	return &Set[T]{
		guarded: g,
		m:       make(map[T]struct{}, o.capacity),
	}
}

// Add inserts v if absent and reports whether it was added.
func (s *Set[T]) Add(v T) (added bool, err error) {
	err = s.checkThenAct(
		func() bool {
			_, exists := s.m[v]
			return !exists
		},
		func() {
			s.m[v] = struct{}{}
			added = true
		},
	)
	return added, err
}

// AddAll inserts every absent element of vs and returns how many were new.
// The write lock is taken only if at least one element is missing.
func (s *Set[T]) AddAll(vs ...T) (added int, err error) {
	var missing []T
	err = s.checkThenAct(
		func() bool {
			for _, v := range vs {
				if _, exists := s.m[v]; !exists {
					missing = append(missing, v)
				}
			}
			return len(missing) > 0
		},
		func() {
			for _, v := range missing {
				if _, exists := s.m[v]; !exists {
					s.m[v] = struct{}{}
					added++
				}
			}
		},
	)
	return added, err
}

// Remove deletes v and reports whether it was present.
func (s *Set[T]) Remove(v T) (removed bool, err error) {
	err = s.checkThenAct(
		func() bool {
			_, removed = s.m[v]
			return removed
		},
		func() { delete(s.m, v) },
	)
	return removed, err
}

func (s *Set[T]) Contains(v T) (ok bool, err error) {
	err = s.read(func() {
		_, ok = s.m[v]
	})
	return ok, err
}

func (s *Set[T]) Len() (n int, err error) {
	err = s.read(func() {
		n = len(s.m)
	})
	return n, err
}

func (s *Set[T]) Clear() (removed int, err error) {
	err = s.write(func() {
		removed = len(s.m)
		clear(s.m)
	})
	if err == nil {
		s.logger().Debug("cleared", "removed", removed)
	}
	return removed, err
}

// Snapshot returns the elements in unspecified order.
func (s *Set[T]) Snapshot() (elems []T, err error) {
	err = s.read(func() {
		elems = make([]T, 0, len(s.m))
		for v := range s.m {
			elems = append(elems, v)
		}
	})
	return elems, err
}

// All returns a sequence over a snapshot of the set.
func (s *Set[T]) All() (iter.Seq[T], error) {
	elems, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return slices.Values(elems), nil
}
