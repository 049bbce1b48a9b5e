package collections

import (
	"fmt"
	"iter"
	"scopedlock/pkg/concurrency/lock"
	lockerr "scopedlock/pkg/error"
	"slices"
)

const CodeIndexOutOfRange = "INDEX_OUT_OF_RANGE"

// ErrIndexOutOfRange is returned for list indexes outside the list.
var ErrIndexOutOfRange = lockerr.New(lockerr.ErrCategoryUser, CodeIndexOutOfRange, "list index out of range")

// List is an ordered sequence guarded by a scoped lock. Duplicates are
// allowed.
type List[T any] struct {
	guarded
	items []T
}

func NewList[T any](f *lock.Factory, opts ...Option) *List[T] {
	g, o := newGuarded(f, "list", opts)
	return &List[T]{
		guarded: g,
		items:   make([]T, 0, o.capacity),
	}
}

func (l *List[T]) outOfRange(op string, i, n int) error {
	return ErrIndexOutOfRange.Derive(fmt.Sprintf("index %d, length %d", i, n), op, "List", nil)
}

func (l *List[T]) Append(vs ...T) error {
	return l.write(func() {
		l.items = append(l.items, vs...)
	})
}

// Insert places v at index i, shifting later elements. i may equal the
// length.
func (l *List[T]) Insert(i int, v T) error {
	var rangeErr error
	err := l.write(func() {
		if i < 0 || i > len(l.items) {
			rangeErr = l.outOfRange("Insert", i, len(l.items))
			return
		}
		l.items = slices.Insert(l.items, i, v)
	})
	if err != nil {
		return err
	}
	return rangeErr
}

func (l *List[T]) Get(i int) (v T, err error) {
	var rangeErr error
	err = l.read(func() {
		if i < 0 || i >= len(l.items) {
			rangeErr = l.outOfRange("Get", i, len(l.items))
			return
		}
		v = l.items[i]
	})
	if err != nil {
		return v, err
	}
	return v, rangeErr
}

func (l *List[T]) Set(i int, v T) error {
	var rangeErr error
	err := l.write(func() {
		if i < 0 || i >= len(l.items) {
			rangeErr = l.outOfRange("Set", i, len(l.items))
			return
		}
		l.items[i] = v
	})
	if err != nil {
		return err
	}
	return rangeErr
}

// RemoveAt deletes and returns the element at index i.
func (l *List[T]) RemoveAt(i int) (v T, err error) {
	var rangeErr error
	err = l.write(func() {
		if i < 0 || i >= len(l.items) {
			rangeErr = l.outOfRange("RemoveAt", i, len(l.items))
			return
		}
		v = l.items[i]
		l.items = slices.Delete(l.items, i, i+1)
	})
	if err != nil {
		return v, err
	}
	return v, rangeErr
}

// RemoveFunc deletes every element matching pred and returns how many were
// removed. The write lock is taken only if something matches.
func (l *List[T]) RemoveFunc(pred func(T) bool) (removed int, err error) {
	err = l.checkThenAct(
		func() bool {
			return slices.ContainsFunc(l.items, pred)
		},
		func() {
			before := len(l.items)
			l.items = slices.DeleteFunc(l.items, pred)
			removed = before - len(l.items)
		},
	)
	return removed, err
}

// IndexFunc returns the index of the first element matching pred, or -1.
func (l *List[T]) IndexFunc(pred func(T) bool) (i int, err error) {
	i = -1
	err = l.read(func() {
		i = slices.IndexFunc(l.items, pred)
	})
	return i, err
}

// AppendIfAbsent appends v unless an element already matches pred.
func (l *List[T]) AppendIfAbsent(pred func(T) bool, v T) (appended bool, err error) {
	err = l.checkThenAct(
		func() bool {
			return !slices.ContainsFunc(l.items, pred)
		},
		func() {
			l.items = append(l.items, v)
			appended = true
		},
	)
	return appended, err
}

func (l *List[T]) Len() (n int, err error) {
	err = l.read(func() {
		n = len(l.items)
	})
	return n, err
}

func (l *List[T]) Clear() (removed int, err error) {
	err = l.write(func() {
		removed = len(l.items)
		clear(l.items)
		l.items = l.items[:0]
	})
	if err == nil {
		l.logger().Debug("cleared", "removed", removed)
	}
	return removed, err
}

// Snapshot returns a copy of the elements in order.
func (l *List[T]) Snapshot() (items []T, err error) {
	err = l.read(func() {
		items = slices.Clone(l.items)
	})
	if items == nil && err == nil {
		items = []T{}
	}
	return items, err
}

// All returns a sequence of index/element pairs over a snapshot of the list.
func (l *List[T]) All() (iter.Seq2[int, T], error) {
	items, err := l.Snapshot()
	if err != nil {
		return nil, err
	}
	return slices.All(items), nil
}
