package primitive

import (
	"context"
	"fmt"
	"strings"

	lockerr "scopedlock/pkg/error"
)

// Kind selects the underlying primitive.
type Kind int

const (
	// ExclusiveOnly is a simple monitor: no concurrent readers.
	ExclusiveOnly Kind = iota
	// ReaderWriter admits concurrent readers.
	ReaderWriter
)

func (k Kind) String() string {
	switch k {
	case ExclusiveOnly:
		return "exclusiveOnly"
	case ReaderWriter:
		return "readerWriter"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the configuration spellings "exclusiveOnly" and
// "readerWriter" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exclusiveonly", "exclusive":
		return ExclusiveOnly, nil
	case "readerwriter", "rw":
		return ReaderWriter, nil
	}
	return 0, invalid("kind", s)
}

// Fairness selects who wins when readers and writers contend.
// It only affects the ReaderWriter kind.
type Fairness int

const (
	WriterPreferred Fairness = iota
	ReaderPreferred
)

func (f Fairness) String() string {
	switch f {
	case WriterPreferred:
		return "writerPreferred"
	case ReaderPreferred:
		return "readerPreferred"
	default:
		return fmt.Sprintf("Fairness(%d)", int(f))
	}
}

// ParseFairness accepts "writerPreferred" and "readerPreferred"
// (case-insensitive).
func ParseFairness(s string) (Fairness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "writerpreferred", "writer", "fifo":
		return WriterPreferred, nil
	case "readerpreferred", "reader":
		return ReaderPreferred, nil
	}
	return 0, invalid("fairness", s)
}

func invalid(field, value string) error {
	err := lockerr.New(lockerr.ErrCategoryUser, "INVALID_CONFIG", "invalid lock configuration")
	err.Detail = fmt.Sprintf("unknown %s %q", field, value)
	err.Component = "Primitive"
	return err
}

// Primitive admits or blocks callers. Release and Demote calls must match a
// successful acquisition or Promote; the caller keeps that bookkeeping.
type Primitive interface {
	AcquireShared(ctx context.Context) error
	ReleaseShared()

	AcquireUpgradable(ctx context.Context) error
	ReleaseUpgradable()

	// Promote turns the caller's upgradable hold into an exclusive one once
	// every shared holder has left. The bool reports whether the primitive
	// actually changed mode; it is false when the upgradable hold was
	// already exclusive.
	Promote(ctx context.Context) (bool, error)
	// Demote undoes a Promote that reported true.
	Demote()

	AcquireExclusive(ctx context.Context) error
	ReleaseExclusive()

	Kind() Kind
}

// New returns the primitive for kind. fairness is ignored for ExclusiveOnly.
// New panics on an unknown kind or fairness; callers validate first.
func New(kind Kind, fairness Fairness) Primitive {
	switch kind {
	case ExclusiveOnly:
		return newMonitor()
	case ReaderWriter:
	default:
		panic(invalid("kind", kind.String()))
	}

	switch fairness {
	case WriterPreferred:
		return newSemRW()
	case ReaderPreferred:
		return newCondRW()
	default:
		panic(invalid("fairness", fairness.String()))
	}
}
