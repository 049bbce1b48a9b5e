package lock

import "fmt"

// Mode identifies what a handle holds.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeUpgradableRead
	ModeUpgradedWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeUpgradableRead:
		return "upgradable-read"
	case ModeUpgradedWrite:
		return "upgraded-write"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// State is the logical state of a Lock.
type State int

const (
	StateFree State = iota
	StateReadHeld
	StateUpgradableReadHeld
	StateWriteHeld
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateReadHeld:
		return "read-held"
	case StateUpgradableReadHeld:
		return "upgradable-read-held"
	case StateWriteHeld:
		return "write-held"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a point-in-time view of a Lock's bookkeeping.
type Snapshot struct {
	State      State
	Readers    int  // plain readers, excluding the upgradable holder
	Upgradable bool // an upgradable handle is live
	Upgraded   bool // that handle currently holds a live cookie
	Writer     bool // a plain write handle is live
}
