package lock

import (
	"fmt"
	"sync/atomic"
)

var handleCounter int64

// HandleID identifies a handle or cookie for its lifetime. IDs are unique
// across all locks in the process.
type HandleID int64

func nextHandleID() HandleID {
	return HandleID(atomic.AddInt64(&handleCounter, 1))
}

func (id HandleID) String() string {
	return fmt.Sprintf("H-%d", int64(id))
}
