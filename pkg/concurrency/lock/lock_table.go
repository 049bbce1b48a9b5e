package lock

import (
	"maps"
	"slices"
	"time"
)

// Holder describes one live handle on a lock.
type Holder struct {
	ID         HandleID
	Mode       Mode
	Owner      int64 // goroutine ID, 0 when owner checks are disabled
	AcquiredAt time.Time
}

// HolderTable tracks the live handles of a single lock. It keeps two
// indexes: handle ID to holder, and owner goroutine to handle ID. The owner
// index only contains holders with a known owner.
//
// HolderTable is not safe for concurrent use; Lock guards it with its mutex.
type HolderTable struct {
	byHandle map[HandleID]*Holder
	byOwner  map[int64]HandleID
}

func NewHolderTable() *HolderTable {
	return &HolderTable{
		byHandle: make(map[HandleID]*Holder),
		byOwner:  make(map[int64]HandleID),
	}
}

func (ht *HolderTable) Add(h *Holder) {
	ht.byHandle[h.ID] = h
	if h.Owner != 0 {
		ht.byOwner[h.Owner] = h.ID
	}
}

func (ht *HolderTable) Remove(id HandleID) {
	h, exists := ht.byHandle[id]
	if !exists {
		return
	}

	delete(ht.byHandle, id)
	if h.Owner != 0 && ht.byOwner[h.Owner] == id {
		delete(ht.byOwner, h.Owner)
	}
}

// SetMode records a mode change of a live handle (upgrade or downgrade).
func (ht *HolderTable) SetMode(id HandleID, mode Mode) {
	if h, exists := ht.byHandle[id]; exists {
		h.Mode = mode
	}
}

// HeldBy returns the holder owned by the given goroutine, if any.
func (ht *HolderTable) HeldBy(owner int64) (Holder, bool) {
	if owner == 0 {
		return Holder{}, false
	}

	id, exists := ht.byOwner[owner]
	if !exists {
		return Holder{}, false
	}
	return *ht.byHandle[id], true
}

func (ht *HolderTable) Len() int {
	return len(ht.byHandle)
}

// All returns copies of every holder ordered by handle ID.
func (ht *HolderTable) All() []Holder {
	ids := slices.Sorted(maps.Keys(ht.byHandle))
	holders := make([]Holder, 0, len(ids))
	for _, id := range ids {
		holders = append(holders, *ht.byHandle[id])
	}
	return holders
}
