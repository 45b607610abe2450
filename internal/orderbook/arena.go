package orderbook

import "math"

// OrderArena is a fixed-capacity bump allocator for order entries. Entries
// are appended into a flat array that never grows, moves or compacts, so a
// slot index stays valid (and the entry pointer behind it stable) for the
// life of the arena. Slots are never recycled: cancelled and filled orders
// keep their slot until Clear. Sizing the capacity is the caller's capacity
// planning, not something the arena adapts to at runtime.
type OrderArena struct {
	slots []OrderEntry
}

// NewOrderArena pre-reserves storage for capacity entries. No entries exist
// yet.
func NewOrderArena(capacity int) *OrderArena {
	if capacity < 0 {
		capacity = 0
	}
	if capacity > math.MaxInt32 {
		capacity = math.MaxInt32
	}
	return &OrderArena{slots: make([]OrderEntry, 0, capacity)}
}

// Alloc places entry into the next free slot and returns its index. ok is
// false when the arena is full; the arena is unchanged in that case.
func (a *OrderArena) Alloc(entry OrderEntry) (idx int32, ok bool) {
	if len(a.slots) == cap(a.slots) {
		return noIdx, false
	}
	a.slots = append(a.slots, entry)
	return int32(len(a.slots) - 1), true
}

// Get returns the entry at idx, or nil when idx is outside the allocated
// range. The pointer stays valid until Clear.
func (a *OrderArena) Get(idx int32) *OrderEntry {
	if idx < 0 || int(idx) >= len(a.slots) {
		return nil
	}
	return &a.slots[idx]
}

// Len returns the number of allocated slots, dead ones included.
func (a *OrderArena) Len() int {
	return len(a.slots)
}

// Cap returns the fixed slot capacity.
func (a *OrderArena) Cap() int {
	return cap(a.slots)
}

// Remaining returns how many slots are still free.
func (a *OrderArena) Remaining() int {
	return cap(a.slots) - len(a.slots)
}

// Empty reports whether no slot has been allocated.
func (a *OrderArena) Empty() bool {
	return len(a.slots) == 0
}

// Clear drops every slot and invalidates all previously issued indices. The
// caller must have vacated every price level and the order index first.
func (a *OrderArena) Clear() {
	a.slots = a.slots[:0]
}
