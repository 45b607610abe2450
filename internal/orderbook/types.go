package orderbook

import (
	"fmt"
	"strings"
)

// TraderID identifies the owner of an order. It is a fixed eight-byte value
// so it compares and hashes by raw bytes and packs flat into an arena slot.
type TraderID [8]byte

// NewTraderID builds a TraderID from raw bytes.
func NewTraderID(b [8]byte) TraderID {
	return TraderID(b)
}

// TraderIDFromString builds a TraderID from a string, truncating input past
// eight bytes and zero-padding shorter input.
func TraderIDFromString(s string) TraderID {
	var id TraderID
	copy(id[:], s)
	return id
}

// Bytes returns the raw identifier bytes.
func (t TraderID) Bytes() [8]byte {
	return t
}

func (t TraderID) String() string {
	return strings.TrimRight(string(t[:]), "\x00")
}

// Side is the direction of an order.
type Side uint8

const (
	Buy Side = iota
	Sell
)

// Opposite returns the side an order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Price is an integer price in minor currency units (cents). Keeping prices
// integral end to end makes matching arithmetic exact; there is no rounding
// anywhere in the book. Orders must quote inside [1, maxPrice) of the owning
// book.
type Price uint32

// Quantity is an integer order size.
type Quantity uint32

// OrderID is assigned by the book at submission, monotonically from 1, and
// never reused for the lifetime of the book, not even across resets.
type OrderID uint64

// Trade records one fill between an aggressing and a resting order. A single
// incoming order can produce several trades as it walks the opposite book.
// The price is always the resting order's price.
type Trade struct {
	Buyer    TraderID
	Seller   TraderID
	Price    Price
	Quantity Quantity
}

func (t Trade) String() string {
	return fmt.Sprintf("%s <- %s @ %d x %d", t.Buyer, t.Seller, t.Price, t.Quantity)
}

// noIdx marks the absence of an arena slot in intrusive links.
const noIdx int32 = -1

// OrderEntry is the payload of one arena slot: a resting order plus the
// intrusive link to its successor in the price level's FIFO chain. Links are
// int32 slot indices, never pointers. Quantity == 0 marks the entry dead
// (filled or cancelled); the slot itself persists until the arena is cleared.
type OrderEntry struct {
	ID       OrderID
	Trader   TraderID
	Quantity Quantity
	next     int32
}

func newOrderEntry(id OrderID, trader TraderID, quantity Quantity) OrderEntry {
	return OrderEntry{ID: id, Trader: trader, Quantity: quantity, next: noIdx}
}

// Active reports whether the entry still carries resting quantity.
func (e *OrderEntry) Active() bool {
	return e.Quantity > 0
}

// Cancel kills the entry with a single store. The slot stays linked in its
// price level; matching traversals skip and prune dead entries lazily.
func (e *OrderEntry) Cancel() {
	e.Quantity = 0
}

// PricePoint holds the head and tail of the FIFO chain of resting orders at
// one exact price. A level whose entries are all dead is still structurally
// non-empty until a matching traversal prunes the chain.
type PricePoint struct {
	first int32
	last  int32
}

// Empty reports whether the level has no linked entries at all.
func (p *PricePoint) Empty() bool {
	return p.first == noIdx
}

// PushBack records idx as the new tail of the level. When the level is
// non-empty the caller must already have linked the previous tail's next to
// idx; only then may last move. Inverting those two steps corrupts the chain.
func (p *PricePoint) PushBack(idx int32) {
	if p.last == noIdx {
		p.first = idx
	}
	p.last = idx
}
