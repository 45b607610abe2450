// =============================
// Pincex Matching Core
// =============================
// This file implements the order book engine: a single-instrument limit
// order book with price-time priority.
//
// How it works:
// - Each side of the book is a dense array of price levels indexed by the
//   integer price itself, so reaching the level for a price is one array
//   access with no searching.
// - Resting orders live in a fixed arena; each price level chains its orders
//   through int32 slot indices, oldest first.
// - Matching walks the opposite side from the best price toward the
//   aggressor's limit, filling FIFO inside each level. Trades execute at the
//   resting order's price.
// - Cancellation zeroes the resting quantity in place and nothing else; the
//   chain sheds dead entries the next time a matching traversal passes
//   through that level.
//
// The engine is single-threaded on purpose: no locks, no goroutines, every
// call runs to completion. Callers that need concurrent access serialize
// outside; internal/engine does exactly that with one exclusive lock per
// book.

package orderbook

const (
	// DefaultMaxPrice bounds the price domain at $100,000.00 in cents. It
	// sizes both price-level arrays, so raising it costs memory up front.
	DefaultMaxPrice Price = 10_000_000

	// DefaultMaxOrders sizes the arena: the total number of resting orders
	// the book accepts between resets, since slots are never recycled.
	DefaultMaxOrders = 1_000_000
)

// OrderBook matches incoming limit orders against resting liquidity under
// price-time priority and keeps the residue. All memory is committed at
// construction; steady-state footprint does not change afterwards.
type OrderBook struct {
	bids []PricePoint // indexed by price; slots 1..maxPrice-1 are usable
	asks []PricePoint

	arena      *OrderArena
	orderIndex map[OrderID]int32 // live resting orders only

	// Cached best prices. bidMax == 0 means no bids, askMin == maxPrice
	// means no asks; both sentinels are unreachable as real prices because
	// submissions outside [1, maxPrice) are rejected up front. The caches
	// may point at a level holding only dead entries until a matching walk
	// prunes it.
	bidMax Price
	askMin Price

	maxPrice    Price
	nextOrderID OrderID
	trades      []Trade
}

// New creates a book with the default price domain and order capacity.
func New() *OrderBook {
	return NewWithCapacity(DefaultMaxPrice, DefaultMaxOrders)
}

// NewWithCapacity creates a book for prices in [1, maxPrice) holding at most
// maxOrders resting orders between resets.
func NewWithCapacity(maxPrice Price, maxOrders int) *OrderBook {
	if maxOrders < 0 {
		maxOrders = 0
	}
	bids := make([]PricePoint, maxPrice)
	asks := make([]PricePoint, maxPrice)
	vacateLevels(bids)
	vacateLevels(asks)
	return &OrderBook{
		bids:        bids,
		asks:        asks,
		arena:       NewOrderArena(maxOrders),
		orderIndex:  make(map[OrderID]int32, maxOrders),
		askMin:      maxPrice,
		maxPrice:    maxPrice,
		nextOrderID: 1,
	}
}

func vacateLevels(levels []PricePoint) {
	for i := range levels {
		levels[i] = PricePoint{first: noIdx, last: noIdx}
	}
}

// LimitOrder submits a limit order for trader. The order is matched against
// the opposite side and any remainder rests at price on its own side. The
// returned trades are this call's fills, also appended to the book's trade
// log; zero trades is a normal outcome. The order id is assigned once the
// order passes validation, whether or not anything matches.
//
// Trades always execute at the resting order's price: when the aggressor's
// limit is more generous than the resting price, the improvement goes to the
// aggressor, never the resting order.
func (b *OrderBook) LimitOrder(trader TraderID, side Side, price Price, quantity Quantity) (OrderID, []Trade, error) {
	if quantity == 0 || price == 0 {
		return 0, nil, ErrInvalidOrder
	}
	if price >= b.maxPrice {
		return 0, nil, ErrInvalidPrice
	}
	// An order consumes at most one slot (its resting remainder), so a full
	// arena refuses the order here, before any id is burned or fill settled.
	if b.arena.Remaining() == 0 {
		return 0, nil, ErrOrderBookFull
	}

	id := b.nextOrderID
	b.nextOrderID++

	remaining := quantity
	var trades []Trade

	if side == Buy {
		// Consume asks from the cheapest level up to the buyer's limit.
		for remaining > 0 && b.askMin <= price {
			remaining, trades = b.matchLevel(trader, side, b.askMin, remaining, trades)
			b.refreshAskMin()
		}
		if remaining > 0 {
			b.rest(id, trader, side, price, remaining)
			if price > b.bidMax {
				b.bidMax = price
			}
		}
	} else {
		// Consume bids from the dearest level down to the seller's limit.
		for remaining > 0 && b.bidMax >= price {
			remaining, trades = b.matchLevel(trader, side, b.bidMax, remaining, trades)
			b.refreshBidMax()
		}
		if remaining > 0 {
			b.rest(id, trader, side, price, remaining)
			if price < b.askMin {
				b.askMin = price
			}
		}
	}

	b.trades = append(b.trades, trades...)
	return id, trades, nil
}

// matchLevel fills the aggressor against the FIFO chain at price on the
// opposite side. It returns the quantity still unfilled and the trade slice
// extended with this level's fills.
//
// Dead entries are skipped, and the level's head is moved up to the first
// entry that survives the walk so the dead prefix is dropped for good. A
// chain walked to its end with nothing live left clears the level outright;
// that clearing is what lets the caller's best-price refresh move past the
// price.
func (b *OrderBook) matchLevel(aggressor TraderID, side Side, price Price, remaining Quantity, trades []Trade) (Quantity, []Trade) {
	var level *PricePoint
	if side == Buy {
		level = &b.asks[price]
	} else {
		level = &b.bids[price]
	}

	current := level.first
	firstActive := noIdx

	for remaining > 0 && current != noIdx {
		entry := b.arena.Get(current)
		if entry.Active() {
			if firstActive == noIdx {
				firstActive = current
			}
			fill := min(remaining, entry.Quantity)
			if side == Buy {
				trades = append(trades, Trade{Buyer: aggressor, Seller: entry.Trader, Price: price, Quantity: fill})
			} else {
				trades = append(trades, Trade{Buyer: entry.Trader, Seller: aggressor, Price: price, Quantity: fill})
			}
			remaining -= fill
			entry.Quantity -= fill
			if entry.Quantity == 0 {
				delete(b.orderIndex, entry.ID)
				if firstActive == current {
					firstActive = noIdx
				}
			}
		}
		current = entry.next
		// Keep the head candidate pointed at the first entry outliving this
		// walk, even when the fill above just went terminal.
		if firstActive == noIdx && current != noIdx && b.arena.Get(current).Active() {
			firstActive = current
		}
	}

	switch {
	case firstActive == noIdx && current == noIdx:
		// Nothing live behind us and nothing ahead: the level is spent.
		level.first = noIdx
		level.last = noIdx
	case firstActive != noIdx:
		level.first = firstActive
	}
	return remaining, trades
}

// rest parks an unmatched remainder as a new arena entry at the tail of its
// price level, linking the previous tail's next before the tail moves.
func (b *OrderBook) rest(id OrderID, trader TraderID, side Side, price Price, quantity Quantity) {
	idx, ok := b.arena.Alloc(newOrderEntry(id, trader, quantity))
	if !ok {
		// LimitOrder reserves headroom before matching; a full arena cannot
		// reach this point.
		panic("orderbook: arena slot reservation violated")
	}
	b.orderIndex[id] = idx

	var level *PricePoint
	if side == Buy {
		level = &b.bids[price]
	} else {
		level = &b.asks[price]
	}
	if level.last != noIdx {
		b.arena.Get(level.last).next = idx
	}
	level.PushBack(idx)
}

// refreshAskMin advances the best-ask cache past structurally empty levels.
// Worst case this scans the rest of the price range; that is the price paid
// for O(1) placement and cancellation.
func (b *OrderBook) refreshAskMin() {
	for b.askMin < b.maxPrice && b.asks[b.askMin].Empty() {
		b.askMin++
	}
}

// refreshBidMax is the bid-side counterpart, walking down toward the no-bid
// sentinel 0.
func (b *OrderBook) refreshBidMax() {
	for b.bidMax > 0 && b.bids[b.bidMax].Empty() {
		b.bidMax--
	}
}

// CancelOrder cancels the resting order id with a single write to its slot.
// It reports true exactly once per id; unknown or already-terminal ids
// report false, because cancelling an already-gone order is an expected race
// for callers, not a fault. The slot stays linked in its level and is pruned
// the next time a matching traversal passes through, so a just-vacated price
// can still show as best until then.
func (b *OrderBook) CancelOrder(id OrderID) bool {
	idx, ok := b.orderIndex[id]
	if !ok {
		return false
	}
	entry := b.arena.Get(idx)
	if entry == nil {
		return false
	}
	entry.Cancel()
	delete(b.orderIndex, id)
	return true
}

// BestBid returns the highest bid price with at least one linked entry.
func (b *OrderBook) BestBid() (Price, bool) {
	if b.bidMax == 0 {
		return 0, false
	}
	return b.bidMax, true
}

// BestAsk returns the lowest ask price with at least one linked entry.
func (b *OrderBook) BestAsk() (Price, bool) {
	if b.askMin >= b.maxPrice {
		return 0, false
	}
	return b.askMin, true
}

// Spread returns ask minus bid when both sides are quoted and the ask sits
// strictly above the bid.
func (b *OrderBook) Spread() (Price, bool) {
	ask, okAsk := b.BestAsk()
	bid, okBid := b.BestBid()
	if !okAsk || !okBid || ask <= bid {
		return 0, false
	}
	return ask - bid, true
}

// MidPrice returns the integer midpoint of the best bid and ask.
func (b *OrderBook) MidPrice() (Price, bool) {
	ask, okAsk := b.BestAsk()
	bid, okBid := b.BestBid()
	if !okAsk || !okBid {
		return 0, false
	}
	return Price((uint64(ask) + uint64(bid)) / 2), true
}

// Trades returns the accumulated trade log. The slice aliases book state and
// is valid until the next LimitOrder, ClearTrades or Reset.
func (b *OrderBook) Trades() []Trade {
	return b.trades
}

// ClearTrades empties the trade log, typically after a collaborator drained
// it downstream.
func (b *OrderBook) ClearTrades() {
	b.trades = b.trades[:0]
}

// Snapshot is a read-only summary of book state.
type Snapshot struct {
	NextOrderID  OrderID
	BidMax       Price
	AskMin       Price
	HasBid       bool
	HasAsk       bool
	ActiveOrders int
	TotalTrades  int
}

// Snapshot summarizes the book without walking or mutating its structure.
func (b *OrderBook) Snapshot() Snapshot {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	return Snapshot{
		NextOrderID:  b.nextOrderID,
		BidMax:       bid,
		AskMin:       ask,
		HasBid:       hasBid,
		HasAsk:       hasAsk,
		ActiveOrders: len(b.orderIndex),
		TotalTrades:  len(b.trades),
	}
}

// NextOrderID returns the id the next accepted order will receive.
func (b *OrderBook) NextOrderID() OrderID {
	return b.nextOrderID
}

// SetNextOrderID overrides the id counter. Recovery paths that replay an
// external log use it to restore id continuity.
func (b *OrderBook) SetNextOrderID(id OrderID) {
	b.nextOrderID = id
}

// Reset returns the book to its post-construction state: every price level
// is vacated and the order index dropped before the arena reclaims its
// slots, never the other way around. The id counter is deliberately not
// rewound; ids stay unique across resets.
func (b *OrderBook) Reset() {
	vacateLevels(b.bids)
	vacateLevels(b.asks)
	clear(b.orderIndex)
	b.arena.Clear()
	b.bidMax = 0
	b.askMin = b.maxPrice
	b.trades = b.trades[:0]
}
