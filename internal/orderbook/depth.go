// --- Market depth snapshots ---
// Read-only aggregation of the book's top levels for feed publishers and API
// consumers. Walks price levels outward from the cached best prices; never
// prunes chains or moves the caches.

package orderbook

import (
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	// DefaultSnapshotDepth is used when callers pass a non-positive depth.
	DefaultSnapshotDepth = 20

	// MAX_SNAPSHOT_DEPTH is the hard cap for snapshot depth.
	MAX_SNAPSHOT_DEPTH = 1000
)

// DepthLevel is one aggregated price level of a depth snapshot.
type DepthLevel struct {
	Price    Price
	Quantity Quantity // live quantity summed over the level's FIFO chain
	Orders   int      // live orders at the level
}

// DepthLevels aggregates the top depth levels of one side, best price first:
// descending for bids, ascending for asks. Dead entries contribute nothing
// and levels holding only dead entries are skipped.
func (b *OrderBook) DepthLevels(side Side, depth int) []DepthLevel {
	depth = clampDepth(depth)
	levels := make([]DepthLevel, 0, depth)
	if side == Buy {
		for price := b.bidMax; price > 0 && len(levels) < depth; price-- {
			if lvl, ok := b.sumLevel(&b.bids[price], price); ok {
				levels = append(levels, lvl)
			}
		}
	} else {
		for price := b.askMin; price < b.maxPrice && len(levels) < depth; price++ {
			if lvl, ok := b.sumLevel(&b.asks[price], price); ok {
				levels = append(levels, lvl)
			}
		}
	}
	return levels
}

// DepthSnapshot renders the top depth levels of both sides as
// [price, quantity] string pairs, bids descending and asks ascending.
// Prices are cents rendered as exact two-decimal currency strings.
func (b *OrderBook) DepthSnapshot(depth int) (bids [][]string, asks [][]string) {
	bidLevels := b.DepthLevels(Buy, depth)
	askLevels := b.DepthLevels(Sell, depth)
	bids = make([][]string, 0, len(bidLevels))
	asks = make([][]string, 0, len(askLevels))
	for _, lvl := range bidLevels {
		bids = append(bids, []string{formatPrice(lvl.Price), formatQuantity(lvl.Quantity)})
	}
	for _, lvl := range askLevels {
		asks = append(asks, []string{formatPrice(lvl.Price), formatQuantity(lvl.Quantity)})
	}
	return bids, asks
}

// sumLevel totals the live entries of one chain.
func (b *OrderBook) sumLevel(level *PricePoint, price Price) (DepthLevel, bool) {
	lvl := DepthLevel{Price: price}
	for idx := level.first; idx != noIdx; {
		entry := b.arena.Get(idx)
		if entry.Active() {
			lvl.Quantity += entry.Quantity
			lvl.Orders++
		}
		idx = entry.next
	}
	if lvl.Orders == 0 {
		return DepthLevel{}, false
	}
	return lvl, true
}

func clampDepth(depth int) int {
	if depth <= 0 {
		return DefaultSnapshotDepth
	}
	if depth > MAX_SNAPSHOT_DEPTH {
		return MAX_SNAPSHOT_DEPTH
	}
	return depth
}

// formatPrice renders integer cents as an exact two-decimal currency string.
func formatPrice(p Price) string {
	return decimal.New(int64(p), -2).StringFixed(2)
}

func formatQuantity(q Quantity) string {
	return strconv.FormatUint(uint64(q), 10)
}
