package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBook keeps the price domain small so tests stay cheap; scenario
// prices live around 10000 cents.
func newTestBook() *OrderBook {
	return NewWithCapacity(20_000, 1<<10)
}

func TestOrderBook_SimpleBuyOrder(t *testing.T) {
	book := newTestBook()
	trader := TraderIDFromString("TRADER1")

	id, trades, err := book.LimitOrder(trader, Buy, 10000, 100)
	require.NoError(t, err)
	assert.Equal(t, OrderID(1), id)
	assert.Empty(t, trades) // no liquidity crossed, a normal outcome

	bid, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, Price(10000), bid)
	_, ok = book.BestAsk()
	assert.False(t, ok)
}

func TestOrderBook_SimpleMatch(t *testing.T) {
	book := newTestBook()
	buyer := TraderIDFromString("BUYER")
	seller := TraderIDFromString("SELLER")

	_, _, err := book.LimitOrder(seller, Sell, 10000, 100)
	require.NoError(t, err)

	_, trades, err := book.LimitOrder(buyer, Buy, 10000, 100)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, Trade{Buyer: buyer, Seller: seller, Price: 10000, Quantity: 100}, trades[0])

	// Both sides fully consumed.
	_, ok := book.BestBid()
	assert.False(t, ok)
	_, ok = book.BestAsk()
	assert.False(t, ok)
	assert.Equal(t, 0, book.Snapshot().ActiveOrders)
}

func TestOrderBook_PartialFill(t *testing.T) {
	book := newTestBook()
	buyer := TraderIDFromString("BUYER")
	seller := TraderIDFromString("SELLER")

	_, _, err := book.LimitOrder(seller, Sell, 9950, 500)
	require.NoError(t, err)

	_, trades, err := book.LimitOrder(buyer, Buy, 9950, 200)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(200), trades[0].Quantity)

	ask, ok := book.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, Price(9950), ask)

	levels := book.DepthLevels(Sell, 1)
	require.Len(t, levels, 1)
	assert.Equal(t, Quantity(300), levels[0].Quantity)
}

func TestOrderBook_PriceImprovement(t *testing.T) {
	book := newTestBook()
	buyer := TraderIDFromString("BUYER")
	seller := TraderIDFromString("SELLER")

	_, _, err := book.LimitOrder(seller, Sell, 10000, 100)
	require.NoError(t, err)

	// Buyer is willing to pay more; the trade still happens at the resting
	// seller's price.
	_, trades, err := book.LimitOrder(buyer, Buy, 10100, 100)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, Price(10000), trades[0].Price)
}

func TestOrderBook_CancelThenRecancel(t *testing.T) {
	book := newTestBook()
	trader := TraderIDFromString("TRADER1")

	id, _, err := book.LimitOrder(trader, Buy, 9900, 100)
	require.NoError(t, err)

	assert.True(t, book.CancelOrder(id))
	assert.False(t, book.CancelOrder(id))
}

func TestOrderBook_CancelUnknown(t *testing.T) {
	book := newTestBook()
	assert.False(t, book.CancelOrder(42))
}

func TestOrderBook_CancelAfterFill(t *testing.T) {
	book := newTestBook()
	buyer := TraderIDFromString("BUYER")
	seller := TraderIDFromString("SELLER")

	sellID, _, err := book.LimitOrder(seller, Sell, 10000, 100)
	require.NoError(t, err)
	_, trades, err := book.LimitOrder(buyer, Buy, 10000, 100)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	// Filled is terminal: no cancel possible anymore.
	assert.False(t, book.CancelOrder(sellID))
}

func TestOrderBook_SpreadAndMid(t *testing.T) {
	book := newTestBook()

	_, _, err := book.LimitOrder(TraderIDFromString("B"), Buy, 9900, 100)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(TraderIDFromString("S"), Sell, 10100, 100)
	require.NoError(t, err)

	bid, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, Price(9900), bid)
	ask, ok := book.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, Price(10100), ask)

	spread, ok := book.Spread()
	assert.True(t, ok)
	assert.Equal(t, Price(200), spread)

	mid, ok := book.MidPrice()
	assert.True(t, ok)
	assert.Equal(t, Price(10000), mid)
}

func TestOrderBook_SpreadNeedsBothSides(t *testing.T) {
	book := newTestBook()

	_, ok := book.Spread()
	assert.False(t, ok)
	_, ok = book.MidPrice()
	assert.False(t, ok)

	_, _, err := book.LimitOrder(TraderIDFromString("B"), Buy, 9900, 100)
	require.NoError(t, err)

	_, ok = book.Spread()
	assert.False(t, ok)
	_, ok = book.MidPrice()
	assert.False(t, ok)
}

func TestOrderBook_FIFOWithinLevel(t *testing.T) {
	book := newTestBook()
	first := TraderIDFromString("FIRST")
	second := TraderIDFromString("SECOND")
	buyer := TraderIDFromString("BUYER")

	_, _, err := book.LimitOrder(first, Sell, 10000, 100)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(second, Sell, 10000, 100)
	require.NoError(t, err)

	// 150 against 100+100: the earlier order fills completely before the
	// later one is touched.
	_, trades, err := book.LimitOrder(buyer, Buy, 10000, 150)
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, first, trades[0].Seller)
	assert.Equal(t, Quantity(100), trades[0].Quantity)
	assert.Equal(t, second, trades[1].Seller)
	assert.Equal(t, Quantity(50), trades[1].Quantity)

	levels := book.DepthLevels(Sell, 1)
	require.Len(t, levels, 1)
	assert.Equal(t, Quantity(50), levels[0].Quantity)
	assert.Equal(t, 1, levels[0].Orders)
}

func TestOrderBook_SweepMultipleLevels(t *testing.T) {
	book := newTestBook()
	seller := TraderIDFromString("SELLER")
	buyer := TraderIDFromString("BUYER")

	for _, price := range []Price{10000, 10010, 10020} {
		_, _, err := book.LimitOrder(seller, Sell, price, 100)
		require.NoError(t, err)
	}

	_, trades, err := book.LimitOrder(buyer, Buy, 10020, 250)
	require.NoError(t, err)

	require.Len(t, trades, 3)
	assert.Equal(t, Price(10000), trades[0].Price)
	assert.Equal(t, Quantity(100), trades[0].Quantity)
	assert.Equal(t, Price(10010), trades[1].Price)
	assert.Equal(t, Quantity(100), trades[1].Quantity)
	assert.Equal(t, Price(10020), trades[2].Price)
	assert.Equal(t, Quantity(50), trades[2].Quantity)

	ask, ok := book.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, Price(10020), ask)
	levels := book.DepthLevels(Sell, 1)
	require.Len(t, levels, 1)
	assert.Equal(t, Quantity(50), levels[0].Quantity)
}

func TestOrderBook_AggressorRemainderRests(t *testing.T) {
	book := newTestBook()
	seller := TraderIDFromString("SELLER")
	buyer := TraderIDFromString("BUYER")

	_, _, err := book.LimitOrder(seller, Sell, 10000, 100)
	require.NoError(t, err)

	id, trades, err := book.LimitOrder(buyer, Buy, 10010, 300)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, Price(10000), trades[0].Price)
	assert.Equal(t, Quantity(100), trades[0].Quantity)

	_, ok := book.BestAsk()
	assert.False(t, ok)
	bid, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, Price(10010), bid)

	levels := book.DepthLevels(Buy, 1)
	require.Len(t, levels, 1)
	assert.Equal(t, Quantity(200), levels[0].Quantity)

	// The remainder is a live order like any other.
	assert.True(t, book.CancelOrder(id))
}

func TestOrderBook_CancelledEntrySkippedByMatch(t *testing.T) {
	book := newTestBook()
	gone := TraderIDFromString("GONE")
	stay := TraderIDFromString("STAY")
	buyer := TraderIDFromString("BUYER")

	goneID, _, err := book.LimitOrder(gone, Sell, 10000, 100)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(stay, Sell, 10000, 80)
	require.NoError(t, err)
	require.True(t, book.CancelOrder(goneID))

	_, trades, err := book.LimitOrder(buyer, Buy, 10000, 80)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, stay, trades[0].Seller)
	assert.Equal(t, Quantity(80), trades[0].Quantity)

	// The walk consumed the live order and pruned the dead one with it.
	_, ok := book.BestAsk()
	assert.False(t, ok)
}

func TestOrderBook_PhantomBestAskAfterCancel(t *testing.T) {
	book := newTestBook()
	seller := TraderIDFromString("SELLER")
	buyer := TraderIDFromString("BUYER")

	id, _, err := book.LimitOrder(seller, Sell, 10000, 100)
	require.NoError(t, err)
	require.True(t, book.CancelOrder(id))

	// Cancellation is a single write to the slot: the level still links the
	// dead entry, so the best-ask cache keeps reporting it until a matching
	// walk prunes the chain.
	ask, ok := book.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, Price(10000), ask)
	snap := book.Snapshot()
	assert.True(t, snap.HasAsk)
	assert.Equal(t, 0, snap.ActiveOrders)

	// Depth is live-quantity based and already sees through the phantom.
	assert.Empty(t, book.DepthLevels(Sell, 5))

	// A marketable buy walks the phantom level, prunes it, finds nothing to
	// fill, and rests.
	_, trades, err := book.LimitOrder(buyer, Buy, 10000, 100)
	require.NoError(t, err)
	assert.Empty(t, trades)

	_, ok = book.BestAsk()
	assert.False(t, ok)
	bid, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, Price(10000), bid)
}

func TestOrderBook_PhantomLevelConsumedInPath(t *testing.T) {
	book := newTestBook()
	gone := TraderIDFromString("GONE")
	stay := TraderIDFromString("STAY")
	buyer := TraderIDFromString("BUYER")

	goneID, _, err := book.LimitOrder(gone, Sell, 10000, 100)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(stay, Sell, 10005, 100)
	require.NoError(t, err)
	require.True(t, book.CancelOrder(goneID))

	// The buy sweeps through the phantom level at 10000 and fills at 10005;
	// the remainder rests above both.
	_, trades, err := book.LimitOrder(buyer, Buy, 10010, 150)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, Price(10005), trades[0].Price)
	assert.Equal(t, Quantity(100), trades[0].Quantity)

	_, ok := book.BestAsk()
	assert.False(t, ok)
	bid, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, Price(10010), bid)
	levels := book.DepthLevels(Buy, 1)
	require.Len(t, levels, 1)
	assert.Equal(t, Quantity(50), levels[0].Quantity)
}

func TestOrderBook_InvalidInputs(t *testing.T) {
	book := NewWithCapacity(1000, 16)
	trader := TraderIDFromString("TRADER1")

	_, _, err := book.LimitOrder(trader, Buy, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, _, err = book.LimitOrder(trader, Buy, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, _, err = book.LimitOrder(trader, Buy, 1000, 10)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, _, err = book.LimitOrder(trader, Sell, 5000, 10)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	// No id was burned and nothing changed.
	assert.Equal(t, OrderID(1), book.NextOrderID())
	snap := book.Snapshot()
	assert.Equal(t, 0, snap.ActiveOrders)
	assert.False(t, snap.HasBid)
	assert.False(t, snap.HasAsk)
}

func TestOrderBook_BoundaryPrices(t *testing.T) {
	book := NewWithCapacity(100, 16)
	trader := TraderIDFromString("TRADER1")

	// Lowest and highest valid prices of a [1, 100) domain.
	_, _, err := book.LimitOrder(trader, Buy, 1, 10)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(trader, Sell, 99, 10)
	require.NoError(t, err)

	bid, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, Price(1), bid)
	ask, ok := book.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, Price(99), ask)
}

func TestOrderBook_CapacityExhausted(t *testing.T) {
	book := NewWithCapacity(1000, 2)
	trader := TraderIDFromString("TRADER1")

	id1, _, err := book.LimitOrder(trader, Buy, 100, 10)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(trader, Buy, 101, 10)
	require.NoError(t, err)

	_, _, err = book.LimitOrder(trader, Buy, 102, 10)
	assert.ErrorIs(t, err, ErrOrderBookFull)
	assert.Equal(t, OrderID(3), book.NextOrderID()) // refused order burned no id
	assert.Equal(t, 2, book.Snapshot().ActiveOrders)

	// Slots are never recycled: cancelling does not free capacity.
	require.True(t, book.CancelOrder(id1))
	_, _, err = book.LimitOrder(trader, Buy, 102, 10)
	assert.ErrorIs(t, err, ErrOrderBookFull)

	// Even a fully-matchable order is refused while the arena is full; the
	// book refuses up front rather than risk a half-applied call.
	_, _, err = book.LimitOrder(TraderIDFromString("SELLER"), Sell, 101, 10)
	assert.ErrorIs(t, err, ErrOrderBookFull)

	// Reset reclaims every slot.
	book.Reset()
	_, _, err = book.LimitOrder(trader, Buy, 102, 10)
	assert.NoError(t, err)
}

func TestOrderBook_IDsMonotonicAcrossReset(t *testing.T) {
	book := newTestBook()
	trader := TraderIDFromString("TRADER1")

	id1, _, err := book.LimitOrder(trader, Buy, 9900, 10)
	require.NoError(t, err)
	id2, _, err := book.LimitOrder(trader, Buy, 9901, 10)
	require.NoError(t, err)
	assert.Equal(t, OrderID(1), id1)
	assert.Equal(t, OrderID(2), id2)

	book.Reset()

	id3, _, err := book.LimitOrder(trader, Buy, 9900, 10)
	require.NoError(t, err)
	assert.Equal(t, OrderID(3), id3)

	// Stale ids from before the reset stay terminal.
	assert.False(t, book.CancelOrder(id1))
}

func TestOrderBook_Reset(t *testing.T) {
	book := newTestBook()
	buyer := TraderIDFromString("BUYER")
	seller := TraderIDFromString("SELLER")

	_, _, err := book.LimitOrder(seller, Sell, 10000, 100)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(buyer, Buy, 10000, 40)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(buyer, Buy, 9900, 40)
	require.NoError(t, err)

	book.Reset()

	snap := book.Snapshot()
	assert.False(t, snap.HasBid)
	assert.False(t, snap.HasAsk)
	assert.Equal(t, 0, snap.ActiveOrders)
	assert.Equal(t, 0, snap.TotalTrades)
	assert.Empty(t, book.Trades())

	// The book is fully usable again.
	_, trades, err := book.LimitOrder(buyer, Buy, 9950, 10)
	require.NoError(t, err)
	assert.Empty(t, trades)
	bid, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, Price(9950), bid)
}

func TestOrderBook_SetNextOrderID(t *testing.T) {
	book := newTestBook()
	trader := TraderIDFromString("TRADER1")

	book.SetNextOrderID(500)
	assert.Equal(t, OrderID(500), book.NextOrderID())

	id, _, err := book.LimitOrder(trader, Buy, 9900, 10)
	require.NoError(t, err)
	assert.Equal(t, OrderID(500), id)
	assert.Equal(t, OrderID(501), book.NextOrderID())
}

func TestOrderBook_TradeLog(t *testing.T) {
	book := newTestBook()
	buyer := TraderIDFromString("BUYER")
	seller := TraderIDFromString("SELLER")

	_, _, err := book.LimitOrder(seller, Sell, 10000, 100)
	require.NoError(t, err)
	_, first, err := book.LimitOrder(buyer, Buy, 10000, 60)
	require.NoError(t, err)
	_, second, err := book.LimitOrder(buyer, Buy, 10000, 40)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	log := book.Trades()
	require.Len(t, log, 2)
	assert.Equal(t, first[0], log[0])
	assert.Equal(t, second[0], log[1])
	assert.Equal(t, 2, book.Snapshot().TotalTrades)

	book.ClearTrades()
	assert.Empty(t, book.Trades())
	assert.Equal(t, 0, book.Snapshot().TotalTrades)
}

func TestOrderBook_PartialThenCancelRemainder(t *testing.T) {
	book := newTestBook()
	buyer := TraderIDFromString("BUYER")
	seller := TraderIDFromString("SELLER")

	sellID, _, err := book.LimitOrder(seller, Sell, 10000, 500)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(buyer, Buy, 10000, 100)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(buyer, Buy, 10000, 150)
	require.NoError(t, err)

	levels := book.DepthLevels(Sell, 1)
	require.Len(t, levels, 1)
	assert.Equal(t, Quantity(250), levels[0].Quantity)

	// A partially filled order is still live and cancellable, once.
	assert.True(t, book.CancelOrder(sellID))
	assert.False(t, book.CancelOrder(sellID))
	assert.Equal(t, 0, book.Snapshot().ActiveOrders)
}

func TestOrderBook_QuantityConservation(t *testing.T) {
	book := newTestBook()
	seller := TraderIDFromString("SELLER")
	buyer := TraderIDFromString("BUYER")

	_, _, err := book.LimitOrder(seller, Sell, 10000, 30)
	require.NoError(t, err)
	_, _, err = book.LimitOrder(seller, Sell, 10005, 45)
	require.NoError(t, err)

	_, trades, err := book.LimitOrder(buyer, Buy, 10010, 100)
	require.NoError(t, err)

	var filled Quantity
	for _, trade := range trades {
		filled += trade.Quantity
	}
	assert.Equal(t, Quantity(75), filled)

	levels := book.DepthLevels(Buy, 1)
	require.Len(t, levels, 1)
	assert.Equal(t, Quantity(100), filled+levels[0].Quantity)
}

func TestOrderBook_DefaultCapacities(t *testing.T) {
	book := New()

	assert.Equal(t, OrderID(1), book.NextOrderID())
	_, _, err := book.LimitOrder(TraderIDFromString("T"), Buy, DefaultMaxPrice-1, 1)
	assert.NoError(t, err)
	_, _, err = book.LimitOrder(TraderIDFromString("T"), Buy, DefaultMaxPrice, 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}
