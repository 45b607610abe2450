// =============================
// Pincex Matching Engine Service
// =============================
// This file implements the service front for a single order book: it owns the
// book, serializes access to it, and adds the operational concerns the pure
// core deliberately leaves out.
//
// How it works:
// - Every call takes one exclusive lock; the book itself carries no locks.
// - Trace IDs ride the context, with a generated fallback for callers that
//   bring none.
// - Order flow, rejections and trades are logged and counted; book gauges are
//   refreshed after every mutation.
//
// See comments before each type/function for more details.

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aidin1998/pincex_matching/internal/orderbook"
	"github.com/Aidin1998/pincex_matching/pkg/metrics"
)

// TraceIDKey is the context key for trace ID propagation
const TraceIDKey = "trace_id"

// TraceIDFromContext extracts the trace ID from context, or generates one if missing
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(TraceIDKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return uuid.New().String()
}

// Engine is the single-writer owner of one OrderBook. All access, reads
// included, goes through its lock.
type Engine struct {
	mu     sync.Mutex
	book   *orderbook.OrderBook
	cfg    Config
	logger *zap.Logger
}

// New validates cfg and builds an engine around a fresh book.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		book:   orderbook.NewWithCapacity(orderbook.Price(cfg.MaxPrice), cfg.MaxOrders),
		cfg:    cfg,
		logger: logger.Named("matching"),
	}, nil
}

// PlacementResult reports what happened to a submitted order.
type PlacementResult struct {
	OrderID orderbook.OrderID
	Trades  []orderbook.Trade
	Resting bool // a remainder stayed on the book
	TraceID string
}

// PlaceLimitOrder submits a limit order for the given trader. Trader names
// longer than eight bytes are truncated, matching the book's fixed-width ids.
func (e *Engine) PlaceLimitOrder(ctx context.Context, trader string, side orderbook.Side, price orderbook.Price, quantity orderbook.Quantity) (*PlacementResult, error) {
	traceID := TraceIDFromContext(ctx)
	start := time.Now()

	e.mu.Lock()
	id, trades, err := e.book.LimitOrder(orderbook.TraderIDFromString(trader), side, price, quantity)
	if err == nil {
		e.refreshGaugesLocked()
	}
	e.mu.Unlock()

	metrics.OrderLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		e.logger.Warn("order rejected",
			zap.String("trace_id", traceID),
			zap.String("trader", trader),
			zap.String("side", side.String()),
			zap.Uint32("price", uint32(price)),
			zap.Uint32("quantity", uint32(quantity)),
			zap.Error(err))
		return nil, err
	}

	var filled orderbook.Quantity
	for _, trade := range trades {
		filled += trade.Quantity
	}
	resting := filled < quantity

	metrics.OrdersProcessed.WithLabelValues(side.String()).Inc()
	metrics.TradesExecuted.Add(float64(len(trades)))

	e.logger.Debug("order placed",
		zap.String("trace_id", traceID),
		zap.Uint64("order_id", uint64(id)),
		zap.String("trader", trader),
		zap.String("side", side.String()),
		zap.Uint32("price", uint32(price)),
		zap.Uint32("quantity", uint32(quantity)),
		zap.Int("trades", len(trades)),
		zap.Bool("resting", resting))

	return &PlacementResult{OrderID: id, Trades: trades, Resting: resting, TraceID: traceID}, nil
}

// Cancel withdraws an open order. It reports true exactly once per order;
// unknown, filled and already-cancelled ids return false.
func (e *Engine) Cancel(ctx context.Context, id orderbook.OrderID) bool {
	traceID := TraceIDFromContext(ctx)

	e.mu.Lock()
	ok := e.book.CancelOrder(id)
	e.refreshGaugesLocked()
	e.mu.Unlock()

	result := "miss"
	if ok {
		result = "ok"
	}
	metrics.CancelsProcessed.WithLabelValues(result).Inc()

	e.logger.Debug("cancel processed",
		zap.String("trace_id", traceID),
		zap.Uint64("order_id", uint64(id)),
		zap.Bool("cancelled", ok))
	return ok
}

// BestBid returns the highest bid price, if any.
func (e *Engine) BestBid() (orderbook.Price, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.BestBid()
}

// BestAsk returns the lowest ask price, if any.
func (e *Engine) BestAsk() (orderbook.Price, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.BestAsk()
}

// Spread returns ask minus bid when both sides are quoted.
func (e *Engine) Spread() (orderbook.Price, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Spread()
}

// MidPrice returns the integer midpoint when both sides are quoted.
func (e *Engine) MidPrice() (orderbook.Price, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.MidPrice()
}

// Depth returns the top book levels as [price, quantity] string pairs, bids
// then asks. depth <= 0 falls back to the configured default.
func (e *Engine) Depth(depth int) ([][]string, [][]string) {
	if depth <= 0 {
		depth = e.cfg.SnapshotDepth
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.DepthSnapshot(depth)
}

// DepthLevels returns the typed variant of Depth for one side.
func (e *Engine) DepthLevels(side orderbook.Side, depth int) []orderbook.DepthLevel {
	if depth <= 0 {
		depth = e.cfg.SnapshotDepth
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.DepthLevels(side, depth)
}

// Snapshot returns the book's counters for monitoring and recovery.
func (e *Engine) Snapshot() orderbook.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Snapshot()
}

// TradeLog returns a copy of every trade since the last clear. The copy is
// the caller's to keep; the book's own log keeps growing underneath.
func (e *Engine) TradeLog() []orderbook.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	trades := e.book.Trades()
	out := make([]orderbook.Trade, len(trades))
	copy(out, trades)
	return out
}

// ClearTradeLog empties the trade log.
func (e *Engine) ClearTradeLog() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.book.ClearTrades()
}

// Reset returns the book to its post-construction state. Order ids keep
// counting up; ids from before the reset stay terminal.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.book.Reset()
	e.refreshGaugesLocked()
	e.mu.Unlock()

	e.logger.Info("order book reset")
}

func (e *Engine) refreshGaugesLocked() {
	snap := e.book.Snapshot()
	metrics.RestingOrders.Set(float64(snap.ActiveOrders))
	if bid, ok := e.book.BestBid(); ok {
		metrics.BestBid.Set(float64(bid))
	} else {
		metrics.BestBid.Set(0)
	}
	if ask, ok := e.book.BestAsk(); ok {
		metrics.BestAsk.Set(float64(ask))
	} else {
		metrics.BestAsk.Set(0)
	}
}

func rejectReason(err error) string {
	switch err {
	case orderbook.ErrInvalidOrder:
		return "invalid_order"
	case orderbook.ErrInvalidPrice:
		return "invalid_price"
	case orderbook.ErrOrderBookFull:
		return "book_full"
	default:
		return "internal"
	}
}
