package orderbook

import "errors"

// Sentinel errors returned by LimitOrder. All of them are synchronous and
// leave the book untouched; the caller decides whether to retry, log or
// reject upstream. Cancelling an unknown or already-terminal order is not an
// error at all: CancelOrder reports it as false.
var (
	// ErrOrderBookFull means the arena has no free slot left. The order is
	// refused before any id is assigned or any fill happens.
	ErrOrderBookFull = errors.New("order book full")

	// ErrInvalidPrice means the price falls outside the book's price range.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidOrder means a zero-quantity or zero-price submission. Order
	// ids are a monotonic resource and are not burned on invalid input.
	ErrInvalidOrder = errors.New("invalid order")
)
