package engine

import (
	"fmt"
	"math"

	"github.com/Aidin1998/pincex_matching/internal/orderbook"
)

// Config sizes the order book owned by an Engine.
type Config struct {
	// MaxPrice bounds the valid price range to [1, MaxPrice). It also sizes
	// the two price-level arrays, so memory grows linearly with it.
	MaxPrice uint32
	// MaxOrders caps how many order slots can be allocated between resets.
	// Slots are never reused, so this counts accepted resting orders, not
	// concurrently open ones.
	MaxOrders int
	// SnapshotDepth is the level count Depth falls back to when the caller
	// passes zero.
	SnapshotDepth int
}

// DefaultConfig mirrors the book's own defaults.
func DefaultConfig() Config {
	return Config{
		MaxPrice:      uint32(orderbook.DefaultMaxPrice),
		MaxOrders:     orderbook.DefaultMaxOrders,
		SnapshotDepth: orderbook.DefaultSnapshotDepth,
	}
}

// Validate reports the first problem with the configuration.
func (c Config) Validate() error {
	if c.MaxPrice < 2 {
		return fmt.Errorf("max price %d leaves no valid price: the range is [1, max)", c.MaxPrice)
	}
	if c.MaxOrders <= 0 {
		return fmt.Errorf("max orders must be positive, got %d", c.MaxOrders)
	}
	if c.MaxOrders > math.MaxInt32 {
		return fmt.Errorf("max orders %d exceeds the int32 slot index space", c.MaxOrders)
	}
	if c.SnapshotDepth < 0 {
		return fmt.Errorf("snapshot depth must not be negative, got %d", c.SnapshotDepth)
	}
	return nil
}
