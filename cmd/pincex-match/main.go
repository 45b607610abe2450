// Demo binary for the matching engine: replays the classic order book
// scenarios end to end through the real config/logger/engine stack.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Aidin1998/pincex_matching/internal/config"
	"github.com/Aidin1998/pincex_matching/internal/engine"
	"github.com/Aidin1998/pincex_matching/internal/orderbook"
	"github.com/Aidin1998/pincex_matching/pkg/logger"
)

type scenario struct {
	name string
	run  func(context.Context, *engine.Engine, *config.Config) error
}

var scenarios = []scenario{
	{"basic_match", runBasicMatch},
	{"partial_fill", runPartialFill},
	{"price_improvement", runPriceImprovement},
	{"cancellation", runCancellation},
	{"market_depth", runMarketDepth},
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load("./config.yaml", "./configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create logger
	zapLogger, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Create matching engine
	eng, err := engine.New(cfg.EngineSettings(), zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create matching engine", zap.Error(err))
	}

	selected, err := selectScenarios(cfg.Demo.Scenarios)
	if err != nil {
		zapLogger.Fatal("Invalid demo configuration", zap.Error(err))
	}

	ctx := context.Background()
	for _, sc := range selected {
		eng.Reset()
		fmt.Printf("\n=== %s ===\n", sc.name)
		if err := sc.run(ctx, eng, cfg); err != nil {
			zapLogger.Fatal("Scenario failed", zap.String("scenario", sc.name), zap.Error(err))
		}
	}

	zapLogger.Info("All scenarios completed", zap.Int("count", len(selected)))
}

// selectScenarios resolves configured scenario names, keeping the canonical
// order. An empty list selects everything.
func selectScenarios(names []string) ([]scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		known := false
		for _, sc := range scenarios {
			if sc.name == name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		wanted[name] = true
	}
	var selected []scenario
	for _, sc := range scenarios {
		if wanted[sc.name] {
			selected = append(selected, sc)
		}
	}
	return selected, nil
}

func runBasicMatch(ctx context.Context, eng *engine.Engine, _ *config.Config) error {
	if _, err := eng.PlaceLimitOrder(ctx, "ALICE", orderbook.Sell, 10000, 100); err != nil {
		return err
	}
	result, err := eng.PlaceLimitOrder(ctx, "BOB", orderbook.Buy, 10000, 100)
	if err != nil {
		return err
	}
	printTrades(result.Trades)
	return nil
}

func runPartialFill(ctx context.Context, eng *engine.Engine, _ *config.Config) error {
	if _, err := eng.PlaceLimitOrder(ctx, "ALICE", orderbook.Sell, 9950, 500); err != nil {
		return err
	}
	result, err := eng.PlaceLimitOrder(ctx, "BOB", orderbook.Buy, 9950, 200)
	if err != nil {
		return err
	}
	printTrades(result.Trades)

	levels := eng.DepthLevels(orderbook.Sell, 1)
	if len(levels) == 1 {
		fmt.Printf("remaining on the ask: %d @ %d\n", levels[0].Quantity, levels[0].Price)
	}
	return nil
}

func runPriceImprovement(ctx context.Context, eng *engine.Engine, _ *config.Config) error {
	if _, err := eng.PlaceLimitOrder(ctx, "ALICE", orderbook.Sell, 10000, 100); err != nil {
		return err
	}
	// BOB is willing to pay 10100 but fills at ALICE's resting 10000.
	result, err := eng.PlaceLimitOrder(ctx, "BOB", orderbook.Buy, 10100, 100)
	if err != nil {
		return err
	}
	printTrades(result.Trades)
	return nil
}

func runCancellation(ctx context.Context, eng *engine.Engine, _ *config.Config) error {
	result, err := eng.PlaceLimitOrder(ctx, "ALICE", orderbook.Buy, 9900, 100)
	if err != nil {
		return err
	}
	fmt.Printf("order %d resting: %v\n", result.OrderID, result.Resting)
	fmt.Printf("cancel #1: %v\n", eng.Cancel(ctx, result.OrderID))
	fmt.Printf("cancel #2: %v\n", eng.Cancel(ctx, result.OrderID))
	return nil
}

func runMarketDepth(ctx context.Context, eng *engine.Engine, cfg *config.Config) error {
	orders := []struct {
		trader   string
		side     orderbook.Side
		price    orderbook.Price
		quantity orderbook.Quantity
	}{
		{"ALICE", orderbook.Buy, 9950, 100},
		{"BOB", orderbook.Buy, 9940, 250},
		{"CAROL", orderbook.Buy, 9950, 50},
		{"DAVE", orderbook.Sell, 10050, 75},
		{"ERIN", orderbook.Sell, 10060, 300},
		{"FRANK", orderbook.Sell, 10050, 125},
	}
	for _, o := range orders {
		if _, err := eng.PlaceLimitOrder(ctx, o.trader, o.side, o.price, o.quantity); err != nil {
			return err
		}
	}

	bids, asks := eng.Depth(cfg.Demo.Depth)
	for i := len(asks) - 1; i >= 0; i-- {
		fmt.Printf("  ask %8s x %s\n", asks[i][0], asks[i][1])
	}
	fmt.Println("  --------")
	for _, level := range bids {
		fmt.Printf("  bid %8s x %s\n", level[0], level[1])
	}

	if spread, ok := eng.Spread(); ok {
		mid, _ := eng.MidPrice()
		fmt.Printf("spread %d, mid %d\n", spread, mid)
	}
	return nil
}

func printTrades(trades []orderbook.Trade) {
	if len(trades) == 0 {
		fmt.Println("no trades")
		return
	}
	for _, trade := range trades {
		fmt.Printf("TRADE: %s\n", trade)
	}
}
