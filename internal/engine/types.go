package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/moura95/limit-order-book/internal/orderbook"
)

// Config controls how the engine runs its book.
type Config struct {
	// PriceTick is the price grid. 0 disables tick checks.
	PriceTick float64 `yaml:"price_tick"`
	// AutoMatch runs a matching pass after every accepted order.
	AutoMatch bool `yaml:"auto_match"`
	// RequeueOnPartialFill sends partially filled orders to the back of
	// their price level. Off, they keep their place at the head.
	RequeueOnPartialFill bool `yaml:"requeue_on_partial_fill"`
}

func DefaultConfig() Config {
	return Config{
		PriceTick:            orderbook.DefaultPriceTick,
		AutoMatch:            true,
		RequeueOnPartialFill: true,
	}
}

func (c Config) Validate() error {
	if c.PriceTick < 0 || math.IsNaN(c.PriceTick) || math.IsInf(c.PriceTick, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPriceTick, c.PriceTick)
	}
	return nil
}

// SeedOrder is a limit order loaded at startup.
type SeedOrder struct {
	Side     orderbook.Side `yaml:"side"`
	Price    float64        `yaml:"price"`
	Quantity float64        `yaml:"quantity"`
}

// Snapshot is a consistent read of the book.
type Snapshot struct {
	BestBid float64
	BestAsk float64
	Spread  float64
	HasBid  bool
	HasAsk  bool

	Bids []orderbook.Level
	Asks []orderbook.Level

	Resting   int
	Trades    int
	Volume    decimal.Decimal
	Notional  decimal.Decimal
	PriceTick float64
}

// HasSpread reports whether both sides have a resting order.
func (s Snapshot) HasSpread() bool {
	return s.HasBid && s.HasAsk
}
