package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moura95/limit-order-book/internal/ledger"
	"github.com/moura95/limit-order-book/internal/metrics"
	"github.com/moura95/limit-order-book/internal/orderbook"
	"github.com/moura95/limit-order-book/pkg/idgen"
	"github.com/moura95/limit-order-book/pkg/logger"
	"github.com/moura95/limit-order-book/pkg/utils"
)

// Engine serializes access to one order book and records what happens to
// it. All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	book    *orderbook.Orderbook
	ids     *idgen.Generator
	trades  *ledger.Ledger
	log     *logger.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewEngine builds an engine. log and m may be nil.
func NewEngine(cfg Config, log *logger.Logger, m *metrics.Collector) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		cfg: cfg,
		book: orderbook.NewOrderbook(
			orderbook.WithPriceTick(cfg.PriceTick),
			orderbook.WithRequeueOnPartialFill(cfg.RequeueOnPartialFill),
		),
		ids:     idgen.New(1),
		trades:  ledger.New(),
		log:     log.With("component", "engine"),
		metrics: m,
		now:     time.Now,
	}
	e.observeLocked()
	return e, nil
}

// =============================================================================
// ORDER OPERATIONS
// =============================================================================

// PlaceOrder assigns the next order id, rests the order and, with
// AutoMatch, runs a matching pass. Rejected orders do not consume an id.
func (e *Engine) PlaceOrder(side orderbook.Side, price, quantity float64) (orderbook.Order, []orderbook.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.newOrderLocked(side, price, quantity)
	if err != nil {
		return orderbook.Order{}, nil, err
	}

	trades, err := e.addLocked(order)
	if err != nil {
		return orderbook.Order{}, nil, err
	}
	return e.orderLocked(order), trades, nil
}

// Submit rests an order whose id was chosen by the caller. Ids are unique
// for the life of the engine: an id at or below the last one issued or
// observed is rejected even when that order has left the book.
func (e *Engine) Submit(order orderbook.Order) ([]orderbook.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if order.ID <= e.ids.Last() {
		err := fmt.Errorf("%w: %d already used", orderbook.ErrDuplicateOrderID, order.ID)
		e.reject(order.ID, order.Side, err)
		return nil, err
	}
	return e.addLocked(order)
}

// CancelOrder removes a resting order and returns it CANCELLED.
func (e *Engine) CancelOrder(orderID uint64) (orderbook.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.book.RemoveOrder(orderID)
	if err != nil {
		e.log.Warning("cancel failed", "order_id", orderID, "error", err)
		return orderbook.Order{}, err
	}

	e.metrics.OrderCancelled()
	e.log.Info("order cancelled",
		"order_id", order.ID,
		"side", order.Side,
		"filled", order.Filled(),
		"remaining", order.Remaining(),
	)
	e.observeLocked()
	return order, nil
}

// Match runs one matching pass.
func (e *Engine) Match() []orderbook.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	trades := e.matchLocked()
	e.observeLocked()
	return trades
}

// Seed places orders in sequence and matches once at the end. It stops at
// the first invalid order; orders before it stay in the book.
func (e *Engine) Seed(orders []SeedOrder) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, s := range orders {
		order, err := e.newOrderLocked(s.Side, s.Price, s.Quantity)
		if err == nil {
			err = e.restLocked(order)
		}
		if err != nil {
			e.observeLocked()
			return fmt.Errorf("%w #%d: %w", ErrInvalidSeed, i, err)
		}
	}

	trades := e.matchLocked()
	e.observeLocked()
	e.log.Info("book seeded", "orders", len(orders), "trades", len(trades))
	return nil
}

// newOrderLocked checks an incoming order against the book's rules and
// only then draws its id.
func (e *Engine) newOrderLocked(side orderbook.Side, price, quantity float64) (orderbook.Order, error) {
	order, err := orderbook.NewOrder(0, side, price, quantity)
	if err == nil && !utils.IsValidTick(price, e.book.PriceTick()) {
		err = fmt.Errorf("%w: %v (tick %v)", orderbook.ErrPriceNotOnTick, price, e.book.PriceTick())
	}
	if err != nil {
		e.reject(0, side, err)
		return orderbook.Order{}, err
	}
	order.ID = e.ids.Next()
	return order, nil
}

func (e *Engine) addLocked(order orderbook.Order) ([]orderbook.Trade, error) {
	if err := e.restLocked(order); err != nil {
		return nil, err
	}

	var trades []orderbook.Trade
	if e.cfg.AutoMatch {
		trades = e.matchLocked()
	}
	e.observeLocked()
	return trades, nil
}

func (e *Engine) restLocked(order orderbook.Order) error {
	if err := e.book.AddOrder(order); err != nil {
		e.reject(order.ID, order.Side, err)
		return err
	}
	e.ids.Observe(order.ID)

	e.metrics.OrderAccepted(string(order.Side))
	e.log.Info("order accepted",
		"order_id", order.ID,
		"side", order.Side,
		"price", order.Price,
		"quantity", order.Quantity,
	)
	return nil
}

func (e *Engine) matchLocked() []orderbook.Trade {
	trades := e.book.MatchOrders()
	if len(trades) == 0 {
		return nil
	}

	e.trades.Record(e.now(), trades...)
	for _, t := range trades {
		e.metrics.TradeExecuted(t.Quantity)
		e.log.Info("trade",
			"trade_seq", t.Seq,
			"buy_order_id", t.BuyOrderID,
			"sell_order_id", t.SellOrderID,
			"price", t.Price,
			"quantity", t.Quantity,
		)
	}
	return trades
}

func (e *Engine) reject(id uint64, side orderbook.Side, err error) {
	label := string(side)
	if !side.Valid() {
		label = "UNKNOWN"
	}
	e.metrics.OrderRejected(label, rejectReason(err))
	e.log.Warning("order rejected", "order_id", id, "side", side, "error", err)
}

// orderLocked returns the resting state of order, or the state it reached
// when it left the book by filling during the same call.
func (e *Engine) orderLocked(order orderbook.Order) orderbook.Order {
	if resting, ok := e.book.Order(order.ID); ok {
		return resting
	}
	filled, _ := e.trades.FilledFor(order.ID).Float64()
	if err := order.Fill(filled); err != nil {
		e.log.Error("rebuild of filled order failed", "order_id", order.ID, "filled", filled, "error", err)
	}
	return order
}

func (e *Engine) observeLocked() {
	bid, hasBid := e.book.BestBid()
	ask, hasAsk := e.book.BestAsk()
	spread, _ := e.book.Spread()
	e.metrics.ObserveBook(metrics.BookState{
		BestBid:      bid,
		BestAsk:      ask,
		Spread:       spread,
		HasBid:       hasBid,
		HasAsk:       hasAsk,
		RestingBuys:  e.book.SideLen(orderbook.Buy),
		RestingSells: e.book.SideLen(orderbook.Sell),
	})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, orderbook.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, orderbook.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, orderbook.ErrInvalidSide):
		return "invalid_side"
	case errors.Is(err, orderbook.ErrPriceNotOnTick):
		return "off_tick"
	case errors.Is(err, orderbook.ErrDuplicateOrderID):
		return "duplicate_id"
	case errors.Is(err, orderbook.ErrOrderClosed):
		return "closed"
	}
	return "other"
}

// =============================================================================
// READS
// =============================================================================

// Snapshot reads the top of book and up to depth levels per side
// (depth <= 0 for all).
func (e *Engine) Snapshot(depth int) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Bids:    e.book.Depth(orderbook.Buy, depth),
		Asks:    e.book.Depth(orderbook.Sell, depth),
		Resting:   e.book.Len(),
		Trades:    e.trades.Len(),
		Volume:    e.trades.Volume(),
		Notional:  e.trades.Notional(),
		PriceTick: e.book.PriceTick(),
	}
	s.BestBid, s.HasBid = e.book.BestBid()
	s.BestAsk, s.HasAsk = e.book.BestAsk()
	s.Spread, _ = e.book.Spread()
	return s
}

// Order looks up a resting order.
func (e *Engine) Order(orderID uint64) (orderbook.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Order(orderID)
}

// RecentTrades returns up to n of the latest trades, oldest first.
func (e *Engine) RecentTrades(n int) []ledger.Entry {
	return e.trades.Recent(n)
}

func (e *Engine) Ledger() *ledger.Ledger {
	return e.trades
}

// PriceTick is the price grid orders must sit on, 0 for none.
func (e *Engine) PriceTick() float64 {
	return e.book.PriceTick()
}
