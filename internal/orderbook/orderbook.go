package orderbook

import (
	"fmt"
	"math"

	"github.com/google/btree"

	"github.com/moura95/limit-order-book/pkg/utils"
)

const (
	// DefaultPriceTick is the grid the engine applies unless configured
	// otherwise. A bare Orderbook has no grid.
	DefaultPriceTick = 0.01

	treeDegree = 16
)

// Level is a read-only view of one price level.
type Level struct {
	Price    float64
	Quantity float64
	Orders   int
}

type Option func(*Orderbook)

// WithPriceTick sets the price grid. Orders off the grid are rejected.
// A tick of 0, the default, accepts any positive price.
func WithPriceTick(tick float64) Option {
	return func(ob *Orderbook) {
		if tick >= 0 {
			ob.priceTick = tick
		}
	}
}

// WithRequeueOnPartialFill controls where a partially filled order goes
// after a trade. On (the default) it moves behind its peers at the same
// price; off it keeps its place at the head of the level.
func WithRequeueOnPartialFill(on bool) Option {
	return func(ob *Orderbook) {
		ob.requeuePartial = on
	}
}

// Orderbook keeps resting limit orders for a single instrument. It is not
// safe for concurrent use; callers serialize access.
type Orderbook struct {
	bids *btree.BTreeG[*Limit] // best (highest) price first
	asks *btree.BTreeG[*Limit] // best (lowest) price first

	// orders owns every resting order; price levels point into it.
	orders map[uint64]*Order

	priceTick      float64
	requeuePartial bool
	tradeSeq       uint64
}

func NewOrderbook(opts ...Option) *Orderbook {
	ob := &Orderbook{
		bids: btree.NewG(treeDegree, func(a, b *Limit) bool {
			return a.PriceTicks > b.PriceTicks
		}),
		asks: btree.NewG(treeDegree, func(a, b *Limit) bool {
			return a.PriceTicks < b.PriceTicks
		}),
		orders:         make(map[uint64]*Order),
		requeuePartial: true,
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

func (ob *Orderbook) PriceTick() float64 {
	return ob.priceTick
}

// AddOrder rests a copy of order at the tail of its price level. It never
// matches; call MatchOrders for that.
func (ob *Orderbook) AddOrder(order Order) error {
	if err := order.Validate(); err != nil {
		return err
	}
	if !order.IsOpen() {
		return ErrOrderClosed
	}
	if !utils.IsValidTick(order.Price, ob.priceTick) {
		return fmt.Errorf("%w: %v (tick %v)", ErrPriceNotOnTick, order.Price, ob.priceTick)
	}
	if _, exists := ob.orders[order.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateOrderID, order.ID)
	}

	o := order.snapshot()
	tree := ob.side(o.Side)
	key := ob.priceKey(o.Price)

	limit, ok := tree.Get(&Limit{PriceTicks: key})
	if !ok {
		limit = NewLimit(key, o.Price)
		tree.ReplaceOrInsert(limit)
	}
	limit.AddOrder(&o)
	ob.orders[o.ID] = &o

	return nil
}

// RemoveOrder takes a resting order out of the book and returns it marked
// CANCELLED. An unknown id leaves the book untouched and yields
// ErrOrderNotFound.
func (ob *Orderbook) RemoveOrder(orderID uint64) (Order, error) {
	order, exists := ob.orders[orderID]
	if !exists {
		return Order{}, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}

	if limit := order.limit; limit != nil {
		limit.DeleteOrder(order)
		if limit.Empty() {
			ob.side(order.Side).Delete(limit)
		}
	}
	delete(ob.orders, orderID)
	order.Cancel()

	return order.snapshot(), nil
}

// MatchOrders trades the best buy against the best sell until the book no
// longer crosses and returns the trades in execution order.
func (ob *Orderbook) MatchOrders() []Trade {
	var trades []Trade

	for {
		bidLimit, ok := ob.bids.Min()
		if !ok {
			break
		}
		askLimit, ok := ob.asks.Min()
		if !ok {
			break
		}
		if bidLimit.Price < askLimit.Price {
			break
		}

		buy, sell := bidLimit.Head(), askLimit.Head()
		qty := math.Min(buy.Remaining(), sell.Remaining())

		// Both heads are open and qty is within what each has left.
		_ = bidLimit.Fill(buy, qty)
		_ = askLimit.Fill(sell, qty)

		ob.tradeSeq++
		trades = append(trades, Trade{
			Seq:         ob.tradeSeq,
			BuyOrderID:  buy.ID,
			SellOrderID: sell.ID,
			Price:       sell.Price,
			Quantity:    qty,
		})

		ob.settle(ob.bids, bidLimit, buy)
		ob.settle(ob.asks, askLimit, sell)
	}

	return trades
}

// settle drops a filled order from the book and, unless head keeping was
// asked for, sends a partially filled one to the back of its level.
func (ob *Orderbook) settle(tree *btree.BTreeG[*Limit], limit *Limit, o *Order) {
	switch {
	case o.IsFilled():
		limit.DeleteOrder(o)
		delete(ob.orders, o.ID)
		if limit.Empty() {
			tree.Delete(limit)
		}
	case ob.requeuePartial:
		limit.Requeue(o)
	}
}

// BestBid returns the highest resting buy price.
func (ob *Orderbook) BestBid() (float64, bool) {
	limit, ok := ob.bids.Min()
	if !ok {
		return 0, false
	}
	return limit.Price, true
}

// BestAsk returns the lowest resting sell price.
func (ob *Orderbook) BestAsk() (float64, bool) {
	limit, ok := ob.asks.Min()
	if !ok {
		return 0, false
	}
	return limit.Price, true
}

// Spread is best ask minus best bid; false when either side is empty.
func (ob *Orderbook) Spread() (float64, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	if ob.priceTick > 0 {
		return utils.TicksToPrice(ob.priceKey(ask)-ob.priceKey(bid), ob.priceTick), true
	}
	return ask - bid, true
}

func (ob *Orderbook) Order(orderID uint64) (Order, bool) {
	order, exists := ob.orders[orderID]
	if !exists {
		return Order{}, false
	}
	return order.snapshot(), true
}

// Len is the number of resting orders on both sides.
func (ob *Orderbook) Len() int {
	return len(ob.orders)
}

// SideLen is the number of resting orders on one side.
func (ob *Orderbook) SideLen(side Side) int {
	n := 0
	ob.side(side).Ascend(func(l *Limit) bool {
		n += l.Len()
		return true
	})
	return n
}

// Depth lists up to maxLevels price levels of one side, best first.
// maxLevels <= 0 means all levels.
func (ob *Orderbook) Depth(side Side, maxLevels int) []Level {
	var levels []Level
	ob.side(side).Ascend(func(l *Limit) bool {
		levels = append(levels, Level{
			Price:    l.Price,
			Quantity: l.TotalVolume,
			Orders:   l.Len(),
		})
		return maxLevels <= 0 || len(levels) < maxLevels
	})
	return levels
}

// Orders returns copies of the resting orders of one side in matching
// priority.
func (ob *Orderbook) Orders(side Side) []Order {
	var out []Order
	ob.side(side).Ascend(func(l *Limit) bool {
		for _, o := range l.Orders {
			out = append(out, o.snapshot())
		}
		return true
	})
	return out
}

func (ob *Orderbook) side(s Side) *btree.BTreeG[*Limit] {
	if s == Buy {
		return ob.bids
	}
	return ob.asks
}

// priceKey maps a price to its level key. Without a tick grid the IEEE-754
// bit pattern is used, which orders the same way for positive floats.
func (ob *Orderbook) priceKey(price float64) int64 {
	if ob.priceTick > 0 {
		return utils.PriceToTicks(price, ob.priceTick)
	}
	return int64(math.Float64bits(price))
}
