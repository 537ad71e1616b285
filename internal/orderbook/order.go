package orderbook

import (
	"fmt"
	"math"
)

// Order is a plain limit order. ID, Side, Price and Quantity are fixed once
// the order is created; the filled quantity only moves through Fill.
type Order struct {
	ID       uint64
	Side     Side
	Price    float64
	Quantity float64

	filled    float64
	cancelled bool
	limit     *Limit
}

// NewOrder builds an OPEN order after checking side, price and quantity.
func NewOrder(id uint64, side Side, price, quantity float64) (Order, error) {
	o := Order{
		ID:       id,
		Side:     side,
		Price:    price,
		Quantity: quantity,
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Validate checks the immutable fields.
func (o *Order) Validate() error {
	if !o.Side.Valid() {
		return ErrInvalidSide
	}
	if !(o.Price > 0) || math.IsInf(o.Price, 0) {
		return ErrInvalidPrice
	}
	if !(o.Quantity > 0) || math.IsInf(o.Quantity, 0) {
		return ErrInvalidQuantity
	}
	return nil
}

// Fill adds qty to the filled quantity. The order must still be open and qty
// must not exceed what remains.
func (o *Order) Fill(qty float64) error {
	if !(qty >= 0) {
		return ErrInvalidQuantity
	}
	if !o.IsOpen() {
		return ErrOrderClosed
	}
	if qty > o.Remaining()+o.tolerance() {
		return ErrOverfill
	}
	if qty == 0 {
		return nil
	}
	o.filled += qty
	if o.Quantity-o.filled <= o.tolerance() {
		o.filled = o.Quantity
	}
	return nil
}

// tolerance is Epsilon for quantities of 1 and above and shrinks with
// smaller ones, so a tiny order is not filled by rounding residue alone.
func (o *Order) tolerance() float64 {
	return Epsilon * math.Min(1, o.Quantity)
}

// Cancel marks the order CANCELLED regardless of how much was filled.
func (o *Order) Cancel() {
	o.cancelled = true
}

func (o *Order) Filled() float64 {
	return o.filled
}

func (o *Order) Remaining() float64 {
	if r := o.Quantity - o.filled; r > 0 {
		return r
	}
	return 0
}

func (o *Order) Status() OrderStatus {
	switch {
	case o.cancelled:
		return StatusCancelled
	case o.filled == 0:
		return StatusOpen
	case o.Quantity-o.filled <= o.tolerance():
		return StatusFilled
	default:
		return StatusPartiallyFilled
	}
}

func (o *Order) IsFilled() bool {
	return o.Status() == StatusFilled
}

// IsOpen reports whether the order can still trade.
func (o *Order) IsOpen() bool {
	s := o.Status()
	return s == StatusOpen || s == StatusPartiallyFilled
}

// snapshot returns a detached copy safe to hand to callers.
func (o *Order) snapshot() Order {
	c := *o
	c.limit = nil
	return c
}

func (o *Order) String() string {
	return fmt.Sprintf("[ID:%d %s %.4f@%.2f filled:%.4f status:%s]",
		o.ID, o.Side, o.Quantity, o.Price, o.filled, o.Status())
}
