package orderbook

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidPrice     = errors.New("price must be greater than 0")
	ErrInvalidQuantity  = errors.New("quantity must be greater than 0")
	ErrInvalidSide      = errors.New("invalid side")
	ErrOrderClosed      = errors.New("order is filled or cancelled")
	ErrOverfill         = errors.New("fill exceeds remaining quantity")
	ErrDuplicateOrderID = errors.New("duplicate order id")
	ErrPriceNotOnTick   = errors.New("price not aligned to tick")
)
