package orderbook

import "fmt"

// Trade is one execution between the best buy and the best sell order.
// Price is always the sell order's limit price.
type Trade struct {
	Seq         uint64
	BuyOrderID  uint64
	SellOrderID uint64
	Price       float64
	Quantity    float64
}

func (t Trade) String() string {
	return fmt.Sprintf("[Trade #%d: %.4f @ %.2f | Buy:%d Sell:%d]",
		t.Seq, t.Quantity, t.Price, t.BuyOrderID, t.SellOrderID)
}
