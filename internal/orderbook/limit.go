package orderbook

// Limit is a price level: resting orders at one price, in arrival order.
type Limit struct {
	PriceTicks  int64
	Price       float64
	Orders      []*Order
	TotalVolume float64
}

func NewLimit(priceTicks int64, price float64) *Limit {
	return &Limit{
		PriceTicks: priceTicks,
		Price:      price,
		Orders:     []*Order{},
	}
}

func (l *Limit) AddOrder(o *Order) {
	o.limit = l
	l.Orders = append(l.Orders, o)
	l.TotalVolume += o.Remaining()
}

func (l *Limit) DeleteOrder(o *Order) {
	for i := 0; i < len(l.Orders); i++ {
		if l.Orders[i].ID == o.ID {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.TotalVolume -= o.Remaining()
			if len(l.Orders) == 0 {
				l.TotalVolume = 0
			}
			o.limit = nil
			return
		}
	}
}

// Head is the oldest order at this price, nil when the level is empty.
func (l *Limit) Head() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// Fill fills o, which must rest at this level, and keeps TotalVolume in step.
func (l *Limit) Fill(o *Order, qty float64) error {
	before := o.Remaining()
	if err := o.Fill(qty); err != nil {
		return err
	}
	l.TotalVolume -= before - o.Remaining()
	return nil
}

// Requeue moves o behind every other order at this level.
func (l *Limit) Requeue(o *Order) {
	for i := 0; i < len(l.Orders); i++ {
		if l.Orders[i].ID == o.ID {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.Orders = append(l.Orders, o)
			return
		}
	}
}

func (l *Limit) Len() int {
	return len(l.Orders)
}

func (l *Limit) Empty() bool {
	return len(l.Orders) == 0
}
