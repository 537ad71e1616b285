package orderbook

// Epsilon absorbs floating point residue when comparing filled against
// original quantity.
const Epsilon = 1e-9

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) String() string { return string(s) }

func (s Side) Valid() bool { return s == Buy || s == Sell }

type OrderStatus string

const (
	StatusOpen            OrderStatus = "OPEN"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
)

func (s OrderStatus) String() string { return string(s) }
