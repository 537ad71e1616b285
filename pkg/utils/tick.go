package utils

import (
	"github.com/shopspring/decimal"
)

// IsValidTick reports whether val is an exact multiple of tick once both are
// read back as their shortest decimal representation (99.5 is on a 0.01 tick,
// 99.505 is not).
func IsValidTick(val, tick float64) bool {
	if tick == 0.0 {
		return true
	}
	return decimal.NewFromFloat(val).Mod(decimal.NewFromFloat(tick)).IsZero()
}

func PriceToTicks(price, tick float64) int64 {
	if tick == 0.0 {
		return 0
	}
	return decimal.NewFromFloat(price).Div(decimal.NewFromFloat(tick)).Round(0).IntPart()
}

func TicksToPrice(ticks int64, tick float64) float64 {
	f, _ := decimal.NewFromInt(ticks).Mul(decimal.NewFromFloat(tick)).Float64()
	return f
}

// RoundToTick returns the multiple of tick nearest to val.
func RoundToTick(val, tick float64) float64 {
	if tick == 0.0 {
		return val
	}
	t := decimal.NewFromFloat(tick)
	f, _ := decimal.NewFromFloat(val).Div(t).Round(0).Mul(t).Float64()
	return f
}
