// Package ledger keeps the executed trades of a book in execution order
// together with running totals.
package ledger

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moura95/limit-order-book/internal/orderbook"
)

// Entry is a recorded trade.
type Entry struct {
	orderbook.Trade
	ExecutedAt time.Time
	Notional   decimal.Decimal
}

type Ledger struct {
	mu sync.RWMutex

	entries  []Entry
	filled   map[uint64]decimal.Decimal
	volume   decimal.Decimal
	notional decimal.Decimal
}

func New() *Ledger {
	return &Ledger{
		filled: make(map[uint64]decimal.Decimal),
	}
}

// Record appends trades stamped with at.
func (l *Ledger) Record(at time.Time, trades ...orderbook.Trade) {
	if len(trades) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, t := range trades {
		qty := decimal.NewFromFloat(t.Quantity)
		notional := decimal.NewFromFloat(t.Price).Mul(qty)

		l.entries = append(l.entries, Entry{
			Trade:      t,
			ExecutedAt: at,
			Notional:   notional,
		})
		l.filled[t.BuyOrderID] = l.filled[t.BuyOrderID].Add(qty)
		l.filled[t.SellOrderID] = l.filled[t.SellOrderID].Add(qty)
		l.volume = l.volume.Add(qty)
		l.notional = l.notional.Add(notional)
	}
}

// Recent returns up to n of the latest entries, oldest first.
// n <= 0 returns nothing.
func (l *Ledger) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// FilledFor is the total quantity traded by orderID on either side.
func (l *Ledger) FilledFor(orderID uint64) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filled[orderID]
}

// Volume is the total traded quantity.
func (l *Ledger) Volume() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.volume
}

// Notional is the sum of price times quantity over all trades.
func (l *Ledger) Notional() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.notional
}
