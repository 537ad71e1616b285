package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAdd(t *testing.T, ob *Orderbook, id uint64, side Side, price, qty float64) {
	t.Helper()
	o, err := NewOrder(id, side, price, qty)
	require.NoError(t, err)
	require.NoError(t, ob.AddOrder(o))
}

func TestOrderbook_Empty(t *testing.T) {
	ob := NewOrderbook()

	_, ok := ob.BestBid()
	assert.False(t, ok)
	_, ok = ob.BestAsk()
	assert.False(t, ok)
	_, ok = ob.Spread()
	assert.False(t, ok)
	assert.Empty(t, ob.MatchOrders())
	assert.Equal(t, 0, ob.Len())
}

func TestOrderbook_OneSidedSpread(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 99.5, 10)

	bid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, 99.5, bid)

	_, ok = ob.Spread()
	assert.False(t, ok, "spread needs both sides")
}

// BUY 100@99.50, BUY 150@99.00, SELL 120@100.50: nothing crosses.
func TestOrderbook_ScenarioA_NoCross(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 99.50, 100)
	mustAdd(t, ob, 2, Buy, 99.00, 150)
	mustAdd(t, ob, 3, Sell, 100.50, 120)

	trades := ob.MatchOrders()
	assert.Empty(t, trades)

	bid, _ := ob.BestBid()
	ask, _ := ob.BestAsk()
	spread, ok := ob.Spread()
	require.True(t, ok)
	assert.Equal(t, 99.50, bid)
	assert.Equal(t, 100.50, ask)
	assert.Equal(t, 1.00, spread)
	assert.Equal(t, 3, ob.Len())
}

// BUY 100@100.00 then SELL 80@99.00: one trade of 80.
func TestOrderbook_ScenarioB_PartialFill(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 100.00, 100)
	mustAdd(t, ob, 2, Sell, 99.00, 80)

	trades := ob.MatchOrders()
	require.Len(t, trades, 1)
	assert.Equal(t, Trade{Seq: 1, BuyOrderID: 1, SellOrderID: 2, Price: 99.00, Quantity: 80}, trades[0])

	buy, ok := ob.Order(1)
	require.True(t, ok, "partially filled buy keeps resting")
	assert.Equal(t, StatusPartiallyFilled, buy.Status())
	assert.Equal(t, 20.0, buy.Remaining())

	bid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, 100.00, bid)

	_, ok = ob.Order(2)
	assert.False(t, ok, "filled sell leaves the book")
	_, ok = ob.BestAsk()
	assert.False(t, ok)

	assert.Equal(t, []Level{{Price: 100, Quantity: 20, Orders: 1}}, ob.Depth(Buy, 0))
}

// SELL 50@101, SELL 50@101, BUY 70@101: the first sell fills before the second.
func TestOrderbook_ScenarioC_TimePriority(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 20, Sell, 101.00, 50)
	mustAdd(t, ob, 10, Sell, 101.00, 50)
	mustAdd(t, ob, 30, Buy, 101.00, 70)

	trades := ob.MatchOrders()
	require.Len(t, trades, 2)

	assert.Equal(t, uint64(20), trades[0].SellOrderID, "earliest arrival first, not lowest id")
	assert.Equal(t, 50.0, trades[0].Quantity)
	assert.Equal(t, uint64(10), trades[1].SellOrderID)
	assert.Equal(t, 20.0, trades[1].Quantity)
	for _, tr := range trades {
		assert.Equal(t, uint64(30), tr.BuyOrderID)
		assert.Equal(t, 101.00, tr.Price)
	}

	_, ok := ob.Order(20)
	assert.False(t, ok)
	second, ok := ob.Order(10)
	require.True(t, ok)
	assert.Equal(t, StatusPartiallyFilled, second.Status())
	assert.Equal(t, 30.0, second.Remaining())
	_, ok = ob.Order(30)
	assert.False(t, ok, "buy fully filled")
}

func TestOrderbook_TradePrintsAtAsk(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Sell, 98.00, 10)
	mustAdd(t, ob, 2, Buy, 105.00, 10)

	trades := ob.MatchOrders()
	require.Len(t, trades, 1)
	assert.Equal(t, 98.00, trades[0].Price)
}

func TestOrderbook_WalksLevels(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Sell, 100, 10)
	mustAdd(t, ob, 2, Sell, 101, 10)
	mustAdd(t, ob, 3, Sell, 103, 10)
	mustAdd(t, ob, 4, Buy, 102, 25)

	trades := ob.MatchOrders()
	require.Len(t, trades, 2)
	assert.Equal(t, 100.0, trades[0].Price)
	assert.Equal(t, 101.0, trades[1].Price)
	assert.Equal(t, []uint64{1, 2}, []uint64{trades[0].Seq, trades[1].Seq})

	bid, _ := ob.BestBid()
	ask, _ := ob.BestAsk()
	assert.Equal(t, 102.0, bid)
	assert.Equal(t, 103.0, ask)

	buy, ok := ob.Order(4)
	require.True(t, ok)
	assert.Equal(t, 5.0, buy.Remaining())
}

func TestOrderbook_MatchIsIdempotent(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 100, 100)
	mustAdd(t, ob, 2, Sell, 99, 80)
	mustAdd(t, ob, 3, Sell, 102, 10)

	require.NotEmpty(t, ob.MatchOrders())
	bids, asks := ob.Orders(Buy), ob.Orders(Sell)

	assert.Empty(t, ob.MatchOrders())
	assert.Equal(t, bids, ob.Orders(Buy))
	assert.Equal(t, asks, ob.Orders(Sell))
}

func TestOrderbook_AddDoesNotMatch(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 101, 10)
	mustAdd(t, ob, 2, Sell, 100, 10)

	bid, _ := ob.BestBid()
	ask, _ := ob.BestAsk()
	assert.Greater(t, bid, ask, "book may cross until MatchOrders runs")
	assert.Equal(t, 2, ob.Len())
}

func TestOrderbook_Ranking(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 98.5, 1)
	mustAdd(t, ob, 2, Buy, 99.5, 1)
	mustAdd(t, ob, 3, Buy, 99.0, 1)
	mustAdd(t, ob, 4, Sell, 101.5, 1)
	mustAdd(t, ob, 5, Sell, 100.5, 1)
	mustAdd(t, ob, 6, Sell, 101.0, 1)

	bid, _ := ob.BestBid()
	ask, _ := ob.BestAsk()
	assert.Equal(t, 99.5, bid)
	assert.Equal(t, 100.5, ask)

	var bidPrices, askPrices []float64
	for _, l := range ob.Depth(Buy, 0) {
		bidPrices = append(bidPrices, l.Price)
	}
	for _, l := range ob.Depth(Sell, 2) {
		askPrices = append(askPrices, l.Price)
	}
	assert.Equal(t, []float64{99.5, 99.0, 98.5}, bidPrices)
	assert.Equal(t, []float64{100.5, 101.0}, askPrices)
	assert.Equal(t, 3, ob.SideLen(Buy))
	assert.Equal(t, 3, ob.SideLen(Sell))
}

func TestOrderbook_RemoveOrder(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Sell, 100, 10)
	mustAdd(t, ob, 2, Sell, 100, 10)
	mustAdd(t, ob, 3, Buy, 99, 10)

	removed, err := ob.RemoveOrder(1)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, removed.Status())
	assert.Equal(t, uint64(1), removed.ID)

	_, err = ob.RemoveOrder(1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 2, ob.Len(), "repeat removal changes nothing")

	mustAdd(t, ob, 4, Buy, 100, 15)
	trades := ob.MatchOrders()
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(2), trades[0].SellOrderID, "removed order never trades")
	assert.Equal(t, 10.0, trades[0].Quantity)
}

func TestOrderbook_RemoveLastAtLevel(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 99, 10)
	mustAdd(t, ob, 2, Buy, 98, 10)

	_, err := ob.RemoveOrder(1)
	require.NoError(t, err)

	bid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, 98.0, bid)
	assert.Len(t, ob.Depth(Buy, 0), 1)
}

func TestOrderbook_RemovePartiallyFilled(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 100, 100)
	mustAdd(t, ob, 2, Sell, 100, 30)
	ob.MatchOrders()

	removed, err := ob.RemoveOrder(1)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, removed.Status())
	assert.Equal(t, 30.0, removed.Filled())
	assert.Equal(t, 0, ob.Len())
}

func TestOrderbook_AddOrderRejects(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 100, 1)

	assert.ErrorIs(t, ob.AddOrder(Order{ID: 1, Side: Sell, Price: 101, Quantity: 1}), ErrDuplicateOrderID)
	assert.ErrorIs(t, ob.AddOrder(Order{ID: 2, Side: Sell, Price: 0, Quantity: 1}), ErrInvalidPrice)
	assert.ErrorIs(t, ob.AddOrder(Order{ID: 3, Side: Sell, Price: 101, Quantity: -2}), ErrInvalidQuantity)
	assert.ErrorIs(t, ob.AddOrder(Order{ID: 4, Side: "", Price: 101, Quantity: 1}), ErrInvalidSide)

	filled := Order{ID: 6, Side: Sell, Price: 101, Quantity: 1}
	require.NoError(t, filled.Fill(1))
	assert.ErrorIs(t, ob.AddOrder(filled), ErrOrderClosed)

	cancelled := Order{ID: 7, Side: Sell, Price: 101, Quantity: 1}
	cancelled.Cancel()
	assert.ErrorIs(t, ob.AddOrder(cancelled), ErrOrderClosed)

	assert.Equal(t, 1, ob.Len())
}

func TestOrderbook_AddOrderCopies(t *testing.T) {
	ob := NewOrderbook()
	o, err := NewOrder(1, Buy, 100, 10)
	require.NoError(t, err)
	require.NoError(t, ob.AddOrder(o))

	require.NoError(t, o.Fill(5))
	o.Cancel()

	resting, ok := ob.Order(1)
	require.True(t, ok)
	assert.Equal(t, StatusOpen, resting.Status(), "caller copy does not reach the book")
	assert.Equal(t, 0.0, resting.Filled())
}

func TestOrderbook_PartiallyFilledAcceptedOnAdd(t *testing.T) {
	ob := NewOrderbook()
	o, err := NewOrder(1, Buy, 100, 10)
	require.NoError(t, err)
	require.NoError(t, o.Fill(4))

	require.NoError(t, ob.AddOrder(o))
	assert.Equal(t, []Level{{Price: 100, Quantity: 6, Orders: 1}}, ob.Depth(Buy, 0))
}

func TestOrderbook_DefaultAcceptsAnyPositivePrice(t *testing.T) {
	ob := NewOrderbook()
	assert.Equal(t, 0.0, ob.PriceTick())

	mustAdd(t, ob, 1, Buy, 99.505, 1)
	mustAdd(t, ob, 2, Sell, 0.1+0.2, 1)

	bid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, 99.505, bid)
}

func TestOrderbook_PriceTickRejectsOffGrid(t *testing.T) {
	ob := NewOrderbook(WithPriceTick(DefaultPriceTick))
	assert.Equal(t, 0.01, ob.PriceTick())

	assert.ErrorIs(t, ob.AddOrder(Order{ID: 1, Side: Buy, Price: 99.505, Quantity: 1}), ErrPriceNotOnTick)
	assert.ErrorIs(t, ob.AddOrder(Order{ID: 2, Side: Sell, Price: 0.1 + 0.2, Quantity: 1}), ErrPriceNotOnTick)
	mustAdd(t, ob, 3, Sell, 101.01, 1)
	assert.Equal(t, 1, ob.Len())
}

func TestOrderbook_ZeroTick(t *testing.T) {
	ob := NewOrderbook(WithPriceTick(0))
	assert.Equal(t, 0.0, ob.PriceTick())

	mustAdd(t, ob, 1, Buy, 99.123456, 1)
	mustAdd(t, ob, 2, Buy, 99.12346, 1)
	mustAdd(t, ob, 3, Sell, 99.2, 1)

	bid, _ := ob.BestBid()
	assert.Equal(t, 99.12346, bid)
	assert.Len(t, ob.Depth(Buy, 0), 2)

	spread, ok := ob.Spread()
	require.True(t, ok)
	assert.InDelta(t, 0.07654, spread, 1e-9)
}

func TestOrderbook_PartialFillMovesToBackOfLevel(t *testing.T) {
	ob := NewOrderbook()
	mustAdd(t, ob, 1, Buy, 100, 100)
	mustAdd(t, ob, 2, Buy, 100, 100)
	mustAdd(t, ob, 3, Sell, 99, 30)
	mustAdd(t, ob, 4, Sell, 99, 30)

	trades := ob.MatchOrders()
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].BuyOrderID)
	assert.Equal(t, uint64(2), trades[1].BuyOrderID, "partially filled order moved behind its peer")

	var ids []uint64
	for _, o := range ob.Orders(Buy) {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []uint64{1, 2}, ids)
}

func TestOrderbook_KeepQueuePositionOnPartialFill(t *testing.T) {
	ob := NewOrderbook(WithRequeueOnPartialFill(false))
	mustAdd(t, ob, 1, Buy, 100, 100)
	mustAdd(t, ob, 2, Buy, 100, 100)
	mustAdd(t, ob, 3, Sell, 99, 30)
	mustAdd(t, ob, 4, Sell, 99, 30)

	trades := ob.MatchOrders()
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].BuyOrderID)
	assert.Equal(t, uint64(1), trades[1].BuyOrderID, "head keeps priority after a partial fill")

	first, _ := ob.Order(1)
	assert.Equal(t, 40.0, first.Remaining())
}
