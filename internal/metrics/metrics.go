// Package metrics exposes order book activity as Prometheus metrics.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "orderbook"

// Registry is where a Collector registers and what it renders from.
// *prometheus.Registry satisfies it.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// BookState is the top-of-book picture published after every change.
type BookState struct {
	BestBid, BestAsk, Spread  float64
	HasBid, HasAsk            bool
	RestingBuys, RestingSells int
}

// Collector holds the book metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry Registry

	ordersAccepted *prometheus.CounterVec
	ordersRejected *prometheus.CounterVec
	cancels        prometheus.Counter
	trades         prometheus.Counter
	volume         prometheus.Counter

	resting *prometheus.GaugeVec
	bestBid prometheus.Gauge
	bestAsk prometheus.Gauge
	spread  prometheus.Gauge
}

// NewCollector registers the book metrics on reg. A nil reg gets a fresh
// private registry.
func NewCollector(reg Registry) (*Collector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: reg,
		ordersAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_accepted_total",
			Help:      "Orders accepted into the book",
		}, []string{"side"}),
		ordersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Orders rejected before reaching the book",
		}, []string{"side", "reason"}),
		cancels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Resting orders removed by cancel",
		}),
		trades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Executed trades",
		}),
		volume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_quantity_total",
			Help:      "Sum of executed trade quantities",
		}),
		resting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Orders resting in the book",
		}, []string{"side"}),
		bestBid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_bid",
			Help:      "Highest resting buy price, 0 when no bids",
		}),
		bestAsk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_ask",
			Help:      "Lowest resting sell price, 0 when no asks",
		}),
		spread: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spread",
			Help:      "Best ask minus best bid, 0 when a side is empty",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.ordersAccepted, c.ordersRejected, c.cancels, c.trades, c.volume,
		c.resting, c.bestBid, c.bestAsk, c.spread,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OrderAccepted(side string) {
	if c == nil {
		return
	}
	c.ordersAccepted.WithLabelValues(side).Inc()
}

func (c *Collector) OrderRejected(side, reason string) {
	if c == nil {
		return
	}
	c.ordersRejected.WithLabelValues(side, reason).Inc()
}

func (c *Collector) OrderCancelled() {
	if c == nil {
		return
	}
	c.cancels.Inc()
}

// TradeExecuted counts one trade of qty.
func (c *Collector) TradeExecuted(qty float64) {
	if c == nil {
		return
	}
	c.trades.Inc()
	c.volume.Add(qty)
}

func (c *Collector) ObserveBook(s BookState) {
	if c == nil {
		return
	}
	c.resting.WithLabelValues("BUY").Set(float64(s.RestingBuys))
	c.resting.WithLabelValues("SELL").Set(float64(s.RestingSells))

	c.bestBid.Set(0)
	if s.HasBid {
		c.bestBid.Set(s.BestBid)
	}
	c.bestAsk.Set(0)
	if s.HasAsk {
		c.bestAsk.Set(s.BestAsk)
	}
	c.spread.Set(0)
	if s.HasBid && s.HasAsk {
		c.spread.Set(s.Spread)
	}
}

// WriteText renders every metric of the registry in the Prometheus text
// exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	if c == nil {
		return nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
