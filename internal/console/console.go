// Package console is the interactive terminal front end of the order book.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/moura95/limit-order-book/config"
	"github.com/moura95/limit-order-book/internal/engine"
	"github.com/moura95/limit-order-book/internal/ledger"
	"github.com/moura95/limit-order-book/internal/orderbook"
	"github.com/moura95/limit-order-book/pkg/logger"
	"github.com/moura95/limit-order-book/pkg/utils"
)

const Version = "1.0.0"

const lineWidth = 64

// Engine is what the console drives.
type Engine interface {
	PlaceOrder(side orderbook.Side, price, quantity float64) (orderbook.Order, []orderbook.Trade, error)
	CancelOrder(orderID uint64) (orderbook.Order, error)
	Match() []orderbook.Trade
	Snapshot(depth int) engine.Snapshot
	RecentTrades(n int) []ledger.Entry
	PriceTick() float64
}

// MetricsWriter renders metrics as text.
type MetricsWriter interface {
	WriteText(w io.Writer) error
}

type Console struct {
	config  config.ConsoleConfig
	engine  Engine
	metrics MetricsWriter
	in      *bufio.Scanner
	out     io.Writer
}

// NewConsole reads commands from in and writes screens to out. metrics may
// be nil.
func NewConsole(cfg config.ConsoleConfig, eng Engine, metrics MetricsWriter, in io.Reader, out io.Writer) *Console {
	return &Console{
		config:  cfg,
		engine:  eng,
		metrics: metrics,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run shows the menu until the user exits, input ends or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	logger.Infof("Console started (version %s)", Version)

	c.rule('=')
	c.printf("  ORDER BOOK  v%s\n", Version)
	c.rule('=')
	c.showBook()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.showMenu()
		choice, ok := c.readLine()
		if !ok {
			return c.in.Err()
		}

		switch strings.ToLower(choice) {
		case "1":
			c.addOrder(orderbook.Buy)
		case "2":
			c.addOrder(orderbook.Sell)
		case "3":
			c.showBook()
		case "4":
			c.showTrades()
		case "5":
			c.cancelOrder()
		case "6":
			c.match()
		case "7":
			c.showMetrics()
		case "0", "q", "quit", "exit":
			c.printf("  Bye.\n")
			return nil
		case "":
		default:
			c.printf("  Invalid choice %q\n", choice)
		}
	}
}

func (c *Console) showMenu() {
	c.rule('-')
	c.printf("  [1] Add BUY order     [2] Add SELL order\n")
	c.printf("  [3] View order book   [4] View recent trades\n")
	c.printf("  [5] Cancel order      [6] Match now\n")
	c.printf("  [7] Metrics           [0] Exit\n")
	c.rule('-')
	c.printf("  Enter choice: ")
}

func (c *Console) addOrder(side orderbook.Side) {
	c.printf("\n  ADD %s ORDER\n", side)

	price, ok := c.readPositive("Price")
	if !ok {
		return
	}
	qty, ok := c.readPositive("Quantity")
	if !ok {
		return
	}

	order, trades, err := c.engine.PlaceOrder(side, price.InexactFloat64(), qty.InexactFloat64())
	if err != nil {
		c.printf("  Order rejected: %v\n", err)
		if errors.Is(err, orderbook.ErrPriceNotOnTick) {
			nearest := utils.RoundToTick(price.InexactFloat64(), c.engine.PriceTick())
			c.printf("  Nearest valid price: %s\n", decimal.NewFromFloat(nearest).String())
		}
		return
	}

	c.printf("  Order #%d created: %s %s @ %s\n", order.ID, side, qty.String(), price.StringFixed(2))
	c.printTrades(trades)
	c.printf("  Status: %s, remaining %s\n", order.Status(), formatQty(order.Remaining()))
}

func (c *Console) cancelOrder() {
	c.printf("  Order id: ")
	line, ok := c.readLine()
	if !ok {
		return
	}
	id, err := strconv.ParseUint(line, 10, 64)
	if err != nil || id == 0 {
		c.printf("  Invalid order id %q\n", line)
		return
	}

	order, err := c.engine.CancelOrder(id)
	if errors.Is(err, orderbook.ErrOrderNotFound) {
		c.printf("  Order #%d is not resting in the book\n", id)
		return
	}
	if err != nil {
		c.printf("  Cancel failed: %v\n", err)
		return
	}
	c.printf("  Order #%d cancelled (%s filled, %s unfilled)\n",
		order.ID, formatQty(order.Filled()), formatQty(order.Remaining()))
}

func (c *Console) match() {
	trades := c.engine.Match()
	if len(trades) == 0 {
		c.printf("  No crossing orders\n")
		return
	}
	c.printTrades(trades)
}

func (c *Console) showBook() {
	s := c.engine.Snapshot(c.config.Depth)

	c.printf("\n")
	c.printf("  Best Bid: %s | Best Ask: %s | Spread: %s | Tick: %s\n",
		formatPrice(s.BestBid, s.HasBid),
		formatPrice(s.BestAsk, s.HasAsk),
		formatPrice(s.Spread, s.HasSpread()),
		formatTick(s.PriceTick))
	c.rule('-')

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "  SIDE\tPRICE\tQUANTITY\tORDERS\t\n")
	for i := len(s.Asks) - 1; i >= 0; i-- {
		l := s.Asks[i]
		fmt.Fprintf(tw, "  ASK\t%.2f\t%s\t%d\t\n", l.Price, formatQty(l.Quantity), l.Orders)
	}
	for _, l := range s.Bids {
		fmt.Fprintf(tw, "  BID\t%.2f\t%s\t%d\t\n", l.Price, formatQty(l.Quantity), l.Orders)
	}
	_ = tw.Flush()

	c.printf("  %d resting orders, %d trades, volume %s, notional %s\n",
		s.Resting, s.Trades, s.Volume.String(), s.Notional.StringFixed(2))
}

func (c *Console) showTrades() {
	entries := c.engine.RecentTrades(c.config.RecentTrades)

	c.printf("\n  RECENT TRADES\n")
	c.rule('-')
	if len(entries) == 0 {
		c.printf("  No trades yet\n")
		return
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "  SEQ\tBUY ORDER\tSELL ORDER\tPRICE\tQUANTITY\tTIME\t\n")
	for _, e := range entries {
		fmt.Fprintf(tw, "  %d\t%d\t%d\t%.2f\t%s\t%s\t\n",
			e.Seq, e.BuyOrderID, e.SellOrderID, e.Price, formatQty(e.Quantity),
			e.ExecutedAt.Format("15:04:05"))
	}
	_ = tw.Flush()
}

func (c *Console) showMetrics() {
	if c.metrics == nil {
		c.printf("  Metrics are disabled\n")
		return
	}
	if err := c.metrics.WriteText(c.out); err != nil {
		c.printf("  Metrics unavailable: %v\n", err)
	}
}

func (c *Console) printTrades(trades []orderbook.Trade) {
	for _, t := range trades {
		c.printf("  TRADE #%d: %s @ %.2f (buy #%d, sell #%d)\n",
			t.Seq, formatQty(t.Quantity), t.Price, t.BuyOrderID, t.SellOrderID)
	}
}

// readPositive prompts until it gets a number > 0. It gives up when input
// ends.
func (c *Console) readPositive(name string) (decimal.Decimal, bool) {
	for {
		c.printf("  %s: ", name)
		line, ok := c.readLine()
		if !ok {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(line)
		if err != nil || !d.IsPositive() {
			c.printf("  Invalid input: %s must be a positive number\n", strings.ToLower(name))
			continue
		}
		return d, true
	}
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) rule(ch byte) {
	c.printf("%s\n", strings.Repeat(string(ch), lineWidth))
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func formatPrice(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatTick(tick float64) string {
	if tick == 0 {
		return "none"
	}
	return decimal.NewFromFloat(tick).String()
}

func formatQty(v float64) string {
	return decimal.NewFromFloat(v).String()
}
