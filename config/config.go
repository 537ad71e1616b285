package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/moura95/limit-order-book/internal/engine"
	"github.com/moura95/limit-order-book/internal/orderbook"
	"github.com/moura95/limit-order-book/pkg/logger"
)

// Config is the runtime configuration of the order book shell.
type Config struct {
	Log     logger.Config      `yaml:"log"`
	Book    engine.Config      `yaml:"book"`
	Console ConsoleConfig      `yaml:"console"`
	Seed    []engine.SeedOrder `yaml:"seed"`
}

type ConsoleConfig struct {
	Depth        int `yaml:"depth"`         // price levels shown per side, 0 for all
	RecentTrades int `yaml:"recent_trades"` // trades listed by the trades view
}

// Default returns the built-in configuration, including the sample book.
func Default() Config {
	return Config{
		Log:  logger.DefaultConfig(),
		Book: engine.DefaultConfig(),
		Console: ConsoleConfig{
			Depth:        10,
			RecentTrades: 10,
		},
		Seed: []engine.SeedOrder{
			{Side: orderbook.Buy, Price: 99.50, Quantity: 100},
			{Side: orderbook.Buy, Price: 99.00, Quantity: 150},
			{Side: orderbook.Buy, Price: 98.50, Quantity: 200},
			{Side: orderbook.Sell, Price: 100.50, Quantity: 120},
			{Side: orderbook.Sell, Price: 101.00, Quantity: 180},
			{Side: orderbook.Sell, Price: 101.50, Quantity: 90},
		},
	}
}

// Load starts from Default, applies the YAML file at path (skipped when
// path is empty), then environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Log.Level = getEnv("OB_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("OB_LOG_FILE", cfg.Log.File)

	if v := os.Getenv("OB_PRICE_TICK"); v != "" {
		tick, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OB_PRICE_TICK: %w", err)
		}
		cfg.Book.PriceTick = tick
	}
	if v := os.Getenv("OB_AUTO_MATCH"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("OB_AUTO_MATCH: %w", err)
		}
		cfg.Book.AutoMatch = on
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if err := c.Book.Validate(); err != nil {
		return fmt.Errorf("book: %w", err)
	}
	if c.Console.Depth < 0 {
		return errors.New("console.depth must be >= 0")
	}
	if c.Console.RecentTrades <= 0 {
		return errors.New("console.recent_trades must be > 0")
	}
	for i, s := range c.Seed {
		if _, err := orderbook.NewOrder(uint64(i+1), s.Side, s.Price, s.Quantity); err != nil {
			return fmt.Errorf("seed[%d]: %w", i, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
