package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type EngineConfig struct {
	// Principal is the account identity used to derive escrow addresses for
	// auction buyouts.
	Principal string

	// DBPath is the path to the BoltDB file backing the best-effort price and
	// pair-lookup cache. Default: "./data/swap-engine.db"
	DBPath string

	// PersistenceEnabled controls whether the local cache is written at all.
	// Default: true
	PersistenceEnabled bool

	// DebounceMs is the quiet period after the last quote trigger before the
	// first fetch. Default: 300
	DebounceMs int

	// RefreshIntervalMs is the poll cadence after the debounce settles.
	// Default: 10000
	RefreshIntervalMs int

	// DefaultSlippageBps is applied when a request omits slippage.
	// Default: 50 (0.5%)
	DefaultSlippageBps int

	// PriceTTLSeconds bounds how long a cached USD price is served without
	// hitting the feed. Default: 60
	PriceTTLSeconds int
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.Principal = common.GetEnvOrDefault("ENGINE_PRINCIPAL", "")
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/swap-engine.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("ENGINE_PERSISTENCE_ENABLED", "true") == "true"
	c.DebounceMs = common.GetEnvOrDefaultInt("ENGINE_DEBOUNCE_MS", 300)
	c.RefreshIntervalMs = common.GetEnvOrDefaultInt("ENGINE_REFRESH_INTERVAL_MS", 10000)
	c.DefaultSlippageBps = common.GetEnvOrDefaultInt("ENGINE_DEFAULT_SLIPPAGE_BPS", 50)
	c.PriceTTLSeconds = common.GetEnvOrDefaultInt("ENGINE_PRICE_TTL_SECONDS", 60)
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.DebounceMs <= 0 || c.RefreshIntervalMs <= 0 {
		return errors.New("invalid engine timer config")
	}
	if c.DefaultSlippageBps < 0 || c.DefaultSlippageBps > 10000 {
		return errors.New("invalid default slippage")
	}
	return nil
}
