// Package config defines the top-level configuration for the arbitrage bot
// and provides validation helpers.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBBOT_* environment variables.
type Config struct {
	Binance     BinanceConfig    `toml:"binance"`
	Polymarket  PolymarketConfig `toml:"polymarket"`
	Redis       RedisConfig      `toml:"redis"`
	Postgres    PostgresConfig   `toml:"postgres"`
	Engine      EngineConfig     `toml:"engine"`
	Filters     FiltersConfig    `toml:"filters"`
	Exits       ExitsConfig      `toml:"exits"`
	Notify      NotifyConfig     `toml:"notify"`
	MockTrading bool             `toml:"mock_trading"`
	LogLevel    string           `toml:"log_level"`
}

// BinanceConfig holds the market data feed endpoint.
type BinanceConfig struct {
	WsHost string `toml:"ws_host"`
}

// PolymarketConfig holds venue API endpoints.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	ClobHost  string `toml:"clob_host"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables the
// Redis price mirror and event bus.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// PostgresConfig holds ledger database parameters. An empty DSN disables
// ledger persistence (the in-memory ledger always runs).
type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	MaxConns int    `toml:"max_conns"`
}

// EngineConfig holds signal generation parameters.
type EngineConfig struct {
	// MaxEntryPriceCents rejects entries above this token price; quotes far
	// from 50c revert hard against the position.
	MaxEntryPriceCents  float64 `toml:"max_entry_price_cents"`
	BaseSizeUSD         float64 `toml:"base_size_usd"`
	MinPositionUSD      float64 `toml:"min_position_usd"`
	MaxPositionUSD      float64 `toml:"max_position_usd"`
	CooldownSeconds     int     `toml:"cooldown_seconds"`
	ContextStaleSeconds int     `toml:"context_stale_seconds"`
	EvalIntervalMs      int     `toml:"eval_interval_ms"`
	RefreshSeconds      int     `toml:"refresh_seconds"`
}

// FiltersConfig enables and parameterizes the entry filter chain.
type FiltersConfig struct {
	Momentum  MomentumFilterConfig  `toml:"momentum"`
	Orderbook OrderbookFilterConfig `toml:"orderbook"`
	Volume    VolumeFilterConfig    `toml:"volume"`
	Time      TimeFilterConfig      `toml:"time"`
}

// MomentumFilterConfig gates entries on momentum quality.
type MomentumFilterConfig struct {
	Enabled             bool    `toml:"enabled"`
	MinScore            float64 `toml:"min_score"`
	MinConsistency      float64 `toml:"min_consistency"`
	RequireAcceleration bool    `toml:"require_acceleration"`
}

// OrderbookFilterConfig gates entries on book liquidity.
type OrderbookFilterConfig struct {
	Enabled        bool    `toml:"enabled"`
	MinDepthUSD    float64 `toml:"min_depth_usd"`
	CheckBothSides bool    `toml:"check_both_sides"`
}

// VolumeFilterConfig gates entries on a traded-volume surge.
type VolumeFilterConfig struct {
	Enabled     bool    `toml:"enabled"`
	MinRatio    float64 `toml:"min_ratio"`
	MinAbsolute float64 `toml:"min_absolute"`
}

// TimeFilterConfig restricts entries to a daily hour window.
type TimeFilterConfig struct {
	Enabled        bool `toml:"enabled"`
	StartHour      int  `toml:"start_hour"`
	EndHour        int  `toml:"end_hour"`
	UTCOffsetHours int  `toml:"utc_offset_hours"`
	AllowWeekends  bool `toml:"allow_weekends"`
}

// ExitsConfig holds position exit thresholds.
type ExitsConfig struct {
	TakeProfitPct    float64 `toml:"take_profit_pct"`
	StopLossPct      float64 `toml:"stop_loss_pct"`
	TimeExitFraction float64 `toml:"time_exit_fraction"`
	MinHoldSeconds   int     `toml:"min_hold_seconds"`
	CheckIntervalMs  int     `toml:"check_interval_ms"`
}

// NotifyConfig holds notification channel credentials and event filtering.
type NotifyConfig struct {
	TelegramToken  string   `toml:"telegram_token"`
	TelegramChatID string   `toml:"telegram_chat_id"`
	DiscordWebhook string   `toml:"discord_webhook"`
	Events         []string `toml:"events"`
}

// Defaults returns the built-in configuration. Threshold values carry over
// the calibration the strategy was tuned with in production.
func Defaults() Config {
	return Config{
		Binance: BinanceConfig{
			WsHost: "wss://stream.binance.com:9443",
		},
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			ClobHost:  "https://clob.polymarket.com",
		},
		Redis: RedisConfig{
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Engine: EngineConfig{
			MaxEntryPriceCents:  60,
			BaseSizeUSD:         10,
			MinPositionUSD:      1,
			MaxPositionUSD:      10,
			CooldownSeconds:     120,
			ContextStaleSeconds: 30,
			EvalIntervalMs:      100,
			RefreshSeconds:      3,
		},
		Filters: FiltersConfig{
			Momentum: MomentumFilterConfig{
				Enabled:             true,
				MinScore:            0.4,
				MinConsistency:      0.8,
				RequireAcceleration: true,
			},
			Orderbook: OrderbookFilterConfig{
				Enabled:     true,
				MinDepthUSD: 500,
			},
			Volume: VolumeFilterConfig{
				Enabled:     false,
				MinRatio:    2.0,
				MinAbsolute: 1000,
			},
			Time: TimeFilterConfig{
				Enabled:        true,
				StartHour:      9,
				EndHour:        16,
				UTCOffsetHours: -5,
			},
		},
		Exits: ExitsConfig{
			TakeProfitPct:    15,
			StopLossPct:      -10,
			TimeExitFraction: 0.8,
			MinHoldSeconds:   60,
			CheckIntervalMs:  100,
		},
		MockTrading: true,
		LogLevel:    "info",
	}
}

// Cooldown returns the minimum interval between accepted signals per asset.
func (c EngineConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// ContextStale returns the maximum market context age before the asset is
// suspended.
func (c EngineConfig) ContextStale() time.Duration {
	return time.Duration(c.ContextStaleSeconds) * time.Second
}

// EvalInterval returns the signal evaluation cadence.
func (c EngineConfig) EvalInterval() time.Duration {
	return time.Duration(c.EvalIntervalMs) * time.Millisecond
}

// RefreshInterval returns the market discovery cadence.
func (c EngineConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// MinHold returns the minimum hold duration before any exit check runs.
func (c ExitsConfig) MinHold() time.Duration {
	return time.Duration(c.MinHoldSeconds) * time.Second
}

// CheckInterval returns the exit evaluation cadence.
func (c ExitsConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMs) * time.Millisecond
}

// Validate checks cross-field constraints and returns the first violation.
func (c *Config) Validate() error {
	if c.Engine.MinPositionUSD <= 0 {
		return fmt.Errorf("config: engine.min_position_usd must be positive")
	}
	if c.Engine.MaxPositionUSD < c.Engine.MinPositionUSD {
		return fmt.Errorf("config: engine.max_position_usd %.2f below min %.2f",
			c.Engine.MaxPositionUSD, c.Engine.MinPositionUSD)
	}
	if c.Engine.MaxEntryPriceCents <= 0 || c.Engine.MaxEntryPriceCents > 100 {
		return fmt.Errorf("config: engine.max_entry_price_cents must be in (0, 100]")
	}
	if c.Exits.TakeProfitPct <= 0 {
		return fmt.Errorf("config: exits.take_profit_pct must be positive")
	}
	if c.Exits.StopLossPct >= 0 {
		return fmt.Errorf("config: exits.stop_loss_pct must be negative")
	}
	if c.Exits.TimeExitFraction <= 0 || c.Exits.TimeExitFraction > 1 {
		return fmt.Errorf("config: exits.time_exit_fraction must be in (0, 1]")
	}
	if f := c.Filters.Time; f.Enabled {
		if f.StartHour < 0 || f.StartHour > 23 || f.EndHour < 1 || f.EndHour > 24 || f.StartHour >= f.EndHour {
			return fmt.Errorf("config: filters.time hour window [%d, %d) invalid", f.StartHour, f.EndHour)
		}
	}
	if c.Filters.Momentum.Enabled {
		m := c.Filters.Momentum
		if m.MinScore < 0 || m.MinScore > 1 || m.MinConsistency < 0 || m.MinConsistency > 1 {
			return fmt.Errorf("config: filters.momentum thresholds must be in [0, 1]")
		}
	}
	if !c.MockTrading && c.Polymarket.ClobHost == "" {
		return fmt.Errorf("config: polymarket.clob_host required for live trading")
	}
	return nil
}
