package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads the configuration file at path on top of Defaults, applies
// environment overrides, and validates the result. A missing file is not an
// error: the defaults plus environment are used.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env is fine.
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides config fields from ARBBOT_* environment variables.
// Secrets and deploy-specific endpoints are the intended use.
func applyEnv(cfg *Config) {
	setStr(&cfg.Binance.WsHost, "ARBBOT_BINANCE_WS_HOST")
	setStr(&cfg.Polymarket.GammaHost, "ARBBOT_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "ARBBOT_CLOB_HOST")

	setStr(&cfg.Redis.Addr, "ARBBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBBOT_REDIS_DB")

	setStr(&cfg.Postgres.DSN, "ARBBOT_POSTGRES_DSN")

	setFloat(&cfg.Engine.BaseSizeUSD, "ARBBOT_BASE_SIZE_USD")
	setFloat(&cfg.Engine.MaxPositionUSD, "ARBBOT_MAX_POSITION_USD")
	setBool(&cfg.MockTrading, "ARBBOT_MOCK_TRADING")
	setStr(&cfg.LogLevel, "ARBBOT_LOG_LEVEL")

	setStr(&cfg.Notify.TelegramToken, "ARBBOT_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBBOT_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhook, "ARBBOT_DISCORD_WEBHOOK")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
