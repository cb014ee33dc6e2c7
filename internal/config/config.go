// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Chain describes the RPC endpoint the client talks to.
type Chain struct {
	Provider         string `yaml:"provider"`
	ChainID          int64  `yaml:"chain_id"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
}

// Pancake pins the contract addresses and router version.
type Pancake struct {
	Version int    `yaml:"version"`
	Router  string `yaml:"router"`
	Factory string `yaml:"factory"`
	WBNB    string `yaml:"wbnb"`
}

// Trade groups the knobs applied to every swap.
type Trade struct {
	MaxSlippage      float64 `yaml:"max_slippage"`
	MaxTradeWei      string  `yaml:"max_trade_wei"`
	GasLimit         uint64  `yaml:"gas_limit"`
	GasPriceGwei     uint64  `yaml:"gas_price_gwei"`
	DeadlineSecs     int     `yaml:"deadline_secs"`
	ReceiptTimeoutMs int     `yaml:"receipt_timeout_ms"`
}

// Wallet names where the signing key comes from. The key itself is never stored in YAML.
type Wallet struct {
	Address string `yaml:"address"`
	KeyEnv  string `yaml:"key_env"`
}

// Paper configures dry-run bookkeeping and the fill journal.
type Paper struct {
	FillsPath string            `yaml:"fills_path"`
	Balances  map[string]string `yaml:"balances"`
}

// PriceFeed selects the USD mark source.
type PriceFeed struct {
	Provider string `yaml:"provider"`
	Symbol   string `yaml:"symbol"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Chain     Chain     `yaml:"chain"`
	Pancake   Pancake   `yaml:"pancake"`
	Trade     Trade     `yaml:"trade"`
	Wallet    Wallet    `yaml:"wallet"`
	Paper     Paper     `yaml:"paper"`
	PriceFeed PriceFeed `yaml:"price_feed"`
}

// Overrides are environment variables that win over the YAML file.
type Overrides struct {
	Provider string   `envconfig:"PROVIDER"`
	Address  string   `envconfig:"WALLET_ADDRESS"`
	LogLevel string   `envconfig:"LOG_LEVEL"`
	Slippage *float64 `envconfig:"MAX_SLIPPAGE"`
}

// Default returns the BNB Smart Chain mainnet settings.
func Default() *Config {
	return &Config{
		App:       App{Name: "pancakeswap-go", Env: "dev", MetricsAddr: ":9102", LogLevel: "info"},
		Chain:     Chain{Provider: "https://bsc-dataseed.binance.org/", ChainID: 56, RequestTimeoutMs: 60_000},
		Pancake:   Pancake{Version: 2},
		Trade:     Trade{MaxSlippage: 0.1, GasLimit: 250_000, DeadlineSecs: 600, ReceiptTimeoutMs: 300_000},
		Wallet:    Wallet{KeyEnv: "PRIVATE_KEY"},
		Paper:     Paper{FillsPath: "data/fills.jsonl"},
		PriceFeed: PriceFeed{Provider: "binance", Symbol: "BNBUSDT"},
	}
}

// Load reads a YAML file from disk on top of Default and applies environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv loads .env (best-effort) and copies any set override into the config.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()
	var o Overrides
	if err := envconfig.Process("", &o); err != nil {
		return fmt.Errorf("process env: %w", err)
	}
	if o.Provider != "" {
		c.Chain.Provider = o.Provider
	}
	if o.Address != "" {
		c.Wallet.Address = o.Address
	}
	if o.LogLevel != "" {
		c.App.LogLevel = o.LogLevel
	}
	if o.Slippage != nil {
		c.Trade.MaxSlippage = *o.Slippage
	}
	return nil
}

// RequestTimeout is the per-request RPC timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Chain.RequestTimeoutMs) * time.Millisecond
}

// Deadline is the swap deadline window.
func (c *Config) Deadline() time.Duration {
	return time.Duration(c.Trade.DeadlineSecs) * time.Second
}

// ReceiptTimeout bounds how long the client waits for a transaction to be mined.
func (c *Config) ReceiptTimeout() time.Duration {
	return time.Duration(c.Trade.ReceiptTimeoutMs) * time.Millisecond
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
