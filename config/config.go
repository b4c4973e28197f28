package config

import (
	"time"

	"github.com/spf13/viper"

	"flash-swap/pkg/types"
)

// Config holds the application configuration
type Config struct {
	BaseURL         string
	EthRPCURL       string
	Account         string
	Network         string
	RefreshInterval time.Duration
	DebounceWindow  time.Duration
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".flash-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("base_url", "https://www.swftc.info")
	viper.SetDefault("network", "ETH")
	viper.SetDefault("refresh_interval", "10s")
	viper.SetDefault("debounce_window", "50ms")

	// Read from environment variables
	viper.SetEnvPrefix("FLASH_SWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		BaseURL:         viper.GetString("base_url"),
		EthRPCURL:       viper.GetString("eth_rpc_url"),
		Account:         viper.GetString("account"),
		Network:         viper.GetString("network"),
		RefreshInterval: viper.GetDuration("refresh_interval"),
		DebounceWindow:  viper.GetDuration("debounce_window"),
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, _ := Load()
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}

// TargetAsset returns the fixed conversion target: USDT on ETH.
func (c *Config) TargetAsset() types.AssetRef {
	return types.AssetRef{
		Symbol:   "USDT",
		Network:  "ETH",
		Contract: "0xdac17f958d2ee523a2206206994597c13d831ec7",
		Decimals: 6,
	}
}

// DefaultAsset returns the source asset selected at startup.
func (c *Config) DefaultAsset() types.AssetRef {
	return types.AssetRef{
		Symbol:   "ETH",
		Network:  "ETH",
		Decimals: 18,
	}
}
