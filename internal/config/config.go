// Package config provides configuration for the portfolio valuation service.
// It loads configuration from environment variables and .env files.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Explorers  []ExplorerConfig
	Helius     HeliusConfig
	Pricing    PricingConfig
	PriceStore PriceStoreConfig
	Wallets    WalletsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string
	Port string
}

// ExplorerConfig describes one EVM explorer endpoint. Each explorer carries
// the chain-local USDC/USDT contract addresses so the adapter can restrict
// token transfers to the supported stablecoins.
type ExplorerConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	USDC    string
	USDT    string
}

// HeliusConfig holds the Solana transaction source configuration.
type HeliusConfig struct {
	BaseURL string
	APIKey  string
}

// PricingConfig holds price and FX provider endpoints.
type PricingConfig struct {
	BinanceBaseURL     string
	FrankfurterBaseURL string
}

// PriceStoreConfig holds the optional durable price store. An empty DSN
// disables persistence; the in-memory session caches work the same either way.
type PriceStoreConfig struct {
	DSN string
}

// WalletsConfig lists the user's own wallet addresses. Transfers between own
// wallets are excluded from invested/cashed-out totals.
type WalletsConfig struct {
	EVM    []string
	Solana []string
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", ""),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Explorers: []ExplorerConfig{
			{
				Name:    "Ethereum",
				BaseURL: getEnv("ETHERSCAN_BASE_URL", "https://api.etherscan.io/api"),
				APIKey:  os.Getenv("ETHERSCAN_API_KEY"),
				USDC:    "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
				USDT:    "0xdac17f958d2ee523a2206206994597c13d831ec7",
			},
			{
				Name:    "Arbitrum",
				BaseURL: getEnv("ARBISCAN_BASE_URL", "https://api.arbiscan.io/api"),
				APIKey:  os.Getenv("ARBISCAN_API_KEY"),
				USDC:    "0xaf88d065e77c8cc2239327c5edb3a432268e5831",
				USDT:    "0xfd086bc7cd5c481dcc9c85ebe478a1c0b69fcbb9",
			},
		},
		Helius: HeliusConfig{
			BaseURL: getEnv("HELIUS_BASE_URL", "https://api.helius.xyz"),
			APIKey:  os.Getenv("HELIUS_API_KEY"),
		},
		Pricing: PricingConfig{
			BinanceBaseURL:     getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
			FrankfurterBaseURL: getEnv("FRANKFURTER_BASE_URL", "https://api.frankfurter.app"),
		},
		PriceStore: PriceStoreConfig{
			DSN: os.Getenv("PRICE_STORE_DSN"),
		},
		Wallets: WalletsConfig{
			EVM:    splitAddresses(os.Getenv("EVM_WALLETS")),
			Solana: splitAddresses(os.Getenv("SOL_WALLETS")),
		},
	}
}

// OwnWallets returns every configured own-wallet address, lowercased.
func (c *Config) OwnWallets() []string {
	all := make([]string, 0, len(c.Wallets.EVM)+len(c.Wallets.Solana))
	all = append(all, c.Wallets.EVM...)
	all = append(all, c.Wallets.Solana...)
	return all
}

func splitAddresses(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		addr := strings.ToLower(strings.TrimSpace(part))
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
