package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	require.Len(t, cfg.Explorers, 2)
	assert.Equal(t, "https://api.etherscan.io/api", cfg.Explorers[0].BaseURL)
	assert.NotEmpty(t, cfg.Explorers[0].USDC)
	assert.NotEmpty(t, cfg.Explorers[1].USDT)
	assert.Equal(t, "https://api.binance.com", cfg.Pricing.BinanceBaseURL)
	assert.Empty(t, cfg.PriceStore.DSN, "price store is off by default")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("BINANCE_BASE_URL", "http://localhost:1234")
	t.Setenv("PRICE_STORE_DSN", "sqlite://portfolio.db")

	cfg := Load()
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "http://localhost:1234", cfg.Pricing.BinanceBaseURL)
	assert.Equal(t, "sqlite://portfolio.db", cfg.PriceStore.DSN)
}

func TestOwnWallets(t *testing.T) {
	t.Setenv("EVM_WALLETS", "0xABC, 0xDef ,")
	t.Setenv("SOL_WALLETS", "SoLaNaWaLLet")

	cfg := Load()
	assert.Equal(t, []string{"0xabc", "0xdef"}, cfg.Wallets.EVM, "addresses are trimmed and lowercased")
	assert.Equal(t, []string{"0xabc", "0xdef", "solanawallet"}, cfg.OwnWallets())
}

func TestOwnWallets_Empty(t *testing.T) {
	t.Setenv("EVM_WALLETS", "")
	t.Setenv("SOL_WALLETS", "")

	cfg := Load()
	assert.Empty(t, cfg.OwnWallets())
}
