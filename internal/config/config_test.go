package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	wallet := solana.NewWallet().PublicKey().String()
	path := writeConfig(t, "platform_wallet: "+wallet+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, uint64(DefaultTotalFeeBps), cfg.TotalFeeBps)
	assert.Equal(t, uint64(DefaultPlatformSharePct), cfg.PlatformSharePct)
	assert.Equal(t, uint64(DefaultFeeMinLamports), cfg.FeeMinLamports)
	assert.Equal(t, DefaultJupiterQuoteURL, cfg.JupiterQuoteURL)
	assert.Equal(t, wallet, cfg.PlatformKey().String())
}

func TestLoadOverrides(t *testing.T) {
	wallet := solana.NewWallet().PublicKey().String()
	path := writeConfig(t, `
platform_wallet: `+wallet+`
rpc_url: https://rpc.example.com
listen_addr: ":9000"
total_fee_bps: 100
platform_share_pct: 50
curve_slippage_bps: 300
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.example.com", cfg.RPCURL)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, uint64(100), cfg.TotalFeeBps)
	assert.Equal(t, uint64(50), cfg.PlatformSharePct)
	assert.Equal(t, uint64(300), cfg.CurveSlippageBps)
}

func TestValidateRejections(t *testing.T) {
	wallet := solana.NewWallet().PublicKey().String()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing platform wallet", func(c *Config) { c.PlatformWallet = "" }},
		{"malformed platform wallet", func(c *Config) { c.PlatformWallet = "garbage" }},
		{"fee over 100 percent", func(c *Config) { c.TotalFeeBps = 10_001 }},
		{"share over 100", func(c *Config) { c.PlatformSharePct = 101 }},
		{"slippage over 100 percent", func(c *Config) { c.SwapSlippageBps = 10_001 }},
		{"bad rpc url", func(c *Config) { c.RPCURL = "ftp://example.com" }},
		{"bad quote url", func(c *Config) { c.JupiterQuoteURL = "not a url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				RPCURL:                     DefaultRPCURL,
				PlatformWallet:             wallet,
				TotalFeeBps:                DefaultTotalFeeBps,
				PlatformSharePct:           DefaultPlatformSharePct,
				JupiterQuoteURL:            DefaultJupiterQuoteURL,
				JupiterSwapInstructionsURL: DefaultJupiterSwapInstructionsURL,
				JupiterSwapURL:             DefaultJupiterSwapURL,
				TokenInfoURL:               DefaultTokenInfoURL,
			}
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
