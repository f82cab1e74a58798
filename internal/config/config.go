package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// Config holds every runtime knob of the service. Values come from a config
// file with PUMPLINK_* environment overrides.
type Config struct {
	RPCURL     string `mapstructure:"rpc_url"`
	ListenAddr string `mapstructure:"listen_addr"`
	AppURL     string `mapstructure:"app_url"`

	PlatformWallet string `mapstructure:"platform_wallet"`

	TotalFeeBps      uint64 `mapstructure:"total_fee_bps"`
	PlatformSharePct uint64 `mapstructure:"platform_share_pct"`
	FeeMinLamports   uint64 `mapstructure:"fee_min_lamports"`

	CurveSlippageBps uint64 `mapstructure:"curve_slippage_bps"`
	SwapSlippageBps  uint64 `mapstructure:"swap_slippage_bps"`

	JupiterQuoteURL            string `mapstructure:"jupiter_quote_url"`
	JupiterSwapInstructionsURL string `mapstructure:"jupiter_swap_instructions_url"`
	JupiterSwapURL             string `mapstructure:"jupiter_swap_url"`

	TokenInfoURL string `mapstructure:"token_info_url"`

	DebugLogging bool `mapstructure:"debug_logging"`
}

const (
	DefaultRPCURL     = "https://api.mainnet-beta.solana.com"
	DefaultListenAddr = ":8080"

	DefaultTotalFeeBps      = 50 // 0.5%
	DefaultPlatformSharePct = 60 // 60/40 platform/affiliate split
	DefaultFeeMinLamports   = 100_000_000

	DefaultCurveSlippageBps = 500
	DefaultSwapSlippageBps  = 100

	DefaultJupiterQuoteURL            = "https://lite-api.jup.ag/swap/v1/quote"
	DefaultJupiterSwapInstructionsURL = "https://lite-api.jup.ag/swap/v1/swap-instructions"
	DefaultJupiterSwapURL             = "https://lite-api.jup.ag/swap/v1/swap"

	DefaultTokenInfoURL = "https://frontend-api-v3.pump.fun/coins"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"rpc_url":                       DefaultRPCURL,
		"listen_addr":                   DefaultListenAddr,
		"app_url":                       "http://localhost:8080",
		"total_fee_bps":                 DefaultTotalFeeBps,
		"platform_share_pct":            DefaultPlatformSharePct,
		"fee_min_lamports":              DefaultFeeMinLamports,
		"curve_slippage_bps":            DefaultCurveSlippageBps,
		"swap_slippage_bps":             DefaultSwapSlippageBps,
		"jupiter_quote_url":             DefaultJupiterQuoteURL,
		"jupiter_swap_instructions_url": DefaultJupiterSwapInstructionsURL,
		"jupiter_swap_url":              DefaultJupiterSwapURL,
		"token_info_url":                DefaultTokenInfoURL,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("pumplink")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing file is tolerated so the service can run on environment
	// variables alone.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, Validate(&cfg)
}

func Validate(cfg *Config) error {
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}
	if cfg.PlatformWallet == "" {
		return errors.New("missing platform_wallet in configuration")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.PlatformWallet); err != nil {
		return fmt.Errorf("invalid platform_wallet: %w", err)
	}
	if cfg.TotalFeeBps > 10_000 {
		return errors.New("total_fee_bps exceeds 10000")
	}
	if cfg.PlatformSharePct > 100 {
		return errors.New("platform_share_pct exceeds 100")
	}
	if cfg.CurveSlippageBps > 10_000 || cfg.SwapSlippageBps > 10_000 {
		return errors.New("slippage exceeds 10000 bps")
	}
	for name, raw := range map[string]string{
		"jupiter_quote_url":             cfg.JupiterQuoteURL,
		"jupiter_swap_instructions_url": cfg.JupiterSwapInstructionsURL,
		"jupiter_swap_url":              cfg.JupiterSwapURL,
		"token_info_url":                cfg.TokenInfoURL,
	} {
		if err := validateURL(raw, "http"); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

func validateURL(raw, scheme string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(u.Scheme, scheme) {
		return fmt.Errorf("scheme %q is not %s(s)", u.Scheme, scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// PlatformKey returns the parsed platform wallet. Validate must have
// succeeded first.
func (c *Config) PlatformKey() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.PlatformWallet)
}
