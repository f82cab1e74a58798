package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pumplink/pumplink/internal/config"
	"github.com/pumplink/pumplink/internal/engine"
	"github.com/pumplink/pumplink/internal/jupiter"
	"github.com/pumplink/pumplink/internal/logger"
	"github.com/pumplink/pumplink/internal/pump"
	"github.com/pumplink/pumplink/internal/pumpswap"
	"github.com/pumplink/pumplink/internal/server"
	"github.com/pumplink/pumplink/internal/solclient"
	"github.com/pumplink/pumplink/internal/tokeninfo"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet.
		panic(err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting pumplink",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("rpc_url", cfg.RPCURL),
		zap.Uint64("total_fee_bps", cfg.TotalFeeBps),
		zap.Uint64("platform_share_pct", cfg.PlatformSharePct))

	chain := solclient.New(cfg.RPCURL, log.Logger)

	policy := engine.FeePolicy{
		TotalFeeBps:      cfg.TotalFeeBps,
		PlatformSharePct: cfg.PlatformSharePct,
		MinLamports:      cfg.FeeMinLamports,
	}

	resolver := pump.NewStateResolver(chain, log.Logger)
	assembler := engine.NewAssembler(engine.AssemblerParams{
		Chain:            chain,
		Resolver:         resolver,
		Curve:            pump.NewBuilder(chain, log.Logger),
		Swap:             jupiter.New(chain, cfg.JupiterQuoteURL, cfg.JupiterSwapInstructionsURL, cfg.JupiterSwapURL, log.Logger),
		Pool:             pumpswap.NewBuilder(chain, log.Logger),
		Logger:           log.Logger,
		Policy:           policy,
		PlatformWallet:   cfg.PlatformKey(),
		CurveSlippageBps: cfg.CurveSlippageBps,
		SwapSlippageBps:  cfg.SwapSlippageBps,
	})

	handlers := &server.Handlers{
		Assembler: assembler,
		Resolver:  resolver,
		TokenInfo: tokeninfo.New(cfg.TokenInfoURL, log.Logger),
		Policy:    policy,
		AppURL:    cfg.AppURL,
		Logger:    log,
	}

	srv := server.New(cfg.ListenAddr, handlers)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal("server failed", zap.Error(err))
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	log.Info("stopped")
}
