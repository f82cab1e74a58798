package pumpswap

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/pumplink/pumplink/internal/solclient"
)

// ErrPoolNotFound means no PumpSwap pool exists for the token under either
// seed ordering.
var ErrPoolNotFound = errors.New("pumpswap pool not found")

const (
	poolDiscriminatorLen = 8
	poolMinLen           = poolDiscriminatorLen + 64 // discriminator + base and quote mints
)

// Pool is a located token/WSOL pool, normalized so BaseMint is always the
// token and QuoteMint is always WSOL regardless of the on-chain seed order.
type Pool struct {
	Address    solana.PublicKey
	BaseMint   solana.PublicKey
	QuoteMint  solana.PublicKey
	BaseVault  solana.PublicKey
	QuoteVault solana.PublicKey
}

// Reserves holds a snapshot of the pool's vault balances.
type Reserves struct {
	Base  uint64 // token
	Quote uint64 // lamports in WSOL
}

// Finder locates pools and reads their reserves.
type Finder struct {
	client *solclient.Client
	logger *zap.Logger
}

func NewFinder(client *solclient.Client, logger *zap.Logger) *Finder {
	return &Finder{
		client: client,
		logger: logger.Named("pumpswap"),
	}
}

// FindPool looks up the token/WSOL pool for mint. The pool PDA is tried with
// the token as base first, then with the seeds reversed; graduated tokens
// normally use the first form.
func (f *Finder) FindPool(ctx context.Context, mint solana.PublicKey) (*Pool, error) {
	address, err := DerivePool(mint, solana.SolMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool address: %w", err)
	}
	data, err := f.client.GetAccountData(ctx, address)
	if err == nil {
		return parsePool(address, data, false)
	}
	if !solclient.IsNotFound(err) {
		return nil, fmt.Errorf("failed to fetch pool %s: %w", address, err)
	}

	reversed, err := DerivePool(solana.SolMint, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive reversed pool address: %w", err)
	}
	data, err = f.client.GetAccountData(ctx, reversed)
	if err != nil {
		if solclient.IsNotFound(err) {
			f.logger.Debug("no pool under either seed order",
				zap.String("mint", mint.String()))
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to fetch pool %s: %w", reversed, err)
	}
	return parsePool(reversed, data, true)
}

// GetReserves reads the current vault balances of a pool.
func (f *Finder) GetReserves(ctx context.Context, pool *Pool) (*Reserves, error) {
	base, err := f.client.GetTokenAccountBalance(ctx, pool.BaseVault)
	if err != nil {
		return nil, fmt.Errorf("failed to read base vault: %w", err)
	}
	quote, err := f.client.GetTokenAccountBalance(ctx, pool.QuoteVault)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote vault: %w", err)
	}
	if base == 0 || quote == 0 {
		return nil, fmt.Errorf("pool %s has empty reserves", pool.Address)
	}
	return &Reserves{Base: base, Quote: quote}, nil
}

// parsePool reads the base and quote mints out of the pool account and
// derives the vault addresses. reversed flips the pair so the caller always
// sees token as base.
func parsePool(address solana.PublicKey, data []byte, reversed bool) (*Pool, error) {
	if len(data) < poolMinLen {
		return nil, fmt.Errorf("pool account %s too short: %d bytes", address, len(data))
	}

	baseMint := solana.PublicKeyFromBytes(data[8:40])
	quoteMint := solana.PublicKeyFromBytes(data[40:72])

	baseVault, err := DeriveVault(address, baseMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive base vault: %w", err)
	}
	quoteVault, err := DeriveVault(address, quoteMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive quote vault: %w", err)
	}

	pool := &Pool{
		Address:    address,
		BaseMint:   baseMint,
		QuoteMint:  quoteMint,
		BaseVault:  baseVault,
		QuoteVault: quoteVault,
	}
	if reversed {
		pool.BaseMint, pool.QuoteMint = pool.QuoteMint, pool.BaseMint
		pool.BaseVault, pool.QuoteVault = pool.QuoteVault, pool.BaseVault
	}
	return pool, nil
}
