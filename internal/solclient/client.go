// Package solclient is a thin adapter over the solana-go RPC client. One
// instance is created at startup and shared read-only by all build requests.
package solclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// ErrAccountNotFound is returned when the requested account does not exist
// on chain, as opposed to a transport failure.
var ErrAccountNotFound = errors.New("account not found")

// IsNotFound reports whether err means "no such account" rather than a
// failed read.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, rpc.ErrNotFound) ||
		strings.Contains(strings.ToLower(err.Error()), "not found")
}

type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

func New(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("solclient"),
	}
}

// GetAccountInfo fetches a single account. A missing account is reported as
// ErrAccountNotFound.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := c.rpc.GetAccountInfo(ctx, pubkey)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, ErrAccountNotFound
	}
	return result, nil
}

// GetAccountData returns the raw binary contents of an account.
func (c *Client) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	result, err := c.GetAccountInfo(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	return result.Value.Data.GetBinary(), nil
}

// AccountExists reports whether the account is present, distinguishing
// absence from read failure.
func (c *Client) AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error) {
	_, err := c.GetAccountInfo(ctx, pubkey)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetLatestBlockhash returns a fresh blockhash and the height through which
// it stays valid.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return solana.Hash{}, 0, err
	}
	return result.Value.Blockhash, result.Value.LastValidBlockHeight, nil
}

// GetTokenAccountBalance returns the raw token amount held by a token
// account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Debug("GetTokenAccountBalance error",
			zap.String("account", account.String()),
			zap.Error(err))
		return 0, err
	}
	if result == nil || result.Value == nil || result.Value.Amount == "" {
		return 0, ErrAccountNotFound
	}
	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %w", err)
	}
	return amount, nil
}
