// Package engine validates buy requests, splits fees, routes to a liquidity
// venue and assembles the final unsigned transaction.
package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"

	"github.com/pumplink/pumplink/internal/jupiter"
	"github.com/pumplink/pumplink/internal/pump"
	"github.com/pumplink/pumplink/internal/pumpswap"
	"github.com/pumplink/pumplink/internal/solclient"
)

// BuildResult is the finished product of one build: an unsigned transaction
// ready for the buyer's wallet, plus everything the caller needs to present
// it.
type BuildResult struct {
	// Transaction is the serialized unsigned transaction, base64.
	Transaction string
	// Versioned reports whether the transaction uses the v0 message format.
	Versioned bool
	// Venue is where the buy routes.
	Venue pump.Venue
	// Fees is the exact split applied before routing.
	Fees FeeBreakdown
	// LastValidBlockHeight bounds how long the transaction can be signed
	// and submitted.
	LastValidBlockHeight uint64
	// Message is a human-readable summary for wallet prompts.
	Message string
}

// Assembler wires the venue resolver, the route builders and the fee policy
// into one build pipeline. It holds no per-request state.
type Assembler struct {
	chain    *solclient.Client
	resolver *pump.StateResolver
	curve    *pump.Builder
	swap     *jupiter.Client
	pool     *pumpswap.Builder
	logger   *zap.Logger

	policy         FeePolicy
	platformWallet solana.PublicKey

	curveSlippageBps uint64
	swapSlippageBps  uint64
}

type AssemblerParams struct {
	Chain          *solclient.Client
	Resolver       *pump.StateResolver
	Curve          *pump.Builder
	Swap           *jupiter.Client
	Pool           *pumpswap.Builder
	Logger         *zap.Logger
	Policy         FeePolicy
	PlatformWallet solana.PublicKey

	CurveSlippageBps uint64
	SwapSlippageBps  uint64
}

func NewAssembler(p AssemblerParams) *Assembler {
	return &Assembler{
		chain:            p.Chain,
		resolver:         p.Resolver,
		curve:            p.Curve,
		swap:             p.Swap,
		pool:             p.Pool,
		logger:           p.Logger.Named("assembler"),
		policy:           p.Policy,
		platformWallet:   p.PlatformWallet,
		curveSlippageBps: p.CurveSlippageBps,
		swapSlippageBps:  p.SwapSlippageBps,
	}
}

// PlatformWallet returns the configured platform fee wallet.
func (a *Assembler) PlatformWallet() solana.PublicKey {
	return a.platformWallet
}

// Build runs the full pipeline for one request: validate, resolve the venue,
// carve out fees, build the venue's instructions and assemble an unsigned
// transaction with the buyer as fee payer and sole required signer.
func (a *Assembler) Build(ctx context.Context, req *BuildRequest) (*BuildResult, error) {
	if err := req.Validate(a.platformWallet); err != nil {
		return nil, err
	}

	log := a.logger.With(
		zap.String("mint", req.Mint.String()),
		zap.String("buyer", req.Buyer.String()),
		zap.Uint64("lamports_in", req.LamportsIn))

	state, err := a.resolver.Resolve(ctx, req.Mint)
	if err != nil && state.Venue == pump.VenueUnknown {
		// The read failed outright. Degrade to the graduated route: the
		// aggregator will reject tokens that do not actually trade there.
		log.Warn("venue resolution failed, routing via aggregator", zap.Error(err))
	}

	fees := a.policy.Breakdown(req.LamportsIn, req.HasReferrer())
	feeInstructions := a.feeTransfers(req, fees)

	venueInstructions, tables, venue, err := a.route(ctx, req, state, fees.NetAmount)
	if err != nil {
		return nil, err
	}

	blockhash, lastValid, err := a.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	instructions := append(feeInstructions, venueInstructions...)
	encoded, versioned, err := assemble(instructions, tables, blockhash, req.Buyer)
	if err != nil {
		return nil, err
	}

	log.Info("built transaction",
		zap.String("venue", venue.String()),
		zap.Uint64("total_fee", fees.TotalFee),
		zap.Uint64("net_amount", fees.NetAmount),
		zap.Int("instructions", len(instructions)),
		zap.Bool("versioned", versioned))

	return &BuildResult{
		Transaction:          encoded,
		Versioned:            versioned,
		Venue:                venue,
		Fees:                 fees,
		LastValidBlockHeight: lastValid,
		Message:              a.summary(venue, fees, req),
	}, nil
}

// feeTransfers returns the plain SOL transfers that realize the fee split.
// Zero-valued legs produce no instruction.
func (a *Assembler) feeTransfers(req *BuildRequest, fees FeeBreakdown) []solana.Instruction {
	var instructions []solana.Instruction
	if fees.PlatformFee > 0 {
		instructions = append(instructions,
			system.NewTransferInstruction(fees.PlatformFee, req.Buyer, a.platformWallet).Build())
	}
	if fees.AffiliateFee > 0 && req.Referrer != nil {
		instructions = append(instructions,
			system.NewTransferInstruction(fees.AffiliateFee, req.Buyer, *req.Referrer).Build())
	}
	return instructions
}

// route picks the venue and builds its instructions with the net amount.
// Active tokens buy on the bonding curve. Everything else goes through the
// aggregator, with a direct pool buy as the fallback when the aggregator has
// no route.
func (a *Assembler) route(
	ctx context.Context,
	req *BuildRequest,
	state *pump.TokenState,
	netLamports uint64,
) ([]solana.Instruction, map[solana.PublicKey]solana.PublicKeySlice, pump.Venue, error) {
	if state.OnCurve() {
		instructions, quote, err := a.curve.BuildBuy(
			ctx, state, req.Mint, req.Buyer, netLamports, a.curveSlippageBps)
		if err != nil {
			if errors.Is(err, pump.ErrNotOnCurve) {
				return nil, nil, pump.VenueUnknown, &InvariantError{Err: err}
			}
			return nil, nil, pump.VenueUnknown, fmt.Errorf("curve buy failed: %w", err)
		}
		a.logger.Debug("routed to bonding curve",
			zap.String("mint", req.Mint.String()),
			zap.Uint64("min_tokens_out", quote.MinTokensOut))
		return instructions, nil, pump.VenueActive, nil
	}

	bundle, swapErr := a.swap.BuildSwap(ctx, req.Buyer, req.Mint, netLamports, a.swapSlippageBps)
	if swapErr == nil {
		return bundle.Instructions, bundle.LookupTables, pump.VenueGraduated, nil
	}
	a.logger.Warn("aggregator route failed, trying direct pool",
		zap.String("mint", req.Mint.String()),
		zap.Error(swapErr))

	instructions, _, poolErr := a.pool.BuildBuy(
		ctx, req.Mint, req.Buyer, netLamports, a.swapSlippageBps)
	if poolErr == nil {
		return instructions, nil, pump.VenueGraduated, nil
	}
	if errors.Is(poolErr, pumpswap.ErrPoolNotFound) {
		return nil, nil, pump.VenueUnknown,
			fmt.Errorf("%w: %v", ErrVenueUnavailable, swapErr)
	}
	return nil, nil, pump.VenueUnknown,
		fmt.Errorf("%w: %v (pool fallback: %v)", ErrUpstreamFailure, swapErr, poolErr)
}

// assemble serializes instructions into an unsigned base64 transaction. The
// message is legacy when no lookup tables are involved and v0 otherwise. The
// signature slots are zero-filled so wallets see the expected shape.
func assemble(
	instructions []solana.Instruction,
	tables map[solana.PublicKey]solana.PublicKeySlice,
	blockhash solana.Hash,
	payer solana.PublicKey,
) (string, bool, error) {
	if len(instructions) == 0 {
		return "", false, &InvariantError{Err: errors.New("no instructions to assemble")}
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(payer)}
	versioned := len(tables) > 0
	if versioned {
		opts = append(opts, solana.TransactionAddressTables(tables))
	}

	tx, err := solana.NewTransaction(instructions, blockhash, opts...)
	if err != nil {
		return "", false, fmt.Errorf("failed to build transaction: %w", err)
	}

	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	serialized, err := tx.MarshalBinary()
	if err != nil {
		return "", false, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(serialized), versioned, nil
}

// summary is the human-readable line wallets show next to the approval
// prompt.
func (a *Assembler) summary(venue pump.Venue, fees FeeBreakdown, req *BuildRequest) string {
	sol := float64(req.LamportsIn) / float64(solana.LAMPORTS_PER_SOL)
	where := "via swap"
	if venue == pump.VenueActive {
		where = "on the bonding curve"
	}
	if fees.TotalFee == 0 {
		return fmt.Sprintf("Buy with %.4f SOL %s", sol, where)
	}
	return fmt.Sprintf("Buy with %.4f SOL %s (%s)", sol, where, a.policy.Describe(req.HasReferrer()))
}
