package pumpswap

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"

	"github.com/pumplink/pumplink/internal/pump"
	"github.com/pumplink/pumplink/internal/solclient"
)

// syncNative is the token program's SyncNative instruction tag.
const syncNativeInstruction = 17

// BuyQuote reports the expected output of a built pool buy.
type BuyQuote struct {
	TokensOut    uint64
	MinTokensOut uint64
	Pool         solana.PublicKey
}

// Builder constructs direct pool buy instructions.
type Builder struct {
	finder *Finder
	client *solclient.Client
	logger *zap.Logger
}

func NewBuilder(client *solclient.Client, logger *zap.Logger) *Builder {
	return &Builder{
		finder: NewFinder(client, logger),
		client: client,
		logger: logger.Named("pumpswap-builder"),
	}
}

// BuildBuy locates the token's pool and returns the instruction sequence for
// a SOL buy: token ATA creation when missing, SOL wrapping into the buyer's
// WSOL account, then the swap itself. Returns ErrPoolNotFound when the token
// has no pool.
func (b *Builder) BuildBuy(
	ctx context.Context,
	mint, buyer solana.PublicKey,
	lamportsIn, slippageBps uint64,
) ([]solana.Instruction, *BuyQuote, error) {
	pool, err := b.finder.FindPool(ctx, mint)
	if err != nil {
		return nil, nil, err
	}
	reserves, err := b.finder.GetReserves(ctx, pool)
	if err != nil {
		return nil, nil, err
	}

	tokenATA, _, err := solana.FindAssociatedTokenAddress(buyer, mint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive token ATA: %w", err)
	}
	wsolATA, _, err := solana.FindAssociatedTokenAddress(buyer, solana.SolMint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive WSOL ATA: %w", err)
	}

	var instructions []solana.Instruction

	exists, err := b.client.AccountExists(ctx, tokenATA)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check token account: %w", err)
	}
	if !exists {
		instructions = append(instructions,
			pump.NewCreateATAIdempotentInstruction(buyer, tokenATA, buyer, mint))
	}

	// The WSOL account is created idempotently and funded every time: the
	// swap spends from it, so it must hold the input lamports.
	instructions = append(instructions,
		pump.NewCreateATAIdempotentInstruction(buyer, wsolATA, buyer, solana.SolMint),
		system.NewTransferInstruction(lamportsIn, buyer, wsolATA).Build(),
		newSyncNativeInstruction(wsolATA),
	)

	tokensOut := TokensOut(lamportsIn, reserves.Quote, reserves.Base)
	minTokensOut := pump.ApplySlippage(tokensOut, slippageBps)

	b.logger.Debug("built pool buy",
		zap.String("mint", mint.String()),
		zap.String("pool", pool.Address.String()),
		zap.Uint64("lamports_in", lamportsIn),
		zap.Uint64("tokens_out", tokensOut),
		zap.Uint64("min_tokens_out", minTokensOut))

	instructions = append(instructions, NewBuyInstruction(
		pool, buyer, tokenATA, wsolATA, lamportsIn, minTokensOut))

	return instructions, &BuyQuote{
		TokensOut:    tokensOut,
		MinTokensOut: minTokensOut,
		Pool:         pool.Address,
	}, nil
}

// NewBuyInstruction encodes a quote-to-base swap. The payload is the buy
// discriminator followed by amountIn and minAmountOut as u64 LE; the account
// order is the program's ABI.
func NewBuyInstruction(
	pool *Pool,
	buyer, tokenATA, wsolATA solana.PublicKey,
	amountIn, minAmountOut uint64,
) solana.Instruction {
	data := make([]byte, 24)
	copy(data[0:8], buyDiscriminator)
	binary.LittleEndian.PutUint64(data[8:16], amountIn)
	binary.LittleEndian.PutUint64(data[16:24], minAmountOut)

	metas := []*solana.AccountMeta{
		{PublicKey: GlobalConfig, IsSigner: false, IsWritable: false},
		{PublicKey: FeeRecipient, IsSigner: false, IsWritable: true},
		{PublicKey: pool.Address, IsSigner: false, IsWritable: true},
		{PublicKey: wsolATA, IsSigner: false, IsWritable: true},
		{PublicKey: tokenATA, IsSigner: false, IsWritable: true},
		{PublicKey: pool.QuoteVault, IsSigner: false, IsWritable: true},
		{PublicKey: pool.BaseVault, IsSigner: false, IsWritable: true},
		{PublicKey: buyer, IsSigner: true, IsWritable: true},
		{PublicKey: pool.QuoteMint, IsSigner: false, IsWritable: false},
		{PublicKey: pool.BaseMint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SPLAssociatedTokenAccountProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: ProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(ProgramID, metas, data)
}

// newSyncNativeInstruction updates a WSOL account's token balance to match
// the lamports it holds.
func newSyncNativeInstruction(account solana.PublicKey) solana.Instruction {
	metas := []*solana.AccountMeta{
		{PublicKey: account, IsSigner: false, IsWritable: true},
	}
	return solana.NewInstruction(solana.TokenProgramID, metas, []byte{syncNativeInstruction})
}
