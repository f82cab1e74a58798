package pump

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/pumplink/pumplink/internal/solclient"
)

// BuyQuote reports what a built curve buy expects to receive.
type BuyQuote struct {
	TokensOut    uint64
	MinTokensOut uint64
	FeeRecipient solana.PublicKey
}

// Builder constructs bonding curve buy instructions. Callers must resolve
// the token state first; building against a non-active state is rejected.
type Builder struct {
	client *solclient.Client
	logger *zap.Logger
}

func NewBuilder(client *solclient.Client, logger *zap.Logger) *Builder {
	return &Builder{
		client: client,
		logger: logger.Named("pump-builder"),
	}
}

// BuildBuy returns the ordered instruction list for buying lamportsIn worth
// of mint on its bonding curve: an idempotent ATA creation first when the
// buyer's token account is missing, then the buy instruction itself.
func (b *Builder) BuildBuy(
	ctx context.Context,
	state *TokenState,
	mint, buyer solana.PublicKey,
	lamportsIn, slippageBps uint64,
) ([]solana.Instruction, *BuyQuote, error) {
	if !state.OnCurve() {
		return nil, nil, fmt.Errorf("%w: venue %s", ErrNotOnCurve, state.Venue)
	}

	associatedBondingCurve, _, err := solana.FindAssociatedTokenAddress(state.BondingCurve, mint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive bonding curve ATA: %w", err)
	}
	associatedUser, _, err := solana.FindAssociatedTokenAddress(buyer, mint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive buyer ATA: %w", err)
	}

	var instructions []solana.Instruction

	exists, err := b.client.AccountExists(ctx, associatedUser)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check buyer token account: %w", err)
	}
	if !exists {
		instructions = append(instructions,
			NewCreateATAIdempotentInstruction(buyer, associatedUser, buyer, mint))
	}

	tokensOut := TokensOut(lamportsIn, state.VirtualSolReserves, state.VirtualTokenReserves)
	minTokensOut := ApplySlippage(tokensOut, slippageBps)
	feeRecipient := state.FeeVariant.FeeRecipient()

	b.logger.Debug("built curve buy quote",
		zap.String("mint", mint.String()),
		zap.Uint64("lamports_in", lamportsIn),
		zap.Uint64("tokens_out", tokensOut),
		zap.Uint64("min_tokens_out", minTokensOut),
		zap.Uint64("slippage_bps", slippageBps),
		zap.String("fee_recipient", feeRecipient.String()))

	instructions = append(instructions, NewBuyInstruction(BuyAccounts{
		FeeRecipient:           feeRecipient,
		Mint:                   mint,
		BondingCurve:           state.BondingCurve,
		AssociatedBondingCurve: associatedBondingCurve,
		AssociatedUser:         associatedUser,
		Buyer:                  buyer,
	}, minTokensOut, lamportsIn))

	return instructions, &BuyQuote{
		TokensOut:    tokensOut,
		MinTokensOut: minTokensOut,
		FeeRecipient: feeRecipient,
	}, nil
}

// BuyAccounts lists the per-trade accounts of a buy instruction. Program
// level accounts (global state, programs, sysvars) are filled in by
// NewBuyInstruction.
type BuyAccounts struct {
	FeeRecipient           solana.PublicKey
	Mint                   solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
	AssociatedUser         solana.PublicKey
	Buyer                  solana.PublicKey
}

// NewBuyInstruction encodes a bonding curve buy. The payload is the 8-byte
// discriminator followed by minTokensOut and maxSolCost as u64 LE. The
// account order is the program's ABI and must not change.
func NewBuyInstruction(accounts BuyAccounts, minTokensOut, maxSolCost uint64) solana.Instruction {
	data := make([]byte, 24)
	copy(data[0:8], buyDiscriminator)
	binary.LittleEndian.PutUint64(data[8:16], minTokensOut)
	binary.LittleEndian.PutUint64(data[16:24], maxSolCost)

	metas := []*solana.AccountMeta{
		{PublicKey: GlobalState, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.FeeRecipient, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.BondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.AssociatedBondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.AssociatedUser, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.Buyer, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SysVarRentPubkey, IsSigner: false, IsWritable: false},
		{PublicKey: EventAuthority(), IsSigner: false, IsWritable: false},
		{PublicKey: ProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(ProgramID, metas, data)
}

// NewCreateATAIdempotentInstruction builds the associated token program's
// CreateIdempotent instruction (discriminant 1): a no-op when the account
// already exists.
func NewCreateATAIdempotentInstruction(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	metas := []*solana.AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, metas, []byte{1})
}
