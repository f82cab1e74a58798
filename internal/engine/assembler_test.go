package engine

import (
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlockhash() solana.Hash {
	var hash solana.Hash
	for i := range hash {
		hash[i] = byte(i + 1)
	}
	return hash
}

func TestAssembleLegacy(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()

	instructions := []solana.Instruction{
		system.NewTransferInstruction(1_000, payer, recipient).Build(),
	}

	encoded, versioned, err := assemble(instructions, nil, testBlockhash(), payer)
	require.NoError(t, err)
	assert.False(t, versioned)

	tx, err := solana.TransactionFromBase64(encoded)
	require.NoError(t, err)

	// Unsigned: the signature slots exist but hold zeroes.
	require.Len(t, tx.Signatures, int(tx.Message.Header.NumRequiredSignatures))
	for _, sig := range tx.Signatures {
		assert.True(t, sig.IsZero(), "signature slots must be empty")
	}

	// The payer is the first account and a signer.
	require.NotEmpty(t, tx.Message.AccountKeys)
	assert.Equal(t, payer, tx.Message.AccountKeys[0])
	assert.Equal(t, testBlockhash(), tx.Message.RecentBlockhash)
	assert.Len(t, tx.Message.Instructions, 1)
}

func TestAssemblePreservesInstructionOrder(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	platform := solana.NewWallet().PublicKey()
	referrer := solana.NewWallet().PublicKey()
	venueProgram := solana.NewWallet().PublicKey()

	// Fee transfers first, venue instruction last.
	instructions := []solana.Instruction{
		system.NewTransferInstruction(3_000, payer, platform).Build(),
		system.NewTransferInstruction(2_000, payer, referrer).Build(),
		solana.NewInstruction(venueProgram,
			[]*solana.AccountMeta{{PublicKey: payer, IsSigner: true, IsWritable: true}},
			[]byte{0xde, 0xad}),
	}

	encoded, _, err := assemble(instructions, nil, testBlockhash(), payer)
	require.NoError(t, err)

	tx, err := solana.TransactionFromBase64(encoded)
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 3)

	first, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, solana.SystemProgramID, first)

	last, err := tx.Message.Program(tx.Message.Instructions[2].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, venueProgram, last)
	assert.Equal(t, []byte{0xde, 0xad}, []byte(tx.Message.Instructions[2].Data))
}

func TestAssembleVersionedWithLookupTables(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	table := solana.NewWallet().PublicKey()

	// Accounts that resolve through the lookup table rather than the static
	// key list.
	extraA := solana.NewWallet().PublicKey()
	extraB := solana.NewWallet().PublicKey()
	program := solana.NewWallet().PublicKey()

	tables := map[solana.PublicKey]solana.PublicKeySlice{
		table: {extraA, extraB},
	}

	instructions := []solana.Instruction{
		solana.NewInstruction(program,
			[]*solana.AccountMeta{
				{PublicKey: payer, IsSigner: true, IsWritable: true},
				{PublicKey: extraA, IsSigner: false, IsWritable: true},
				{PublicKey: extraB, IsSigner: false, IsWritable: false},
			},
			[]byte{1}),
	}

	encoded, versioned, err := assemble(instructions, tables, testBlockhash(), payer)
	require.NoError(t, err)
	assert.True(t, versioned)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	tx, err := solana.TransactionFromBase64(encoded)
	require.NoError(t, err)
	assert.True(t, tx.Message.IsVersioned())
	assert.NotEmpty(t, tx.Message.GetAddressTableLookups())
	for _, sig := range tx.Signatures {
		assert.True(t, sig.IsZero())
	}
}

func TestAssembleRejectsEmptyInstructionList(t *testing.T) {
	_, _, err := assemble(nil, nil, testBlockhash(), solana.NewWallet().PublicKey())
	require.Error(t, err)

	var invariant *InvariantError
	assert.ErrorAs(t, err, &invariant)
}

func TestFeeTransfers(t *testing.T) {
	platform := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()
	referrer := solana.NewWallet().PublicKey()

	a := &Assembler{platformWallet: platform}

	req := &BuildRequest{Buyer: buyer, Referrer: &referrer, LamportsIn: 1_000_000_000}
	fees := FeeBreakdown{TotalFee: 5, PlatformFee: 3, AffiliateFee: 2, NetAmount: 995}

	instructions := a.feeTransfers(req, fees)
	require.Len(t, instructions, 2)
	for _, ix := range instructions {
		assert.Equal(t, solana.SystemProgramID, ix.ProgramID())
	}

	// No referrer leg without a referrer, even if a stale breakdown carries
	// an affiliate amount.
	req.Referrer = nil
	instructions = a.feeTransfers(req, fees)
	require.Len(t, instructions, 1)

	// Below the fee floor nothing is transferred.
	instructions = a.feeTransfers(req, FeeBreakdown{NetAmount: 1_000})
	assert.Empty(t, instructions)
}
