package pumpswap

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolAccount(baseMint, quoteMint solana.PublicKey) []byte {
	data := make([]byte, 8+64+32)
	copy(data[8:40], baseMint.Bytes())
	copy(data[40:72], quoteMint.Bytes())
	return data
}

func TestParsePool(t *testing.T) {
	tokenMint := solana.NewWallet().PublicKey()
	address, err := DerivePool(tokenMint, solana.SolMint)
	require.NoError(t, err)

	pool, err := parsePool(address, poolAccount(tokenMint, solana.SolMint), false)
	require.NoError(t, err)

	assert.Equal(t, address, pool.Address)
	assert.Equal(t, tokenMint, pool.BaseMint)
	assert.Equal(t, solana.SolMint, pool.QuoteMint)

	baseVault, err := DeriveVault(address, tokenMint)
	require.NoError(t, err)
	quoteVault, err := DeriveVault(address, solana.SolMint)
	require.NoError(t, err)
	assert.Equal(t, baseVault, pool.BaseVault)
	assert.Equal(t, quoteVault, pool.QuoteVault)
}

func TestParsePoolReversed(t *testing.T) {
	tokenMint := solana.NewWallet().PublicKey()
	address, err := DerivePool(solana.SolMint, tokenMint)
	require.NoError(t, err)

	// On chain the pool stores WSOL as base. The parser flips the pair so
	// the caller always sees the token as base.
	pool, err := parsePool(address, poolAccount(solana.SolMint, tokenMint), true)
	require.NoError(t, err)

	assert.Equal(t, tokenMint, pool.BaseMint)
	assert.Equal(t, solana.SolMint, pool.QuoteMint)

	tokenVault, err := DeriveVault(address, tokenMint)
	require.NoError(t, err)
	assert.Equal(t, tokenVault, pool.BaseVault)
}

func TestParsePoolTooShort(t *testing.T) {
	_, err := parsePool(solana.NewWallet().PublicKey(), make([]byte, 40), false)
	assert.Error(t, err)
}

func TestNewBuyInstruction(t *testing.T) {
	tokenMint := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()
	address, err := DerivePool(tokenMint, solana.SolMint)
	require.NoError(t, err)
	pool, err := parsePool(address, poolAccount(tokenMint, solana.SolMint), false)
	require.NoError(t, err)

	tokenATA, _, err := solana.FindAssociatedTokenAddress(buyer, tokenMint)
	require.NoError(t, err)
	wsolATA, _, err := solana.FindAssociatedTokenAddress(buyer, solana.SolMint)
	require.NoError(t, err)

	ix := NewBuyInstruction(pool, buyer, tokenATA, wsolATA, 1_000_000_000, 9_000_000)

	assert.Equal(t, ProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 24)
	assert.Equal(t, buyDiscriminator, data[0:8])
	assert.Equal(t, uint64(1_000_000_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(9_000_000), binary.LittleEndian.Uint64(data[16:24]))

	metas := ix.Accounts()
	require.Len(t, metas, 15)

	assert.Equal(t, GlobalConfig, metas[0].PublicKey)
	assert.Equal(t, FeeRecipient, metas[1].PublicKey)
	assert.Equal(t, pool.Address, metas[2].PublicKey)
	// Buy spends WSOL and receives the token.
	assert.Equal(t, wsolATA, metas[3].PublicKey)
	assert.Equal(t, tokenATA, metas[4].PublicKey)
	assert.Equal(t, pool.QuoteVault, metas[5].PublicKey)
	assert.Equal(t, pool.BaseVault, metas[6].PublicKey)
	assert.Equal(t, buyer, metas[7].PublicKey)
	assert.True(t, metas[7].IsSigner)
	assert.Equal(t, ProgramID, metas[14].PublicKey)

	for i, meta := range metas {
		if i != 7 {
			assert.False(t, meta.IsSigner, "account %d must not sign", i)
		}
	}
}

func TestSyncNativeInstruction(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	ix := newSyncNativeInstruction(account)

	assert.Equal(t, solana.TokenProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{17}, data)

	metas := ix.Accounts()
	require.Len(t, metas, 1)
	assert.Equal(t, account, metas[0].PublicKey)
	assert.True(t, metas[0].IsWritable)
}
