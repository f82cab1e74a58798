// Package pumpswap builds buy instructions against PumpSwap pools, the AMM
// that bonding curve tokens migrate into. It serves as the direct-pool
// fallback when the swap aggregator cannot produce a route.
package pumpswap

import "github.com/gagliardetto/solana-go"

var (
	// ProgramID is the PumpSwap AMM program.
	ProgramID = solana.MustPublicKeyFromBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")

	// GlobalConfig is the program's global configuration account.
	GlobalConfig = solana.MustPublicKeyFromBase58("ADyA8hdefvWN2dbGGWFotbzWxrAvLW83WG6QCVXvJKqw")

	// FeeRecipient receives the protocol fee on every swap.
	FeeRecipient = solana.MustPublicKeyFromBase58("62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
)

var buyDiscriminator = []byte{102, 6, 61, 18, 1, 218, 235, 234}

// SwapFeeBps is the pool's swap fee, deducted from the input amount.
const SwapFeeBps = 25

// DerivePool returns the pool PDA for a base/quote mint pair.
func DerivePool(baseMint, quoteMint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte("pool"),
		baseMint.Bytes(),
		quoteMint.Bytes(),
	}
	address, _, err := solana.FindProgramAddress(seeds, ProgramID)
	return address, err
}

// DeriveVault returns the pool's vault PDA for one of its mints.
func DeriveVault(pool, mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte("pool_vault"),
		pool.Bytes(),
		mint.Bytes(),
	}
	address, _, err := solana.FindProgramAddress(seeds, ProgramID)
	return address, err
}
