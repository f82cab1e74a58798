package pump

import (
	"github.com/gagliardetto/solana-go"
)

// Known pump.fun protocol addresses.
var (
	// ProgramID is the pump.fun bonding curve program.
	ProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// GlobalState is the program's global configuration account.
	GlobalState = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")

	// FeeRecipientStandard receives the protocol fee for regular tokens.
	FeeRecipientStandard = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")

	// FeeRecipientAlternate receives the protocol fee when the curve's
	// fee-variant flag ("mayhem mode") is set.
	FeeRecipientAlternate = solana.MustPublicKeyFromBase58("GesfTA3X2arioaHp8bbKdjG9vJtskViWACZoYvxp4twS")
)

// Buy instruction discriminator: SHA256("global:buy")[0..8].
var buyDiscriminator = []byte{102, 6, 61, 18, 1, 218, 235, 234}

// TokenDecimals is fixed by the protocol for every curve token (not 9 like
// standard SPL mints).
const TokenDecimals = 6

var eventAuthority, _, _ = solana.FindProgramAddress(
	[][]byte{[]byte("__event_authority")},
	ProgramID,
)

// EventAuthority returns the program's event authority PDA.
func EventAuthority() solana.PublicKey {
	return eventAuthority
}

// DeriveBondingCurve computes the bonding curve PDA for a mint.
func DeriveBondingCurve(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), mint.Bytes()},
		ProgramID,
	)
	return addr, err
}
