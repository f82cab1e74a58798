package pumpswap

import "math/big"

// TokensOut returns the constant product output for a lamport input after
// the pool fee. Reserve sizes can push the intermediate product past 64
// bits, so the math runs in big.Int.
//
// amountInAfterFee = floor(in * (10000 - feeBps) / 10000)
// out = floor(tokenReserve * amountInAfterFee / (solReserve + amountInAfterFee))
func TokensOut(lamportsIn, solReserve, tokenReserve uint64) uint64 {
	if lamportsIn == 0 || solReserve == 0 || tokenReserve == 0 {
		return 0
	}

	in := new(big.Int).SetUint64(lamportsIn)
	afterFee := new(big.Int).Mul(in, big.NewInt(10_000-SwapFeeBps))
	afterFee.Quo(afterFee, big.NewInt(10_000))

	numerator := new(big.Int).Mul(new(big.Int).SetUint64(tokenReserve), afterFee)
	denominator := new(big.Int).Add(new(big.Int).SetUint64(solReserve), afterFee)

	return numerator.Quo(numerator, denominator).Uint64()
}
