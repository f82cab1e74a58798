package pump

import (
	"errors"
	"math/big"
)

// ErrNotOnCurve marks a caller bug: a curve buy was requested for a state
// without reserve data. It is a programming error, not a runtime condition.
var ErrNotOnCurve = errors.New("token state has no bonding curve reserves")

const bpsDenominator = 10_000

// TokensOut returns the constant-product output for a SOL input:
// floor(in * virtualTokenReserves / (virtualSolReserves + in)).
//
// The intermediate product exceeds 64 bits for realistic reserves, so the
// math runs on big.Int. The result is always strictly below
// virtualTokenReserves for any finite input.
func TokensOut(lamportsIn, virtualSolReserves, virtualTokenReserves uint64) uint64 {
	if lamportsIn == 0 || virtualTokenReserves == 0 {
		return 0
	}
	numerator := new(big.Int).Mul(
		new(big.Int).SetUint64(lamportsIn),
		new(big.Int).SetUint64(virtualTokenReserves),
	)
	denominator := new(big.Int).Add(
		new(big.Int).SetUint64(virtualSolReserves),
		new(big.Int).SetUint64(lamportsIn),
	)
	return new(big.Int).Quo(numerator, denominator).Uint64()
}

// Price returns the current spot price in SOL per whole token, for display
// only. Returns false when the state carries no reserve data.
func Price(state *TokenState) (float64, bool) {
	if state == nil || state.VirtualTokenReserves == 0 || state.VirtualSolReserves == 0 {
		return 0, false
	}
	solReserves := float64(state.VirtualSolReserves) / 1e9
	tokenReserves := float64(state.VirtualTokenReserves) / 1e6
	return solReserves / tokenReserves, true
}

// ApplySlippage returns floor(amount * (10000 - slippageBps) / 10000), the
// minimum acceptable output for a quoted amount. slippageBps above 10000 is
// clamped to a zero minimum.
func ApplySlippage(amount, slippageBps uint64) uint64 {
	if slippageBps >= bpsDenominator {
		return 0
	}
	result := new(big.Int).Mul(
		new(big.Int).SetUint64(amount),
		new(big.Int).SetUint64(bpsDenominator-slippageBps),
	)
	return result.Quo(result, big.NewInt(bpsDenominator)).Uint64()
}
