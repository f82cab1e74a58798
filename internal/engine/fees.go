package engine

import (
	"fmt"
	"math/big"
)

// FeePolicy describes how the service fee is carved out of a trade. All
// arithmetic is exact integer math; a unit is never lost to rounding and
// floating point is never involved.
type FeePolicy struct {
	// TotalFeeBps is the overall fee in basis points of the input amount.
	TotalFeeBps uint64
	// PlatformSharePct is the platform's percentage of the total fee when
	// a referrer takes the remainder.
	PlatformSharePct uint64
	// MinLamports gates fee collection: trades below it pass through
	// untouched so dust buys are not eaten by transfer overhead.
	MinLamports uint64
}

// FeeBreakdown is the exact split of one trade. TotalFee is always
// PlatformFee + AffiliateFee, and NetAmount is the input minus TotalFee.
type FeeBreakdown struct {
	TotalFee     uint64
	PlatformFee  uint64
	AffiliateFee uint64
	NetAmount    uint64
}

// Breakdown computes the fee split for an input amount.
//
// totalFee = floor(amount * TotalFeeBps / 10000). With a referrer the
// platform takes floor(totalFee * PlatformSharePct / 100) and the referrer
// takes the remainder, so the two always sum to totalFee exactly. Without
// a referrer the platform takes everything. Below MinLamports no fee is
// charged at all and the breakdown reports zeroes.
func (p FeePolicy) Breakdown(lamports uint64, hasReferrer bool) FeeBreakdown {
	if lamports < p.MinLamports || p.TotalFeeBps == 0 {
		return FeeBreakdown{NetAmount: lamports}
	}

	totalFee := mulDiv(lamports, p.TotalFeeBps, 10_000)

	var platformFee, affiliateFee uint64
	if hasReferrer {
		platformFee = mulDiv(totalFee, p.PlatformSharePct, 100)
		affiliateFee = totalFee - platformFee
	} else {
		platformFee = totalFee
	}

	return FeeBreakdown{
		TotalFee:     totalFee,
		PlatformFee:  platformFee,
		AffiliateFee: affiliateFee,
		NetAmount:    lamports - totalFee,
	}
}

// Describe renders the active split for user-facing fee summaries.
func (p FeePolicy) Describe(hasReferrer bool) string {
	feePct := float64(p.TotalFeeBps) / 100
	if !hasReferrer {
		return fmt.Sprintf("%g%% fee", feePct)
	}
	platformPct := float64(p.TotalFeeBps*p.PlatformSharePct) / 10_000
	affiliatePct := feePct - platformPct
	return fmt.Sprintf("%g%% fee (%g%% platform + %g%% affiliate)", feePct, platformPct, affiliatePct)
}

// mulDiv returns floor(a * b / den) without 64-bit overflow in the
// intermediate product.
func mulDiv(a, b, den uint64) uint64 {
	result := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return result.Quo(result, new(big.Int).SetUint64(den)).Uint64()
}
