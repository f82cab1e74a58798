package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testPolicy = FeePolicy{
	TotalFeeBps:      50, // 0.5%
	PlatformSharePct: 60,
	MinLamports:      100_000_000, // 0.1 SOL
}

func TestBreakdownWithReferrer(t *testing.T) {
	fees := testPolicy.Breakdown(1_000_000_000, true)

	assert.Equal(t, uint64(5_000_000), fees.TotalFee)
	assert.Equal(t, uint64(3_000_000), fees.PlatformFee)
	assert.Equal(t, uint64(2_000_000), fees.AffiliateFee)
	assert.Equal(t, uint64(995_000_000), fees.NetAmount)
}

func TestBreakdownWithoutReferrer(t *testing.T) {
	fees := testPolicy.Breakdown(1_000_000_000, false)

	assert.Equal(t, uint64(5_000_000), fees.TotalFee)
	assert.Equal(t, uint64(5_000_000), fees.PlatformFee)
	assert.Zero(t, fees.AffiliateFee)
	assert.Equal(t, uint64(995_000_000), fees.NetAmount)
}

func TestBreakdownBelowMinimum(t *testing.T) {
	fees := testPolicy.Breakdown(99_999_999, true)

	assert.Zero(t, fees.TotalFee)
	assert.Zero(t, fees.PlatformFee)
	assert.Zero(t, fees.AffiliateFee)
	assert.Equal(t, uint64(99_999_999), fees.NetAmount)
}

func TestBreakdownAtMinimum(t *testing.T) {
	fees := testPolicy.Breakdown(100_000_000, false)

	assert.Equal(t, uint64(500_000), fees.TotalFee)
	assert.Equal(t, uint64(99_500_000), fees.NetAmount)
}

// The split must be exact for every input: no lamport lost, no lamport
// minted.
func TestBreakdownConservation(t *testing.T) {
	amounts := []uint64{
		100_000_000,
		100_000_001,
		123_456_789,
		999_999_999,
		1_000_000_000,
		50_000_000_000,
		1 << 62,
	}
	for _, amount := range amounts {
		for _, hasReferrer := range []bool{true, false} {
			fees := testPolicy.Breakdown(amount, hasReferrer)
			assert.Equal(t, fees.TotalFee, fees.PlatformFee+fees.AffiliateFee,
				"split must sum to total for %d", amount)
			assert.Equal(t, amount, fees.NetAmount+fees.TotalFee,
				"net plus fee must equal input for %d", amount)
		}
	}
}

func TestBreakdownRoundingFavorsAffiliate(t *testing.T) {
	// totalFee = floor(200000001 * 50 / 10000) = 1000000 (floor drops the
	// fractional lamport). platform = floor(1000000 * 60 / 100) = 600000.
	fees := testPolicy.Breakdown(200_000_001, true)
	assert.Equal(t, uint64(1_000_000), fees.TotalFee)
	assert.Equal(t, uint64(600_000), fees.PlatformFee)
	assert.Equal(t, uint64(400_000), fees.AffiliateFee)
}

func TestBreakdownZeroFeePolicy(t *testing.T) {
	policy := FeePolicy{TotalFeeBps: 0, PlatformSharePct: 60}
	fees := policy.Breakdown(1_000_000_000, true)
	assert.Zero(t, fees.TotalFee)
	assert.Equal(t, uint64(1_000_000_000), fees.NetAmount)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "0.5% fee", testPolicy.Describe(false))
	assert.Equal(t, "0.5% fee (0.3% platform + 0.2% affiliate)", testPolicy.Describe(true))
}
