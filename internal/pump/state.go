package pump

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/pumplink/pumplink/internal/solclient"
)

// Venue classifies where a token currently trades. The set is closed; the
// assembler switches over it exhaustively.
type Venue int

const (
	// VenueUnknown means the curve state could not be read. Callers must
	// treat it like VenueGraduated: never attempt a curve buy without
	// confirmed reserve data.
	VenueUnknown Venue = iota
	// VenueActive means the bonding curve exists and has not completed.
	VenueActive
	// VenueGraduated means the curve is complete or absent and the token
	// trades on general-purpose liquidity venues.
	VenueGraduated
)

func (v Venue) String() string {
	switch v {
	case VenueActive:
		return "active"
	case VenueGraduated:
		return "graduated"
	default:
		return "unknown"
	}
}

// FeeVariant selects which protocol fee recipient a curve buy pays.
type FeeVariant uint8

const (
	FeeVariantStandard FeeVariant = iota
	FeeVariantAlternate
)

// FeeRecipient maps the variant to its fixed recipient address.
func (fv FeeVariant) FeeRecipient() solana.PublicKey {
	if fv == FeeVariantAlternate {
		return FeeRecipientAlternate
	}
	return FeeRecipientStandard
}

// TokenState is a snapshot of a token's venue. Reserve fields are only
// meaningful when Venue == VenueActive.
type TokenState struct {
	Venue        Venue
	BondingCurve solana.PublicKey

	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Creator              solana.PublicKey
	FeeVariant           FeeVariant
}

// OnCurve reports whether a bonding curve buy can be built from this state.
func (s *TokenState) OnCurve() bool {
	return s.Venue == VenueActive && !s.BondingCurve.IsZero()
}

// Bonding curve account layout after the 8-byte discriminator.
type bondingCurveLayout struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              solana.PublicKey
}

const (
	accountDiscriminatorLen = 8
	// Minimum account size: discriminator + five u64 reserves/supply +
	// complete flag + creator pubkey.
	bondingCurveMinLen = accountDiscriminatorLen + 5*8 + 1 + 32
	// The fee-variant flag was appended to the layout later; older
	// accounts stop at 81 bytes and imply the standard variant.
	feeVariantOffset = 81
)

// StateResolver classifies a token's trading venue from its on-chain
// bonding curve account. One read attempt per call, no retries.
type StateResolver struct {
	client *solclient.Client
	logger *zap.Logger
}

func NewStateResolver(client *solclient.Client, logger *zap.Logger) *StateResolver {
	return &StateResolver{
		client: client,
		logger: logger.Named("pump-state"),
	}
}

// Resolve derives the bonding curve PDA for mint and reads it. A missing
// account or a set completion flag classifies as graduated. A failed read
// classifies as unknown and the read error is returned alongside the state
// so the caller can log and degrade.
func (r *StateResolver) Resolve(ctx context.Context, mint solana.PublicKey) (*TokenState, error) {
	bondingCurve, err := DeriveBondingCurve(mint)
	if err != nil {
		return &TokenState{Venue: VenueUnknown}, fmt.Errorf("failed to derive bonding curve: %w", err)
	}

	data, err := r.client.GetAccountData(ctx, bondingCurve)
	if err != nil {
		if solclient.IsNotFound(err) {
			// No curve account: the token graduated (or never existed).
			r.logger.Debug("bonding curve account not found, treating as graduated",
				zap.String("mint", mint.String()),
				zap.String("bonding_curve", bondingCurve.String()))
			return &TokenState{Venue: VenueGraduated}, nil
		}
		r.logger.Warn("bonding curve read failed",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return &TokenState{Venue: VenueUnknown}, fmt.Errorf("failed to read bonding curve state: %w", err)
	}

	state, err := ParseBondingCurve(bondingCurve, data)
	if err != nil {
		r.logger.Warn("bonding curve account malformed",
			zap.String("mint", mint.String()),
			zap.Int("data_len", len(data)),
			zap.Error(err))
		return &TokenState{Venue: VenueUnknown}, err
	}
	return state, nil
}

// ParseBondingCurve decodes the fixed account layout into a TokenState.
// Parsing is pure: the same bytes always yield the same state.
func ParseBondingCurve(bondingCurve solana.PublicKey, data []byte) (*TokenState, error) {
	if len(data) < bondingCurveMinLen {
		return nil, fmt.Errorf("bonding curve data too short: %d bytes", len(data))
	}

	var layout bondingCurveLayout
	decoder := bin.NewBorshDecoder(data[accountDiscriminatorLen:])
	if err := decoder.Decode(&layout); err != nil {
		return nil, fmt.Errorf("failed to decode bonding curve account: %w", err)
	}

	if layout.Complete {
		return &TokenState{Venue: VenueGraduated, BondingCurve: bondingCurve}, nil
	}

	feeVariant := FeeVariantStandard
	if len(data) > feeVariantOffset && data[feeVariantOffset] == 1 {
		feeVariant = FeeVariantAlternate
	}

	return &TokenState{
		Venue:                VenueActive,
		BondingCurve:         bondingCurve,
		VirtualTokenReserves: layout.VirtualTokenReserves,
		VirtualSolReserves:   layout.VirtualSolReserves,
		RealTokenReserves:    layout.RealTokenReserves,
		RealSolReserves:      layout.RealSolReserves,
		TokenTotalSupply:     layout.TokenTotalSupply,
		Creator:              layout.Creator,
		FeeVariant:           feeVariant,
	}, nil
}
