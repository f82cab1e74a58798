package engine

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BuildRequest carries everything needed to build one buy transaction. A
// request is validated in full before any network call is made.
type BuildRequest struct {
	Mint       solana.PublicKey
	Buyer      solana.PublicKey
	Referrer   *solana.PublicKey
	LamportsIn uint64
}

// HasReferrer reports whether an affiliate takes part in the fee split.
func (r *BuildRequest) HasReferrer() bool {
	return r.Referrer != nil
}

// Validate enforces the request invariants: positive amount, well-formed
// identities, and a referrer that is a real wallet distinct from both the
// buyer and the platform.
func (r *BuildRequest) Validate(platformWallet solana.PublicKey) error {
	if r.Mint.IsZero() {
		return ErrInvalidMint
	}
	if r.Buyer.IsZero() {
		return ErrInvalidBuyer
	}
	if r.LamportsIn == 0 {
		return ErrInvalidAmount
	}
	if r.Referrer != nil {
		if r.Referrer.Equals(r.Buyer) {
			return ErrSelfReferral
		}
		if r.Referrer.Equals(platformWallet) {
			return ErrPlatformReferral
		}
		// A referrer must be able to hold lamports: PDAs and other
		// off-curve 32-byte strings are rejected, not silently paid.
		if !r.Referrer.IsOnCurve() {
			return ErrReferrerOffCurve
		}
	}
	return nil
}

// ParseRequest builds a validated BuildRequest from raw string inputs, as
// they arrive on the HTTP boundary. referrer may be empty.
func ParseRequest(mint, buyer, referrer string, lamports uint64, platformWallet solana.PublicKey) (*BuildRequest, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMint, err)
	}
	buyerKey, err := solana.PublicKeyFromBase58(buyer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBuyer, err)
	}

	req := &BuildRequest{
		Mint:       mintKey,
		Buyer:      buyerKey,
		LamportsIn: lamports,
	}

	if referrer != "" {
		refKey, err := solana.PublicKeyFromBase58(referrer)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed referrer: %v", ErrInvalidInput, err)
		}
		req.Referrer = &refKey
	}

	if err := req.Validate(platformWallet); err != nil {
		return nil, err
	}
	return req, nil
}
