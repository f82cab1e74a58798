package jupiter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Quote is an aggregator price quote. The raw response body is kept so the
// swap endpoints receive the quote exactly as issued.
type Quote struct {
	InputMint      string `json:"inputMint"`
	OutputMint     string `json:"outputMint"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`

	raw json.RawMessage
}

func parseQuote(body []byte) (*Quote, error) {
	var q Quote
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, fmt.Errorf("malformed quote response: %w", err)
	}
	if q.OutAmount == "" {
		return nil, fmt.Errorf("quote response missing outAmount")
	}
	q.raw = json.RawMessage(body)
	return &q, nil
}

// Raw returns the quote exactly as the aggregator returned it.
func (q *Quote) Raw() json.RawMessage {
	return q.raw
}

// instructionPayload is the aggregator's serialized instruction descriptor.
type instructionPayload struct {
	ProgramID string           `json:"programId"`
	Accounts  []accountPayload `json:"accounts"`
	Data      string           `json:"data"`
}

type accountPayload struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// deserialize converts a descriptor into a concrete instruction.
func (p *instructionPayload) deserialize() (solana.Instruction, error) {
	programID, err := solana.PublicKeyFromBase58(p.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("bad program id %q: %w", p.ProgramID, err)
	}
	metas := make([]*solana.AccountMeta, len(p.Accounts))
	for i, acc := range p.Accounts {
		key, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("bad account %q: %w", acc.Pubkey, err)
		}
		metas[i] = &solana.AccountMeta{
			PublicKey:  key,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		}
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("bad instruction data: %w", err)
	}
	return solana.NewInstruction(programID, metas, data), nil
}

// swapInstructionsResponse is the primary endpoint's reply. The field
// groups are ordered by contract: compute budget, setup, swap, cleanup.
type swapInstructionsResponse struct {
	ComputeBudgetInstructions   []instructionPayload `json:"computeBudgetInstructions"`
	SetupInstructions           []instructionPayload `json:"setupInstructions"`
	SwapInstruction             *instructionPayload  `json:"swapInstruction"`
	CleanupInstruction          *instructionPayload  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string             `json:"addressLookupTableAddresses"`
}

// swapTransactionResponse is the fallback endpoint's reply: one opaque,
// fully built transaction.
type swapTransactionResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// SwapBundle is the client's normalized output: ordered instructions plus
// any lookup tables the final transaction must reference.
type SwapBundle struct {
	Instructions []solana.Instruction
	LookupTables map[solana.PublicKey]solana.PublicKeySlice
	Quote        *Quote
}
