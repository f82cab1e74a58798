// Package jupiter talks to the Jupiter swap aggregator. It produces ready
// to assemble instruction bundles for tokens that have left the bonding
// curve and trade on open liquidity.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pumplink/pumplink/internal/solclient"
)

const requestTimeout = 15 * time.Second

// Client queries the aggregator and resolves the lookup tables its routes
// reference. It is safe for concurrent use.
type Client struct {
	http                *http.Client
	chain               *solclient.Client
	quoteURL            string
	swapInstructionsURL string
	swapURL             string
	logger              *zap.Logger
}

func New(chain *solclient.Client, quoteURL, swapInstructionsURL, swapURL string, logger *zap.Logger) *Client {
	return &Client{
		http:                &http.Client{Timeout: requestTimeout},
		chain:               chain,
		quoteURL:            quoteURL,
		swapInstructionsURL: swapInstructionsURL,
		swapURL:             swapURL,
		logger:              logger.Named("jupiter"),
	}
}

// BuildSwap quotes a SOL-to-token swap and returns the aggregator's
// instructions in execution order together with the lookup tables the final
// transaction needs. When the instruction endpoint is unavailable it falls
// back to the prebuilt transaction endpoint and decompiles its result.
func (c *Client) BuildSwap(
	ctx context.Context,
	buyer, outputMint solana.PublicKey,
	lamportsIn, slippageBps uint64,
) (*SwapBundle, error) {
	quote, err := c.Quote(ctx, solana.SolMint, outputMint, lamportsIn, slippageBps)
	if err != nil {
		return nil, err
	}

	bundle, err := c.swapInstructions(ctx, buyer, quote)
	if err != nil {
		c.logger.Warn("swap-instructions endpoint failed, falling back to prebuilt transaction",
			zap.String("mint", outputMint.String()),
			zap.Error(err))
		bundle, err = c.swapTransaction(ctx, buyer, quote)
		if err != nil {
			return nil, err
		}
	}

	bundle.Quote = quote
	return bundle, nil
}

// Quote fetches a route quote. One attempt per call; the caller decides
// what a failure means.
func (c *Client) Quote(
	ctx context.Context,
	inputMint, outputMint solana.PublicKey,
	amount, slippageBps uint64,
) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint.String())
	params.Set("outputMint", outputMint.String())
	params.Set("amount", strconv.FormatUint(amount, 10))
	params.Set("slippageBps", strconv.FormatUint(slippageBps, 10))

	body, err := c.get(ctx, c.quoteURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	quote, err := parseQuote(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got quote",
		zap.String("input_mint", inputMint.String()),
		zap.String("output_mint", outputMint.String()),
		zap.Uint64("amount", amount),
		zap.String("out_amount", quote.OutAmount),
		zap.String("price_impact_pct", quote.PriceImpactPct))
	return quote, nil
}

// swapInstructions asks the aggregator for the instruction set of a quoted
// swap and flattens it into execution order.
func (c *Client) swapInstructions(ctx context.Context, buyer solana.PublicKey, quote *Quote) (*SwapBundle, error) {
	payload := map[string]interface{}{
		"userPublicKey":             buyer.String(),
		"quoteResponse":             quote.Raw(),
		"wrapAndUnwrapSol":          true,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": "auto",
	}
	body, err := c.post(ctx, c.swapInstructionsURL, payload)
	if err != nil {
		return nil, err
	}

	var resp swapInstructionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed swap-instructions response: %w", err)
	}
	if resp.SwapInstruction == nil {
		return nil, fmt.Errorf("swap-instructions response missing swap instruction")
	}

	ordered := make([]instructionPayload, 0,
		len(resp.ComputeBudgetInstructions)+len(resp.SetupInstructions)+2)
	ordered = append(ordered, resp.ComputeBudgetInstructions...)
	ordered = append(ordered, resp.SetupInstructions...)
	ordered = append(ordered, *resp.SwapInstruction)
	if resp.CleanupInstruction != nil {
		ordered = append(ordered, *resp.CleanupInstruction)
	}

	instructions := make([]solana.Instruction, len(ordered))
	for i := range ordered {
		ix, err := ordered[i].deserialize()
		if err != nil {
			return nil, err
		}
		instructions[i] = ix
	}

	tables, err := c.resolveLookupTables(ctx, resp.AddressLookupTableAddresses)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("built swap bundle",
		zap.Int("instructions", len(instructions)),
		zap.Int("lookup_tables", len(tables)))
	return &SwapBundle{Instructions: instructions, LookupTables: tables}, nil
}

// swapTransaction is the fallback path: fetch a fully built transaction and
// decompile it back into instructions plus lookup tables, so assembly stays
// uniform across venues.
func (c *Client) swapTransaction(ctx context.Context, buyer solana.PublicKey, quote *Quote) (*SwapBundle, error) {
	payload := map[string]interface{}{
		"userPublicKey":             buyer.String(),
		"quoteResponse":             quote.Raw(),
		"wrapAndUnwrapSol":          true,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": "auto",
	}
	body, err := c.post(ctx, c.swapURL, payload)
	if err != nil {
		return nil, err
	}

	var resp swapTransactionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed swap response: %w", err)
	}
	if resp.SwapTransaction == "" {
		return nil, fmt.Errorf("swap response missing transaction")
	}

	return c.decompile(ctx, resp.SwapTransaction)
}

// decompile unpacks a base64 transaction into its instruction list. Lookup
// table contents are fetched so indexes past the static account list can be
// translated back to full account metas.
func (c *Client) decompile(ctx context.Context, encoded string) (*SwapBundle, error) {
	tx, err := solana.TransactionFromBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode swap transaction: %w", err)
	}

	lookups := tx.Message.GetAddressTableLookups()
	addresses := make([]string, len(lookups))
	for i, lookup := range lookups {
		addresses[i] = lookup.AccountKey.String()
	}
	tables, err := c.resolveLookupTables(ctx, addresses)
	if err != nil {
		return nil, err
	}
	if len(tables) > 0 {
		if err := tx.Message.SetAddressTables(tables); err != nil {
			return nil, fmt.Errorf("failed to attach lookup tables: %w", err)
		}
	}

	allMetas, err := tx.Message.AccountMetaList()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account list: %w", err)
	}

	instructions := make([]solana.Instruction, 0, len(tx.Message.Instructions))
	for _, compiled := range tx.Message.Instructions {
		programID, err := tx.Message.Program(compiled.ProgramIDIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve program id: %w", err)
		}
		metas := make([]*solana.AccountMeta, len(compiled.Accounts))
		for i, accountIndex := range compiled.Accounts {
			if int(accountIndex) >= len(allMetas) {
				return nil, fmt.Errorf("instruction account index %d out of range", accountIndex)
			}
			metas[i] = allMetas[accountIndex]
		}
		instructions = append(instructions, solana.NewInstruction(programID, metas, compiled.Data))
	}

	return &SwapBundle{Instructions: instructions, LookupTables: tables}, nil
}

// resolveLookupTables fetches the contents of every referenced lookup table
// concurrently. A table that cannot be fetched fails the whole build: a
// transaction referencing a table we did not load would be unserializable or
// wrong.
func (c *Client) resolveLookupTables(ctx context.Context, addresses []string) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	keys := make([]solana.PublicKey, len(addresses))
	for i, addr := range addresses {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("bad lookup table address %q: %w", addr, err)
		}
		keys[i] = key
	}

	// Fetches are independent: one failure does not cancel the others.
	contents := make([]solana.PublicKeySlice, len(keys))
	var group errgroup.Group
	for i, key := range keys {
		i, key := i, key
		group.Go(func() error {
			data, err := c.chain.GetAccountData(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to fetch lookup table %s: %w", key, err)
			}
			state, err := addresslookuptable.DecodeAddressLookupTableState(data)
			if err != nil {
				return fmt.Errorf("failed to decode lookup table %s: %w", key, err)
			}
			contents[i] = state.Addresses
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(keys))
	for i, key := range keys {
		tables[key] = contents[i]
	}
	return tables, nil
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, requestURL string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregator returned %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
