package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pumplink/pumplink/internal/engine"
	"github.com/pumplink/pumplink/internal/logger"
	"github.com/pumplink/pumplink/internal/pump"
	"github.com/pumplink/pumplink/internal/tokeninfo"
)

// Amount bounds for the Actions surface, in SOL.
const (
	minAmountSOL = 0.05
	maxAmountSOL = 100.0
)

var presetAmountsSOL = []float64{0.1, 0.5, 1}

// Handlers serves the Solana Actions API: metadata previews on GET and
// transaction builds on POST.
type Handlers struct {
	Assembler *engine.Assembler
	Resolver  *pump.StateResolver
	TokenInfo *tokeninfo.Client
	Policy    engine.FeePolicy
	AppURL    string
	Logger    *logger.Logger
}

func (h *Handlers) err(c echo.Context, code int, msg string) error {
	return c.JSON(code, ErrorResponse{Error: msg, Code: code})
}

// Health is the liveness endpoint.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// ActionsRules serves the /actions.json discovery document wallets use to
// map site paths onto Action endpoints.
func (h *Handlers) ActionsRules(c echo.Context) error {
	return c.JSON(http.StatusOK, ActionsRules{
		Rules: []ActionsRule{
			{PathPattern: "/buy/**", APIPath: "/api/actions/**"},
			{PathPattern: "/api/actions/**", APIPath: "/api/actions/**"},
		},
	})
}

// GetAction returns Action metadata for a token: title, icon, a venue-aware
// description and the preset/custom amount links.
func (h *Handlers) GetAction(c echo.Context) error {
	mint, err := solana.PublicKeyFromBase58(c.Param("mint"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint address")
	}

	ctx := c.Request().Context()
	info := h.TokenInfo.Get(ctx, mint)
	state, stateErr := h.Resolver.Resolve(ctx, mint)
	if stateErr != nil {
		h.Logger.Warn("venue resolution failed for metadata",
			zap.String("mint", mint.String()),
			zap.Error(stateErr))
	}

	refParam := ""
	if ref := c.QueryParam("ref"); ref != "" {
		refParam = "&ref=" + ref
	}

	description := h.describe(state, refParam != "")

	icon := info.ImageURI
	if icon == "" {
		icon = h.AppURL + "/default-token.svg"
	}

	base := fmt.Sprintf("/api/actions/%s?amount=", mint)
	actions := make([]LinkedAction, 0, len(presetAmountsSOL)+1)
	for _, amount := range presetAmountsSOL {
		actions = append(actions, LinkedAction{
			Label: fmt.Sprintf("%g SOL", amount),
			Href:  fmt.Sprintf("%s%g%s", base, amount, refParam),
		})
	}
	actions = append(actions, LinkedAction{
		Label: "Custom",
		Href:  base + "{amount}" + refParam,
		Parameters: []ActionParameter{{
			Name:     "amount",
			Label:    "SOL amount",
			Type:     "number",
			Required: true,
			Min:      minAmountSOL,
			Max:      maxAmountSOL,
		}},
	})

	return c.JSON(http.StatusOK, ActionMetadata{
		Type:        "action",
		Icon:        icon,
		Title:       "Buy $" + info.Symbol,
		Description: description,
		Label:       "Buy",
		Links:       &ActionLinks{Actions: actions},
	})
}

// PostAction builds the unsigned buy transaction for a wallet's account.
func (h *Handlers) PostAction(c echo.Context) error {
	amountStr := c.QueryParam("amount")
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || math.IsNaN(amount) || amount <= 0 {
		return h.err(c, http.StatusBadRequest, "invalid amount, must be greater than 0")
	}
	if amount < minAmountSOL {
		return h.err(c, http.StatusBadRequest, fmt.Sprintf("minimum amount is %g SOL", minAmountSOL))
	}
	if amount > maxAmountSOL {
		return h.err(c, http.StatusBadRequest, fmt.Sprintf("maximum amount is %g SOL", maxAmountSOL))
	}

	var body PostActionRequest
	if err := c.Bind(&body); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json body")
	}
	if body.Account == "" {
		return h.err(c, http.StatusBadRequest, "missing account in request body")
	}

	req, err := engine.ParseRequest(
		c.Param("mint"),
		body.Account,
		c.QueryParam("ref"),
		solToLamports(amount),
		h.Assembler.PlatformWallet())
	if err != nil {
		return h.err(c, http.StatusBadRequest, err.Error())
	}

	// Request-scoped logger: every entry for this build shares one
	// correlation id.
	reqLog := h.Logger.WithRequest(req.Mint.String())

	result, err := h.Assembler.Build(c.Request().Context(), req)
	if err != nil {
		switch {
		case engine.IsInvalidInput(err):
			return h.err(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, engine.ErrVenueUnavailable):
			reqLog.Info("no venue for token", zap.Error(err))
			return h.err(c, http.StatusNotFound, "no liquidity venue found for this token")
		default:
			reqLog.Error("transaction build failed", zap.Error(err))
			return h.err(c, http.StatusInternalServerError, "failed to build transaction")
		}
	}

	reqLog.Info("served transaction",
		zap.String("venue", result.Venue.String()),
		zap.Uint64("lamports_in", req.LamportsIn),
		zap.Bool("versioned", result.Versioned))

	return c.JSON(http.StatusOK, PostActionResponse{
		Transaction: result.Transaction,
		Message:     result.Message,
	})
}

// describe renders the metadata description line from the venue state.
func (h *Handlers) describe(state *pump.TokenState, hasReferrer bool) string {
	var description string
	switch {
	case state != nil && state.Venue == pump.VenueGraduated:
		description = "Graduated token | Trading via Jupiter"
	case state != nil && state.Venue == pump.VenueActive:
		if price, ok := pump.Price(state); ok {
			description = fmt.Sprintf("Price: %.10f SOL per token", price)
		} else {
			description = "Token on bonding curve"
		}
	default:
		description = "Token on Solana"
	}

	feePct := float64(h.Policy.TotalFeeBps) / 100
	minSOL := float64(h.Policy.MinLamports) / float64(solana.LAMPORTS_PER_SOL)
	description += fmt.Sprintf(" | %g%% fee on orders >= %g SOL", feePct, minSOL)
	if hasReferrer {
		description += " (incl. affiliate)"
	}
	return description
}

// solToLamports converts a SOL amount to lamports, rounding to the nearest
// lamport to absorb float representation error.
func solToLamports(sol float64) uint64 {
	return uint64(math.Round(sol * float64(solana.LAMPORTS_PER_SOL)))
}
