package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pumplink/pumplink/internal/engine"
	"github.com/pumplink/pumplink/internal/logger"
	"github.com/pumplink/pumplink/internal/pump"
)

func testHandlers() *Handlers {
	return &Handlers{
		Assembler: engine.NewAssembler(engine.AssemblerParams{
			Logger:         zap.NewNop(),
			PlatformWallet: solana.NewWallet().PublicKey(),
		}),
		Policy: engine.FeePolicy{
			TotalFeeBps:      50,
			PlatformSharePct: 60,
			MinLamports:      100_000_000,
		},
		AppURL: "https://pumplink.example",
		Logger: logger.Nop(),
	}
}

func postContext(t *testing.T, mint, query, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/actions/"+mint+query, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/actions/:mint")
	c.SetParamNames("mint")
	c.SetParamValues(mint)
	return c, rec
}

func TestPostActionRejectsBadAmounts(t *testing.T) {
	h := testHandlers()
	mint := solana.NewWallet().PublicKey().String()
	account := solana.NewWallet().PublicKey().String()
	body := `{"account":"` + account + `"}`

	for name, query := range map[string]string{
		"missing":       "",
		"not a number":  "?amount=abc",
		"zero":          "?amount=0",
		"negative":      "?amount=-1",
		"below minimum": "?amount=0.01",
		"above maximum": "?amount=500",
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := postContext(t, mint, query, body)
			require.NoError(t, h.PostAction(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPostActionRejectsBadAccount(t *testing.T) {
	h := testHandlers()
	mint := solana.NewWallet().PublicKey().String()

	c, rec := postContext(t, mint, "?amount=0.5", `{}`)
	require.NoError(t, h.PostAction(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "account")

	c, rec = postContext(t, mint, "?amount=0.5", `{"account":"not-a-key"}`)
	require.NoError(t, h.PostAction(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostActionRejectsSelfReferral(t *testing.T) {
	h := testHandlers()
	mint := solana.NewWallet().PublicKey().String()
	account := solana.NewWallet().PublicKey().String()

	c, rec := postContext(t, mint, "?amount=0.5&ref="+account, `{"account":"`+account+`"}`)
	require.NoError(t, h.PostAction(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "referrer")
}

func TestGetActionRejectsBadMint(t *testing.T) {
	h := testHandlers()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/actions/garbage", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/actions/:mint")
	c.SetParamNames("mint")
	c.SetParamValues("garbage")

	require.NoError(t, h.GetAction(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActionsRules(t *testing.T) {
	h := testHandlers()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/actions.json", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ActionsRules(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var rules ActionsRules
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.NotEmpty(t, rules.Rules)
	assert.Equal(t, "/api/actions/**", rules.Rules[0].APIPath)
}

func TestDescribe(t *testing.T) {
	h := testHandlers()

	active := &pump.TokenState{
		Venue:                pump.VenueActive,
		VirtualSolReserves:   30_000_000_000,
		VirtualTokenReserves: 1_000_000_000_000,
	}
	desc := h.describe(active, false)
	assert.Contains(t, desc, "Price:")
	assert.Contains(t, desc, "0.5% fee")

	desc = h.describe(&pump.TokenState{Venue: pump.VenueGraduated}, true)
	assert.Contains(t, desc, "Graduated")
	assert.Contains(t, desc, "affiliate")

	desc = h.describe(&pump.TokenState{Venue: pump.VenueUnknown}, false)
	assert.Contains(t, desc, "Token on Solana")
}

func TestSolToLamports(t *testing.T) {
	assert.Equal(t, uint64(1_000_000_000), solToLamports(1))
	assert.Equal(t, uint64(500_000_000), solToLamports(0.5))
	assert.Equal(t, uint64(50_000_000), solToLamports(0.05))
	// 0.1 is not exactly representable; rounding must absorb the error.
	assert.Equal(t, uint64(100_000_000), solToLamports(0.1))
}
