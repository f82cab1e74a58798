package tokeninfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetFetchesAndCaches(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/"+mint.String(), r.URL.Path)
		_, _ = w.Write([]byte(`{"symbol":"PUMP","name":"Pump Token","image_uri":"https://img.example/p.png"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, zap.NewNop())

	info := client.Get(context.Background(), mint)
	assert.Equal(t, "PUMP", info.Symbol)
	assert.Equal(t, "Pump Token", info.Name)
	assert.Equal(t, "https://img.example/p.png", info.ImageURI)

	// Second lookup within the TTL is served from cache.
	_ = client.Get(context.Background(), mint)
	assert.Equal(t, 1, calls)
}

func TestGetFallsBackOnUnknownToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := New(srv.URL, zap.NewNop())
	mint := solana.NewWallet().PublicKey()

	info := client.Get(context.Background(), mint)
	assert.Equal(t, mint.String()[:6], info.Symbol)
	assert.Contains(t, info.Name, "Token")
}

func TestFallback(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	info := Fallback(mint)
	assert.Equal(t, "So1111", info.Symbol)
	assert.Equal(t, "Token So1111", info.Name)
}
