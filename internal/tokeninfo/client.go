// Package tokeninfo fetches token display metadata for link previews. It is
// best effort: a failed lookup degrades to placeholder metadata instead of
// failing the request.
package tokeninfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	requestTimeout = 5 * time.Second
	maxRetryTime   = 8 * time.Second
	cacheTTL       = 60 * time.Second
)

// Info is the display metadata of a token.
type Info struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	ImageURI    string `json:"image_uri"`
	Description string `json:"description"`
}

type cacheEntry struct {
	info      *Info
	fetchedAt time.Time
}

// Client reads metadata from the pump.fun frontend API with a small TTL
// cache so repeated previews of the same token do not hammer the API.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: baseURL,
		logger:  logger.Named("tokeninfo"),
		cache:   make(map[string]cacheEntry),
	}
}

// Get returns metadata for mint, from cache when fresh. Lookup failures are
// logged and replaced with fallback metadata derived from the mint address.
func (c *Client) Get(ctx context.Context, mint solana.PublicKey) *Info {
	key := mint.String()

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < cacheTTL {
		return entry.info
	}

	info, err := c.fetch(ctx, key)
	if err != nil {
		c.logger.Warn("token metadata lookup failed",
			zap.String("mint", key),
			zap.Error(err))
		return Fallback(mint)
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{info: info, fetchedAt: time.Now()}
	c.mu.Unlock()
	return info
}

func (c *Client) fetch(ctx context.Context, mint string) (*Info, error) {
	requestURL := fmt.Sprintf("%s/%s", c.baseURL, mint)

	operation := func() (*Info, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, backoff.Permanent(fmt.Errorf("token %s not known to metadata API", mint))
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("metadata API returned %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		var info Info
		if err := json.Unmarshal(body, &info); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("malformed metadata response: %w", err))
		}
		if info.Symbol == "" && info.Name == "" {
			return nil, backoff.Permanent(fmt.Errorf("metadata response empty for %s", mint))
		}
		return &info, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxRetryTime))
}

// Fallback builds placeholder metadata from the mint address alone.
func Fallback(mint solana.PublicKey) *Info {
	short := mint.String()
	if len(short) > 6 {
		short = short[:6]
	}
	return &Info{
		Symbol: short,
		Name:   "Token " + short,
	}
}
