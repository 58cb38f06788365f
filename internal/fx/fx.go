// Package fx is the currency-rate collaborator. Snapshots are cached
// for a fixed window to bound request volume; a failed refresh falls
// back to the last known good snapshot.
package fx

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://open.er-api.com"
	cacheTTL       = 10 * time.Minute
)

type snapshot struct {
	base      string
	rates     map[string]float64
	fetchedAt time.Time
}

type Client struct {
	client *resty.Client

	mu   sync.Mutex
	last map[string]snapshot // keyed by base currency

	now func() time.Time
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(8 * time.Second)
	return &Client{
		client: c,
		last:   make(map[string]snapshot),
		now:    time.Now,
	}
}

type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// Rates returns currency->rate for the base currency. Within the cache
// window the cached snapshot is returned without a network call; after
// a failed refresh the stale snapshot is served if one exists.
func (c *Client) Rates(ctx context.Context, base string) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.last[base]; ok && c.now().Sub(s.fetchedAt) < cacheTTL {
		return s.rates, nil
	}

	rates, err := c.fetch(ctx, base)
	if err != nil {
		if s, ok := c.last[base]; ok {
			return s.rates, nil
		}
		return nil, err
	}

	c.last[base] = snapshot{base: base, rates: rates, fetchedAt: c.now()}
	return rates, nil
}

func (c *Client) fetch(ctx context.Context, base string) (map[string]float64, error) {
	var out ratesResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v6/latest/" + base)
	if err != nil {
		return nil, fmt.Errorf("fx request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || out.Result != "success" {
		return nil, fmt.Errorf("fx status %d (%s)", resp.StatusCode(), out.Result)
	}
	if len(out.Rates) == 0 {
		return nil, fmt.Errorf("fx: empty rates for %s", base)
	}
	return out.Rates, nil
}

// Convert applies a cached rate to an amount.
func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	rates, err := c.Rates(ctx, from)
	if err != nil {
		return 0, err
	}
	rate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("fx: no rate %s -> %s", from, to)
	}
	return amount * rate, nil
}
