package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL), &hits
}

func serveRates(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

const usdBody = `{"result":"success","rates":{"RUB":92.5,"CNY":7.21,"EUR":0.92}}`

func TestRatesCachedWithinWindow(t *testing.T) {
	c, hits := newTestClient(t, serveRates(usdBody))

	first, err := c.Rates(context.Background(), "USD")
	require.NoError(t, err)
	second, err := c.Rates(context.Background(), "USD")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, hits.Load(), "second call must hit the cache")
}

func TestRatesRefetchAfterExpiry(t *testing.T) {
	c, hits := newTestClient(t, serveRates(usdBody))

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Rates(context.Background(), "USD")
	require.NoError(t, err)

	now = now.Add(cacheTTL + time.Second)
	_, err = c.Rates(context.Background(), "USD")
	require.NoError(t, err)

	assert.EqualValues(t, 2, hits.Load(), "expired cache triggers exactly one re-fetch")
}

func TestRatesStaleSnapshotOnRefreshFailure(t *testing.T) {
	var broken atomic.Bool
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		serveRates(usdBody)(w, r)
	})

	now := time.Now()
	c.now = func() time.Time { return now }

	first, err := c.Rates(context.Background(), "USD")
	require.NoError(t, err)

	broken.Store(true)
	now = now.Add(cacheTTL + time.Second)

	second, err := c.Rates(context.Background(), "USD")
	require.NoError(t, err, "stale snapshot must cover a failed refresh")
	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, hits.Load())
}

func TestRatesErrorWithoutSnapshot(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Rates(context.Background(), "USD")
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	c, _ := newTestClient(t, serveRates(usdBody))

	got, err := c.Convert(context.Background(), 10, "USD", "RUB")
	require.NoError(t, err)
	assert.InDelta(t, 925.0, got, 0.001)

	_, err = c.Convert(context.Background(), 10, "USD", "XXX")
	assert.Error(t, err)
}
