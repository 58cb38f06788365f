package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-key", srv.URL)
}

func TestCurrent(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Moscow", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "ru", r.URL.Query().Get("lang"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"weather":[{"description":"ясно"}],"main":{"temp":21.6}}`))
	})

	r, err := c.Current(context.Background(), "Moscow", "metric")
	require.NoError(t, err)
	assert.Equal(t, "Moscow: ясно, 22°", r.String())
}

func TestCurrentLineDegradesOnError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"city not found"}`))
	})

	line := c.CurrentLine(context.Background(), "Atlantis", "metric")
	assert.Equal(t, "Atlantis: сейчас недоступно", line)
}

func TestUnconfiguredClient(t *testing.T) {
	c := New("", "")
	assert.False(t, c.Configured())

	_, err := c.Current(context.Background(), "Moscow", "metric")
	assert.Error(t, err)
}
