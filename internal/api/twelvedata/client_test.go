package twelvedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalLab/models"
)

const timeSeriesBody = `{
  "meta": {"symbol": "EUR/USD", "interval": "1h"},
  "values": [
    {"datetime": "2024-03-01 12:00:00", "open": "1.0830", "high": "1.0850", "low": "1.0820", "close": "1.0845"},
    {"datetime": "2024-03-01 11:00:00", "open": "1.0810", "high": "1.0835", "low": "1.0805", "close": "1.0830", "volume": "1200"},
    {"datetime": "2024-03-01 11:00:00", "open": "9", "high": "9", "low": "9", "close": "9"}
  ],
  "status": "ok"
}`

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{APIKey: "secret", BaseURL: url, RequestsPerSec: 100, MaxRetries: 1})
}

func TestCandles(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		_, _ = w.Write([]byte(timeSeriesBody))
	}))
	defer srv.Close()

	candles, err := newTestClient(srv.URL).Candles(context.Background(), "EUR/USD", "1h", 2)
	require.NoError(t, err)

	assert.Equal(t, "EUR/USD", query["symbol"])
	assert.Equal(t, "1h", query["interval"])
	assert.Equal(t, "52", query["outputsize"])
	assert.Equal(t, "secret", query["apikey"])

	require.Len(t, candles, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), candles[0].Timestamp)
	assert.Equal(t, 1.0830, candles[0].Close)
	assert.Equal(t, 1200.0, candles[0].Volume)
	assert.Equal(t, 1.0845, candles[1].Close)
	assert.Zero(t, candles[1].Volume)
}

func TestCandlesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 400, "message": "symbol not found", "status": "error"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Candles(context.Background(), "NOPE", "1h", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not found")
}

func TestCandlesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"values": [], "status": "ok"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Candles(context.Background(), "AAPL", "1day", 5)
	assert.True(t, errors.Is(err, models.ErrNoCandles))
}

func TestParseDatetime(t *testing.T) {
	ts, err := parseDatetime("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ts)

	_, err = parseDatetime("yesterday")
	assert.Error(t, err)
}
