package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinance_GetHistoricalDaily(t *testing.T) {
	date := time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC)
	dayStart := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/klines", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ETHUSDT", q.Get("symbol"))
		assert.Equal(t, "1d", q.Get("interval"))
		assert.Equal(t, fmt.Sprint(dayStart.UnixMilli()), q.Get("startTime"))
		assert.Equal(t, "1", q.Get("limit"))
		// Kline numeric fields are strings; close is the fifth element.
		fmt.Fprint(w, `[[1704412800000,"2230.10","2280.00","2210.50","2268.91","12345.6",1704499199999,"0","0","0","0","0"]]`)
	}))
	defer server.Close()

	provider := NewBinancePriceProvider(server.URL)
	price, err := provider.GetHistoricalDaily(context.Background(), "ETH", date)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("2268.91")), "price %s", price)
}

func TestBinance_GetHistoricalDaily_NoKline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	provider := NewBinancePriceProvider(server.URL)
	_, err := provider.GetHistoricalDaily(context.Background(), "SOL", time.Now())
	require.Error(t, err)
}

func TestBinance_GetHistoricalDaily_UnsupportedSymbol(t *testing.T) {
	provider := NewBinancePriceProvider("http://unused")
	_, err := provider.GetHistoricalDaily(context.Background(), "USDC", time.Now())
	require.Error(t, err, "stablecoins have no Binance pair and never reach the network")
}

func TestBinance_GetLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "SOLUSDT", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"symbol":"SOLUSDT","price":"147.23000000"}`)
	}))
	defer server.Close()

	provider := NewBinancePriceProvider(server.URL)
	price, err := provider.GetLatest(context.Background(), "sol")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("147.23")), "price %s", price)
}

func TestBinance_GetLatest_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewBinancePriceProvider(server.URL)
	_, err := provider.GetLatest(context.Background(), "ETH")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
