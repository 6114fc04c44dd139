package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrankfurter_GetLatestRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		assert.Equal(t, "EUR", r.URL.Query().Get("to"))
		fmt.Fprint(w, `{"amount":1.0,"base":"USD","date":"2024-06-14","rates":{"EUR":0.9234}}`)
	}))
	defer server.Close()

	provider := NewFrankfurterFXProvider(server.URL)
	rate, err := provider.GetLatestRate(context.Background(), "usd", "eur")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.9234")), "rate %s", rate)
}

func TestFrankfurter_RateMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"amount":1.0,"base":"USD","date":"2024-06-14","rates":{}}`)
	}))
	defer server.Close()

	provider := NewFrankfurterFXProvider(server.URL)
	_, err := provider.GetLatestRate(context.Background(), "USD", "EUR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate not found")
}

func TestFrankfurter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	provider := NewFrankfurterFXProvider(server.URL)
	_, err := provider.GetLatestRate(context.Background(), "USD", "EUR")
	require.Error(t, err)
}
