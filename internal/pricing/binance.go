package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/chainfolio/backend/internal/models"
)

// BinancePriceProvider fetches ETH/SOL prices from the Binance public API.
// Historical prices are daily kline closes against USDT, which the rest of
// the pipeline treats as USD.
type BinancePriceProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewBinancePriceProvider creates a Binance-backed price provider.
func NewBinancePriceProvider(baseURL string) *BinancePriceProvider {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinancePriceProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func mapSymbolToBinancePair(symbol string) string {
	switch strings.ToUpper(symbol) {
	case models.AssetETH:
		return "ETHUSDT"
	case models.AssetSOL:
		return "SOLUSDT"
	default:
		return ""
	}
}

// GetHistoricalDaily returns the daily close for the UTC day containing date.
func (p *BinancePriceProvider) GetHistoricalDaily(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error) {
	pair := mapSymbolToBinancePair(symbol)
	if pair == "" {
		return decimal.Zero, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	u := date.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	startTime := day.UnixMilli()
	endTime := day.Add(24 * time.Hour).UnixMilli()

	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&startTime=%d&endTime=%d&limit=1",
		p.baseURL, pair, startTime, endTime)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("binance status %d", resp.StatusCode)
	}

	// Each kline is [openTime, open, high, low, close, ...]; numeric fields
	// come back as strings.
	var klines [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return decimal.Zero, err
	}
	if len(klines) == 0 || len(klines[0]) < 5 {
		return decimal.Zero, fmt.Errorf("no kline for %s on %s", pair, day.Format("2006-01-02"))
	}

	var closeStr string
	if err := json.Unmarshal(klines[0][4], &closeStr); err != nil {
		return decimal.Zero, fmt.Errorf("malformed kline close: %w", err)
	}
	price, err := decimal.NewFromString(closeStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed kline close %q: %w", closeStr, err)
	}
	return price, nil
}

// GetLatest returns the current spot price.
func (p *BinancePriceProvider) GetLatest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	pair := mapSymbolToBinancePair(symbol)
	if pair == "" {
		return decimal.Zero, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", p.baseURL, pair)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("binance status %d", resp.StatusCode)
	}

	var payload struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, err
	}
	if payload.Price.IsZero() {
		return decimal.Zero, fmt.Errorf("no spot price for %s", pair)
	}
	return payload.Price, nil
}
