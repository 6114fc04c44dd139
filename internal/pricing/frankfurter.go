package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FrankfurterFXProvider fetches latest fiat conversion rates from the
// Frankfurter API. Only latest rates are exposed; historical FX is a
// non-goal and stablecoin conversions deliberately reuse the latest rate.
type FrankfurterFXProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewFrankfurterFXProvider creates a Frankfurter-backed FX provider.
func NewFrankfurterFXProvider(baseURL string) *FrankfurterFXProvider {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.app"
	}
	return &FrankfurterFXProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetLatestRate retrieves the latest conversion rate from one currency to another.
func (p *FrankfurterFXProvider) GetLatestRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	url := fmt.Sprintf("%s/latest?from=%s&to=%s", p.baseURL, from, to)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("frankfurter status %d", resp.StatusCode)
	}

	var payload struct {
		Base  string                     `json:"base"`
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}

	rate, ok := payload.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate not found for %s to %s", from, to)
	}
	return rate, nil
}
