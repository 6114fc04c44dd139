package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainfolio/backend/internal/pricing"
)

// fakePriceProvider serves canned USD prices. Historical prices are keyed by
// "SYMBOL/2006-01-02"; anything missing is an error, which the resolver turns
// into a nil price.
type fakePriceProvider struct {
	historical map[string]decimal.Decimal
	latest     map[string]decimal.Decimal
}

func (p *fakePriceProvider) GetHistoricalDaily(_ context.Context, symbol string, date time.Time) (decimal.Decimal, error) {
	key := symbol + "/" + date.UTC().Format("2006-01-02")
	price, ok := p.historical[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("no historical price for %s", key)
	}
	return price, nil
}

func (p *fakePriceProvider) GetLatest(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := p.latest[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no latest price for %s", symbol)
	}
	return price, nil
}

type fakeFXProvider struct {
	rates map[string]decimal.Decimal
}

func (p *fakeFXProvider) GetLatestRate(_ context.Context, from, to string) (decimal.Decimal, error) {
	rate, ok := p.rates[from+"-"+to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s-%s", from, to)
	}
	return rate, nil
}

func newTestResolver(prices *fakePriceProvider, fx *fakeFXProvider) *pricing.Resolver {
	if prices == nil {
		prices = &fakePriceProvider{}
	}
	if fx == nil {
		fx = &fakeFXProvider{}
	}
	return pricing.NewResolver(prices, fx, nil, pricing.NewPriceCache(), pricing.NewFXCache(), zap.NewNop())
}
