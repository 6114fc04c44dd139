// Package pricing resolves asset prices and FX rates for the valuation
// pipeline. Providers fetch USD prices from external sources; the Resolver
// layers currency conversion, the stablecoin shortcut and session caching on
// top and collapses every failure into an unknown (nil) price.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceProvider supplies USD prices for supported crypto assets.
type PriceProvider interface {
	// GetHistoricalDaily returns the USD close price for the UTC calendar
	// day containing date.
	GetHistoricalDaily(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error)
	// GetLatest returns the current USD spot price.
	GetLatest(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// FXProvider supplies the latest conversion rate between two fiat currencies.
type FXProvider interface {
	GetLatestRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}
