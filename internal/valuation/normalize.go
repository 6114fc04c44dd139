package valuation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/chainfolio/backend/internal/models"
	"github.com/chainfolio/backend/internal/pricing"
)

// dustThreshold is the minimum local value a transaction must reach to
// survive small-transaction filtering. Values exactly at the threshold are
// kept.
var dustThreshold = decimal.NewFromInt(1)

// Options controls how a raw transaction log is prepared for display.
// Year 0 disables year filtering.
type Options struct {
	Year        int
	Currency    string
	HideSmallTx bool
}

// Normalizer attaches display-currency values to transactions and applies
// the small-transaction filter.
type Normalizer struct {
	resolver *pricing.Resolver
}

func NewNormalizer(resolver *pricing.Resolver) *Normalizer {
	return &Normalizer{resolver: resolver}
}

// Normalize restricts the log to the requested year, computes the local
// value of each transaction at its historical date and, when
// opts.HideSmallTx is set, drops transactions whose value is unknown or
// below the dust threshold. The second return is the in-year count before
// the dust filter. The adapters already fetch per year; the check here
// guards against logs assembled from other sources.
func (n *Normalizer) Normalize(ctx context.Context, txs []models.Transaction, opts Options) ([]models.Transaction, int) {
	currency := opts.Currency
	if currency == "" {
		currency = models.CurrencyUSD
	}

	total := 0
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if opts.Year != 0 && tx.Year() != opts.Year {
			continue
		}
		total++
		tx.LocalValue = n.localValue(ctx, tx, currency)
		if opts.HideSmallTx && isDust(tx.LocalValue) {
			continue
		}
		out = append(out, tx)
	}
	return out, total
}

// localValue prices one transaction in the display currency. Unknown prices
// propagate as nil rather than a misleading zero.
func (n *Normalizer) localValue(ctx context.Context, tx models.Transaction, currency string) *decimal.Decimal {
	price := n.resolver.GetHistoricalPrice(ctx, tx.Asset, tx.Timestamp, currency)
	if price == nil {
		return nil
	}
	value := tx.Amount.Mul(*price)
	return &value
}

func isDust(value *decimal.Decimal) bool {
	return value == nil || value.LessThan(dustThreshold)
}
