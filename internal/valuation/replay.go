// Package valuation turns normalized transactions into balances, local
// values, and portfolio aggregates.
package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainfolio/backend/internal/models"
)

// Replay folds transactions into per-asset balances as of the cutoff
// (inclusive). Transactions with direction "other" or an unsupported asset
// do not move balances. Balances are allowed to go negative: the event log
// only covers the tracked year, so outflows can exceed observed inflows.
func Replay(txs []models.Transaction, cutoff time.Time) map[string]decimal.Decimal {
	ordered := make([]models.Transaction, len(txs))
	copy(ordered, txs)
	sortByTimestamp(ordered)

	balances := make(map[string]decimal.Decimal)
	for _, tx := range ordered {
		if tx.Timestamp.After(cutoff) {
			break
		}
		apply(balances, tx)
	}
	return balances
}

// Cursor replays a transaction log incrementally across monotonically
// increasing cutoffs. Advancing to cutoff t yields the same balances as a
// full Replay over the log with the same cutoff.
type Cursor struct {
	ordered  []models.Transaction
	next     int
	balances map[string]decimal.Decimal
}

// NewCursor sorts the log once and positions the cursor before the first
// transaction.
func NewCursor(txs []models.Transaction) *Cursor {
	ordered := make([]models.Transaction, len(txs))
	copy(ordered, txs)
	sortByTimestamp(ordered)
	return &Cursor{
		ordered:  ordered,
		balances: make(map[string]decimal.Decimal),
	}
}

// Advance applies every not-yet-applied transaction with timestamp <= cutoff
// and returns a copy of the running balances. Cutoffs must not go backwards.
func (c *Cursor) Advance(cutoff time.Time) map[string]decimal.Decimal {
	for c.next < len(c.ordered) && !c.ordered[c.next].Timestamp.After(cutoff) {
		apply(c.balances, c.ordered[c.next])
		c.next++
	}
	out := make(map[string]decimal.Decimal, len(c.balances))
	for asset, balance := range c.balances {
		out[asset] = balance
	}
	return out
}

func sortByTimestamp(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})
}

func apply(balances map[string]decimal.Decimal, tx models.Transaction) {
	if !models.IsSupportedAsset(tx.Asset) {
		return
	}
	switch tx.Direction {
	case models.DirectionIn:
		balances[tx.Asset] = balances[tx.Asset].Add(tx.Amount)
	case models.DirectionOut:
		balances[tx.Asset] = balances[tx.Asset].Sub(tx.Amount)
	}
}

// ClampStablecoins floors negative stablecoin balances at zero. Used only
// when presenting current holdings: a negative USDC balance is an artifact
// of the partial event log, not a real short position. Historical replay
// keeps the raw values so that period deltas stay consistent.
func ClampStablecoins(balances map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(balances))
	for asset, balance := range balances {
		if models.IsStablecoin(asset) && balance.IsNegative() {
			out[asset] = decimal.Zero
			continue
		}
		out[asset] = balance
	}
	return out
}
