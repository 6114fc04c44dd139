// Package chain ingests raw transactions from blockchain explorers and
// normalizes them into the shared transaction shape. All chain-specific
// quirks (units, contract addresses, response formats) stay behind the
// Source boundary; downstream code only ever sees models.Transaction.
package chain

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chainfolio/backend/internal/models"
)

// Source fetches the transactions of one chain family for an address and
// reporting year.
type Source interface {
	FetchTransactions(ctx context.Context, address string, year int) ([]models.Transaction, error)
	Chain() models.Chain
}

/// Shorten abbreviates an address for display: first 6 and last 4 characters.
func Shorten(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

var amountPattern = regexp.MustCompile(`-?[0-9]*\.?[0-9]+([eE][+-]?[0-9]+)?`)

// ParseAmount parses a raw amount string into a decimal magnitude. It
// tolerates thousands separators and scientific notation. The boolean is
// false when nothing numeric could be extracted; callers keep the
// transaction and treat its magnitude as zero.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := amountPattern.FindString(cleaned)
	if match == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Abs(), true
}
