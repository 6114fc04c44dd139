package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one line of the current-holdings view: a non-dust balance of a
// supported asset priced in the active currency. A nil Price means the price
// is unknown; the holding is still listed, with a zero Value.
type Holding struct {
	Asset   string           `json:"asset"`
	Balance decimal.Decimal  `json:"balance"`
	Price   *decimal.Decimal `json:"price"`
	Value   decimal.Decimal  `json:"value"`
}

// PortfolioSnapshot is the fully computed valuation for one aggregation
// request. Snapshots are ephemeral: every filter change produces a fresh one
// that replaces whatever the caller held before.
type PortfolioSnapshot struct {
	Value    decimal.Decimal `json:"value"`
	Holdings []Holding       `json:"holdings"`
	AsOf     *time.Time      `json:"as_of"`
}

// MonthlyPoint is one bucket of the monthly portfolio value series.
type MonthlyPoint struct {
	Month string          `json:"month"` // YYYY-MM
	Value decimal.Decimal `json:"value"`
}

// PortfolioStats is the aggregated output of one valuation pass.
type PortfolioStats struct {
	Snapshot       PortfolioSnapshot `json:"snapshot"`
	MonthChangePct decimal.Decimal   `json:"month_change_pct"`
	DayChangePct   decimal.Decimal   `json:"day_change_pct"`
	MonthlySeries  []MonthlyPoint    `json:"monthly_series"`
	YearGain       decimal.Decimal   `json:"year_gain"`
	Invested       decimal.Decimal   `json:"invested"`
	CashedOut      decimal.Decimal   `json:"cashed_out"`
	Activity       int               `json:"activity"`
	Currency       string            `json:"currency"`
	Year           int               `json:"year"`
}

// TransactionPage is one page of the filtered transaction list.
type TransactionPage struct {
	Items      []Transaction `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	TotalCount int           `json:"total_count"`
}
