package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainfolio/backend/internal/errors"
)

// AssetPrice is a historical daily close for an asset in a currency.
// Historical prices are immutable facts, so rows are only ever inserted.
type AssetPrice struct {
	ID        int             `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	Symbol    string          `json:"symbol" gorm:"column:symbol;type:varchar(16);not null;uniqueIndex:idx_asset_prices_key"`
	Currency  string          `json:"currency" gorm:"column:currency;type:varchar(8);not null;uniqueIndex:idx_asset_prices_key"`
	Price     decimal.Decimal `json:"price" gorm:"column:price;type:decimal(30,18);not null"`
	Date      time.Time       `json:"date" gorm:"column:date;type:date;not null;uniqueIndex:idx_asset_prices_key"`
	Source    string          `json:"source" gorm:"column:source;type:varchar(50);not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the AssetPrice model.
func (AssetPrice) TableName() string {
	return "asset_prices"
}

// Validate validates the price data before it is cached.
func (p *AssetPrice) Validate() error {
	if p.Symbol == "" {
		return &errors.ErrValidation{Field: "symbol", Message: "symbol is required"}
	}
	if p.Currency == "" {
		return &errors.ErrValidation{Field: "currency", Message: "currency is required"}
	}
	if p.Price.IsZero() || p.Price.IsNegative() {
		return &errors.ErrValidation{Field: "price", Message: "price must be positive"}
	}
	if p.Date.IsZero() {
		return &errors.ErrValidation{Field: "date", Message: "date is required"}
	}
	return nil
}

// FXRate is a conversion rate between two fiat currencies. Only the latest
// rate is ever looked up; historical FX is out of scope and stablecoin
// conversions reuse the latest rate as a deliberate approximation.
type FXRate struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	FetchedAt    time.Time       `json:"fetched_at"`
	Source       string          `json:"source"`
}

// Validate validates the FX rate data.
func (fx *FXRate) Validate() error {
	if fx.FromCurrency == "" {
		return &errors.ErrValidation{Field: "from_currency", Message: "from_currency is required"}
	}
	if fx.ToCurrency == "" {
		return &errors.ErrValidation{Field: "to_currency", Message: "to_currency is required"}
	}
	if fx.FromCurrency == fx.ToCurrency {
		return &errors.ErrValidation{Field: "to_currency", Message: "from_currency and to_currency must be different"}
	}
	if fx.Rate.IsZero() || fx.Rate.IsNegative() {
		return &errors.ErrValidation{Field: "rate", Message: "rate must be positive"}
	}
	return nil
}
