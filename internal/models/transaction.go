package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainfolio/backend/internal/errors"
)

// Chain identifies the chain family a transaction was ingested from.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
)

// Direction classifies a transaction relative to the queried address.
type Direction string

const (
	DirectionIn    Direction = "in"
	DirectionOut   Direction = "out"
	DirectionOther Direction = "other"
)

// Supported asset symbols. Anything else is ignored by balance math.
const (
	AssetETH  = "ETH"
	AssetSOL  = "SOL"
	AssetUSDC = "USDC"
	AssetUSDT = "USDT"
)

// SupportedAssets lists every asset symbol the valuation engine tracks.
var SupportedAssets = []string{AssetETH, AssetSOL, AssetUSDC, AssetUSDT}

// IsSupportedAsset reports whether the symbol participates in balance replay.
func IsSupportedAsset(symbol string) bool {
	switch symbol {
	case AssetETH, AssetSOL, AssetUSDC, AssetUSDT:
		return true
	}
	return false
}

// IsStablecoin reports whether the asset is treated as pegged 1:1 to USD.
// Stablecoins never incur a historical price lookup, only an FX conversion.
func IsStablecoin(symbol string) bool {
	return symbol == AssetUSDC || symbol == AssetUSDT
}

// Supported fiat currencies.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// Transaction is the normalized, chain-agnostic transaction shape produced
// at the ingestion boundary. It is immutable once normalized; LocalValue is
// the only field the normalizer fills in afterwards.
type Transaction struct {
	Hash      string    `json:"hash"`
	Chain     Chain     `json:"chain"`
	Direction Direction `json:"direction"`
	Timestamp time.Time `json:"timestamp"`

	// Asset and Amount are assigned by the chain adapter. Amount carries the
	// magnitude only; the sign is implied by Direction. A transaction whose
	// raw amount could not be parsed keeps Amount zero but is never dropped.
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`

	// Counterparty is the other side of the transfer: full address for
	// invested/cashed-out classification, shortened form for display.
	Counterparty      string `json:"counterparty"`
	CounterpartyShort string `json:"counterparty_short"`

	// LocalValue is the fiat value in the active reporting currency,
	// computed by the normalizer. Nil means the value is unknown, which is
	// distinct from zero.
	LocalValue *decimal.Decimal `json:"local_value"`
}

// Validate checks the invariants the ingestion boundary must uphold.
func (t *Transaction) Validate() error {
	if t.Hash == "" {
		return &errors.ErrValidation{Field: "hash", Message: "hash is required"}
	}
	if t.Timestamp.IsZero() {
		return &errors.ErrValidation{Field: "timestamp", Message: "timestamp is required"}
	}
	switch t.Direction {
	case DirectionIn, DirectionOut, DirectionOther:
	default:
		return &errors.ErrValidation{Field: "direction", Message: "direction must be one of in, out, other"}
	}
	if t.Amount.IsNegative() {
		return &errors.ErrValidation{Field: "amount", Message: "amount must be non-negative"}
	}
	switch t.Chain {
	case ChainEthereum, ChainSolana:
	default:
		return &errors.ErrValidation{Field: "chain", Message: "chain must be one of ethereum, solana"}
	}
	return nil
}

// Year returns the UTC calendar year the transaction belongs to.
func (t *Transaction) Year() int {
	return t.Timestamp.UTC().Year()
}

// Day returns the UTC calendar day containing the transaction, which is the
// granularity historical prices are resolved at.
func (t *Transaction) Day() time.Time {
	u := t.Timestamp.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
