// Package services wires chain sources, pricing, and valuation into the
// operations the HTTP layer exposes.
package services

import (
	"context"

	"github.com/chainfolio/backend/internal/models"
)

// WalletRef identifies a wallet on a chain family.
type WalletRef struct {
	Address string
	Chain   models.Chain
}

// StatsRequest asks for the portfolio figures of a wallet set for one year.
type StatsRequest struct {
	Wallets     []WalletRef
	Year        int
	Currency    string
	HideSmallTx bool
}

// ListRequest asks for one page of the normalized transaction table.
type ListRequest struct {
	Wallets     []WalletRef
	Year        int
	Currency    string
	HideSmallTx bool
	Page        int
	PageSize    int
}

// TransactionService fetches and caches per-wallet transaction logs.
type TransactionService interface {
	// FetchAll merges the logs of all wallets for the year. A failing
	// wallet is reported through the notifier and skipped; the error is
	// non-nil only when every wallet failed.
	FetchAll(ctx context.Context, wallets []WalletRef, year int) ([]models.Transaction, error)
}

// PortfolioService computes portfolio statistics and transaction pages.
type PortfolioService interface {
	GetStats(ctx context.Context, req StatsRequest) (*models.PortfolioStats, error)
	ListTransactions(ctx context.Context, req ListRequest) (*models.TransactionPage, error)
}
