package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chainfolio/backend/internal/chain"
	"github.com/chainfolio/backend/internal/models"
	"github.com/chainfolio/backend/internal/notify"
)

type txCacheKey struct {
	address string
	chain   models.Chain
	year    int
}

// TransactionServiceImpl fetches transaction logs from the chain sources and
// caches each (address, chain, year) set for the life of the process.
type TransactionServiceImpl struct {
	sources  map[models.Chain]chain.Source
	notifier notify.Notifier
	log      *zap.Logger

	mu    sync.RWMutex
	cache map[txCacheKey][]models.Transaction
}

func NewTransactionService(sources map[models.Chain]chain.Source, notifier notify.Notifier, log *zap.Logger) *TransactionServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &TransactionServiceImpl{
		sources:  sources,
		notifier: notifier,
		log:      log,
		cache:    make(map[txCacheKey][]models.Transaction),
	}
}

// FetchAll merges the transaction logs of all wallets for the year. Failures
// degrade instead of aborting: each failing wallet is reported through the
// notifier, and the merged result carries whatever the healthy wallets
// returned. The error is non-nil only when nothing could be fetched at all.
func (s *TransactionServiceImpl) FetchAll(ctx context.Context, wallets []WalletRef, year int) ([]models.Transaction, error) {
	var merged []models.Transaction
	var failures []error
	succeeded := 0

	for _, wallet := range wallets {
		txs, err := s.fetch(ctx, wallet, year)
		if err != nil {
			failures = append(failures, err)
			s.log.Warn("failed to fetch wallet transactions",
				zap.String("address", wallet.Address),
				zap.String("chain", string(wallet.Chain)),
				zap.Error(err))
			notify.Error(s.notifier, fmt.Sprintf("could not load transactions for %s (%s)", chain.Shorten(wallet.Address), wallet.Chain))
			continue
		}
		succeeded++
		merged = append(merged, txs...)
	}

	if succeeded == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("failed to fetch transactions for all wallets: %w", failures[0])
	}
	return merged, nil
}

// fetch serves one wallet-year from the session cache, or from its chain
// source on a miss.
func (s *TransactionServiceImpl) fetch(ctx context.Context, wallet WalletRef, year int) ([]models.Transaction, error) {
	key := txCacheKey{address: strings.ToLower(wallet.Address), chain: wallet.Chain, year: year}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	source, ok := s.sources[wallet.Chain]
	if !ok {
		return nil, fmt.Errorf("no source for chain %q", wallet.Chain)
	}

	txs, err := source.FetchTransactions(ctx, wallet.Address, year)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = txs
	s.mu.Unlock()

	s.log.Debug("fetched wallet transactions",
		zap.String("address", chain.Shorten(wallet.Address)),
		zap.String("chain", string(wallet.Chain)),
		zap.Int("year", year),
		zap.Int("count", len(txs)))
	return txs, nil
}
