package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainfolio/backend/internal/models"
	"github.com/chainfolio/backend/internal/notify"
	"github.com/chainfolio/backend/internal/valuation"
)

const defaultPageSize = 10

// PortfolioServiceImpl orchestrates fetch, normalization, and aggregation
// into the stats and table surfaces.
type PortfolioServiceImpl struct {
	txService  TransactionService
	normalizer *valuation.Normalizer
	aggregator *valuation.Aggregator
	ownWallets map[string]bool
	notifier   notify.Notifier
	log        *zap.Logger

	// requests orders overlapping GetStats calls; only the newest one may
	// publish its result as the latest snapshot.
	requests atomic.Uint64
	mu       sync.RWMutex
	latest   *models.PortfolioStats

	now func() time.Time
}

// NewPortfolioService creates the portfolio service. ownWallets lists the
// user's own addresses; transfers between them are excluded from the
// invested and cashed-out totals.
func NewPortfolioService(txService TransactionService, normalizer *valuation.Normalizer, aggregator *valuation.Aggregator, ownWallets []string, notifier notify.Notifier, log *zap.Logger) *PortfolioServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	own := make(map[string]bool, len(ownWallets))
	for _, addr := range ownWallets {
		own[strings.ToLower(addr)] = true
	}
	return &PortfolioServiceImpl{
		txService:  txService,
		normalizer: normalizer,
		aggregator: aggregator,
		ownWallets: own,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

// GetStats computes the full portfolio statistics for the request. Holdings
// and the monthly series follow the filtered set the user is looking at;
// percentage changes and the year gain replay the raw log, so that dust and
// year filters never bias the baselines.
func (s *PortfolioServiceImpl) GetStats(ctx context.Context, req StatsRequest) (*models.PortfolioStats, error) {
	token := s.requests.Add(1)

	currency := req.Currency
	if currency == "" {
		currency = models.CurrencyUSD
	}

	raw, err := s.txService.FetchAll(ctx, req.Wallets, req.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio stats: %w", err)
	}

	normalized, _ := s.normalizer.Normalize(ctx, raw, valuation.Options{
		Year:        req.Year,
		Currency:    currency,
		HideSmallTx: req.HideSmallTx,
	})

	snapshot, err := s.aggregator.CurrentHoldings(ctx, normalized, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio stats: %w", err)
	}
	asOf := s.now().UTC()
	snapshot.AsOf = &asOf

	monthPct, dayPct := s.aggregator.Changes(ctx, raw, snapshot.Value, currency)
	series := s.aggregator.MonthlySeries(ctx, normalized, req.Year, currency)
	yearGain := s.aggregator.YearGain(ctx, raw, snapshot.Value, req.Year, currency)
	invested, cashedOut := s.flows(normalized)

	stats := &models.PortfolioStats{
		Snapshot:       snapshot,
		MonthChangePct: monthPct,
		DayChangePct:   dayPct,
		MonthlySeries:  series,
		YearGain:       yearGain,
		Invested:       invested,
		CashedOut:      cashedOut,
		Activity:       len(normalized),
		Currency:       currency,
		Year:           req.Year,
	}

	s.publish(token, stats)
	notify.Success(s.notifier, "portfolio refreshed")
	return stats, nil
}

// publish records stats as the latest snapshot unless a newer request has
// started since; a stale aggregation finishes quietly without clobbering a
// fresher one.
func (s *PortfolioServiceImpl) publish(token uint64, stats *models.PortfolioStats) {
	if token != s.requests.Load() {
		s.log.Debug("dropping stale portfolio stats", zap.Uint64("token", token))
		return
	}
	s.mu.Lock()
	s.latest = stats
	s.mu.Unlock()
}

// LatestStats returns the most recently published stats, or nil before the
// first completed refresh.
func (s *PortfolioServiceImpl) LatestStats() *models.PortfolioStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// flows sums the local values of inflows and outflows whose counterparty is
// external. With no own wallets configured every counterparty counts as
// external. Transactions without a known local value contribute nothing.
func (s *PortfolioServiceImpl) flows(txs []models.Transaction) (invested, cashedOut decimal.Decimal) {
	for _, tx := range txs {
		if tx.LocalValue == nil || s.ownWallets[strings.ToLower(tx.Counterparty)] {
			continue
		}
		switch tx.Direction {
		case models.DirectionIn:
			invested = invested.Add(*tx.LocalValue)
		case models.DirectionOut:
			cashedOut = cashedOut.Add(*tx.LocalValue)
		}
	}
	return invested, cashedOut
}

// ListTransactions returns one page of the normalized transaction table,
// newest first.
func (s *PortfolioServiceImpl) ListTransactions(ctx context.Context, req ListRequest) (*models.TransactionPage, error) {
	currency := req.Currency
	if currency == "" {
		currency = models.CurrencyUSD
	}

	raw, err := s.txService.FetchAll(ctx, req.Wallets, req.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	normalized, _ := s.normalizer.Normalize(ctx, raw, valuation.Options{
		Year:        req.Year,
		Currency:    currency,
		HideSmallTx: req.HideSmallTx,
	})
	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Timestamp.After(normalized[j].Timestamp)
	})

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	totalPages := (len(normalized) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(normalized) {
		start = len(normalized)
	}
	if end > len(normalized) {
		end = len(normalized)
	}

	return &models.TransactionPage{
		Items:      normalized[start:end],
		Page:       page,
		TotalPages: totalPages,
		TotalCount: len(normalized),
	}, nil
}
