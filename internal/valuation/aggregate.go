package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chainfolio/backend/internal/models"
	"github.com/chainfolio/backend/internal/pricing"
)

// balanceEpsilon hides holdings whose magnitude is below rounding noise.
var balanceEpsilon = decimal.RequireFromString("0.00001")

const priceFetchConcurrency = 4

// Aggregator computes portfolio-level figures from a transaction log.
type Aggregator struct {
	resolver *pricing.Resolver
	log      *zap.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewAggregator(resolver *pricing.Resolver, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{resolver: resolver, log: log, now: time.Now}
}

// CurrentHoldings replays the full log and prices each balance at the
// current market price. Negative stablecoin balances are clamped to zero
// and dust balances are hidden. Assets with an unknown price are listed
// with a zero value so the holding itself stays visible.
func (a *Aggregator) CurrentHoldings(ctx context.Context, txs []models.Transaction, currency string) (models.PortfolioSnapshot, error) {
	balances := ClampStablecoins(Replay(txs, a.now()))

	assets := make([]string, 0, len(balances))
	for asset, balance := range balances {
		if balance.Abs().LessThan(balanceEpsilon) {
			continue
		}
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	prices := make([]*decimal.Decimal, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(priceFetchConcurrency)
	for i, asset := range assets {
		g.Go(func() error {
			prices[i] = a.resolver.GetCurrentPrice(gctx, asset, currency)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.PortfolioSnapshot{}, fmt.Errorf("failed to fetch current prices: %w", err)
	}

	snapshot := models.PortfolioSnapshot{Holdings: make([]models.Holding, 0, len(assets))}
	for i, asset := range assets {
		holding := models.Holding{
			Asset:   asset,
			Balance: balances[asset],
			Price:   prices[i],
		}
		if prices[i] != nil {
			holding.Value = balances[asset].Mul(*prices[i])
		} else {
			a.log.Warn("no current price for holding", zap.String("asset", asset))
		}
		snapshot.Value = snapshot.Value.Add(holding.Value)
		snapshot.Holdings = append(snapshot.Holdings, holding)
	}
	sort.SliceStable(snapshot.Holdings, func(i, j int) bool {
		return snapshot.Holdings[i].Value.GreaterThan(snapshot.Holdings[j].Value)
	})
	return snapshot, nil
}

// Changes computes percentage changes of the portfolio value against the
// start of the current month and against 24 hours ago. Baselines replay
// the raw (unclamped) log so that period deltas are not distorted by
// clamping artifacts.
func (a *Aggregator) Changes(ctx context.Context, txs []models.Transaction, currentValue decimal.Decimal, currency string) (monthPct, dayPct decimal.Decimal) {
	now := a.now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	dayAgo := now.Add(-24 * time.Hour)

	monthBaseline := a.snapshotValue(ctx, txs, startOfMonth, currency)
	dayBaseline := a.snapshotValue(ctx, txs, dayAgo, currency)

	return PctChange(currentValue, monthBaseline), PctChange(currentValue, dayBaseline)
}

// YearGain is the difference between the current portfolio value and its
// value at the start of the year, in the display currency.
func (a *Aggregator) YearGain(ctx context.Context, txs []models.Transaction, currentValue decimal.Decimal, year int, currency string) decimal.Decimal {
	startOfYear := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return currentValue.Sub(a.snapshotValue(ctx, txs, startOfYear, currency))
}

// snapshotValue prices the balances as of cutoff with that day's historical
// prices. Unknown prices contribute zero.
func (a *Aggregator) snapshotValue(ctx context.Context, txs []models.Transaction, cutoff time.Time, currency string) decimal.Decimal {
	balances := Replay(txs, cutoff)
	total := decimal.Zero
	for asset, balance := range balances {
		if balance.IsZero() {
			continue
		}
		price := a.resolver.GetHistoricalPrice(ctx, asset, cutoff, currency)
		if price == nil {
			continue
		}
		total = total.Add(balance.Mul(*price))
	}
	return total
}

// MonthlySeries values the portfolio at the end of each month of the year
// in a single forward pass over the log. For the in-progress year the last
// bucket is valued as of now with current prices. Values are rounded to two
// decimal places.
func (a *Aggregator) MonthlySeries(ctx context.Context, txs []models.Transaction, year int, currency string) []models.MonthlyPoint {
	now := a.now().UTC()

	lastMonth := time.December
	inProgress := year == now.Year()
	if inProgress {
		lastMonth = now.Month()
	}

	type bucket struct {
		label    string
		cutoff   time.Time
		balances map[string]decimal.Decimal
	}

	cursor := NewCursor(txs)
	buckets := make([]bucket, 0, int(lastMonth))
	for month := time.January; month <= lastMonth; month++ {
		cutoff := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
		if inProgress && month == lastMonth {
			cutoff = now
		}
		buckets = append(buckets, bucket{
			label:    fmt.Sprintf("%d-%02d", year, int(month)),
			cutoff:   cutoff,
			balances: cursor.Advance(cutoff),
		})
	}

	// Fetch every month x asset price up front; the resolver caches make
	// repeats free within the session.
	type priceReq struct {
		bucketIdx int
		asset     string
	}
	var reqs []priceReq
	for i, b := range buckets {
		for asset, balance := range b.balances {
			if balance.IsZero() {
				continue
			}
			reqs = append(reqs, priceReq{bucketIdx: i, asset: asset})
		}
	}

	prices := make([]*decimal.Decimal, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(priceFetchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			b := buckets[req.bucketIdx]
			if inProgress && b.cutoff.Equal(now) {
				prices[i] = a.resolver.GetCurrentPrice(gctx, req.asset, currency)
			} else {
				prices[i] = a.resolver.GetHistoricalPrice(gctx, req.asset, b.cutoff, currency)
			}
			return nil
		})
	}
	_ = g.Wait()

	totals := make([]decimal.Decimal, len(buckets))
	for i, req := range reqs {
		if prices[i] == nil {
			continue
		}
		balance := buckets[req.bucketIdx].balances[req.asset]
		totals[req.bucketIdx] = totals[req.bucketIdx].Add(balance.Mul(*prices[i]))
	}

	series := make([]models.MonthlyPoint, len(buckets))
	for i, b := range buckets {
		series[i] = models.MonthlyPoint{
			Month: b.label,
			Value: totals[i].Round(2),
		}
	}
	return series
}

var hundred = decimal.NewFromInt(100)

// PctChange returns the percentage change from baseline to current. A
// non-positive baseline yields zero: a percentage against nothing is
// meaningless.
func PctChange(current, baseline decimal.Decimal) decimal.Decimal {
	if baseline.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return current.Sub(baseline).Div(baseline).Mul(hundred)
}
