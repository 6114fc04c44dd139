package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainfolio/backend/internal/models"
	"github.com/chainfolio/backend/internal/pricing"
	"github.com/chainfolio/backend/internal/valuation"
)

type fakeSource struct {
	chainTag models.Chain
	txs      []models.Transaction
	err      error
	calls    int
}

func (f *fakeSource) FetchTransactions(_ context.Context, _ string, _ int) ([]models.Transaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.txs, nil
}

func (f *fakeSource) Chain() models.Chain {
	return f.chainTag
}

type fakeNotifier struct {
	mu       sync.Mutex
	errors   []string
	messages []string
}

func (n *fakeNotifier) Success(msg string) { n.record(&n.messages, msg) }
func (n *fakeNotifier) Info(msg string)    { n.record(&n.messages, msg) }
func (n *fakeNotifier) Error(msg string) {
	n.record(&n.errors, msg)
}

func (n *fakeNotifier) record(dst *[]string, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	*dst = append(*dst, msg)
}

type stubPriceProvider struct {
	historical map[string]decimal.Decimal
	latest     map[string]decimal.Decimal
}

func (p *stubPriceProvider) GetHistoricalDaily(_ context.Context, symbol string, d time.Time) (decimal.Decimal, error) {
	price, ok := p.historical[symbol+"/"+d.UTC().Format("2006-01-02")]
	if !ok {
		return decimal.Zero, fmt.Errorf("no historical price for %s", symbol)
	}
	return price, nil
}

func (p *stubPriceProvider) GetLatest(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := p.latest[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no latest price for %s", symbol)
	}
	return price, nil
}

type stubFXProvider struct{}

func (stubFXProvider) GetLatestRate(_ context.Context, from, to string) (decimal.Decimal, error) {
	return decimal.Zero, fmt.Errorf("no rate for %s-%s", from, to)
}

func newTestValuation(prices *stubPriceProvider) (*valuation.Normalizer, *valuation.Aggregator) {
	if prices == nil {
		prices = &stubPriceProvider{}
	}
	resolver := pricing.NewResolver(prices, stubFXProvider{}, nil, pricing.NewPriceCache(), pricing.NewFXCache(), zap.NewNop())
	return valuation.NewNormalizer(resolver), valuation.NewAggregator(resolver, zap.NewNop())
}

func stableTx(direction models.Direction, amount, counterparty string, ts time.Time) models.Transaction {
	return models.Transaction{
		Hash:         "0x" + amount + ts.Format("0102150405"),
		Chain:        models.ChainEthereum,
		Direction:    direction,
		Timestamp:    ts,
		Asset:        models.AssetUSDC,
		Amount:       decimal.RequireFromString(amount),
		Counterparty: counterparty,
	}
}
