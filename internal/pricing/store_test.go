package pricing

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainfolio/backend/internal/db"
	"github.com/chainfolio/backend/internal/models"
)

func setupStore(t *testing.T) *PriceStore {
	t.Helper()
	// Named shared-cache DSN: every pooled connection sees the same
	// in-memory database, isolated per test.
	name := strings.ReplaceAll(t.Name(), "/", "_")
	database, err := db.Connect(fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewPriceStore(database)
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func TestPriceStore_SaveAndGetDaily(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	date := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)

	err := store.Save(ctx, &models.AssetPrice{
		Symbol:   "ETH",
		Currency: "USD",
		Price:    decimal.RequireFromString("2268.91"),
		Date:     date,
		Source:   "binance",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Any time inside the same UTC day hits the stored close.
	got, err := store.GetDaily(ctx, "ETH", "USD", time.Date(2024, 1, 5, 2, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetDaily: %v", err)
	}
	if got == nil {
		t.Fatal("expected a stored price")
	}
	if !got.Price.Equal(decimal.RequireFromString("2268.91")) {
		t.Errorf("price = %s, want 2268.91", got.Price)
	}
}

func TestPriceStore_MissingReturnsNil(t *testing.T) {
	store := setupStore(t)

	got, err := store.GetDaily(context.Background(), "SOL", "USD", time.Now())
	if err != nil {
		t.Fatalf("GetDaily: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for a missing close", got)
	}
}

func TestPriceStore_ConflictKeepsLatest(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	for _, price := range []string{"2200", "2268.91"} {
		err := store.Save(ctx, &models.AssetPrice{
			Symbol:   "ETH",
			Currency: "USD",
			Price:    decimal.RequireFromString(price),
			Date:     date,
			Source:   "binance",
		})
		if err != nil {
			t.Fatalf("Save(%s): %v", price, err)
		}
	}

	got, err := store.GetDaily(ctx, "ETH", "USD", date)
	if err != nil {
		t.Fatalf("GetDaily: %v", err)
	}
	if got == nil || !got.Price.Equal(decimal.RequireFromString("2268.91")) {
		t.Errorf("price = %v, want the latest write 2268.91", got)
	}
}

func TestPriceStore_RejectsInvalid(t *testing.T) {
	store := setupStore(t)

	err := store.Save(context.Background(), &models.AssetPrice{
		Symbol:   "ETH",
		Currency: "USD",
		Price:    decimal.Zero,
		Date:     time.Now(),
		Source:   "binance",
	})
	if err == nil {
		t.Fatal("expected a validation error for a zero price")
	}
}

func TestResolver_StoreReadThrough(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	prices := &countingPriceProvider{historical: map[string]decimal.Decimal{
		"ETH/2024-01-05": decimal.NewFromInt(2268),
	}}
	resolver := NewResolver(prices, &countingFXProvider{}, store, NewPriceCache(), NewFXCache(), zap.NewNop())

	// First lookup goes to the network and populates the store.
	price := resolver.GetHistoricalPrice(ctx, "ETH", date, "USD")
	if price == nil || !price.Equal(decimal.NewFromInt(2268)) {
		t.Fatalf("price = %v, want 2268", price)
	}
	if prices.historicalCalls != 1 {
		t.Fatalf("provider called %d times, want 1", prices.historicalCalls)
	}

	// A fresh session (cold cache) is served from the store, not the network.
	resolver = NewResolver(prices, &countingFXProvider{}, store, NewPriceCache(), NewFXCache(), zap.NewNop())
	price = resolver.GetHistoricalPrice(ctx, "ETH", date, "USD")
	if price == nil || !price.Equal(decimal.NewFromInt(2268)) {
		t.Fatalf("price = %v, want 2268 from the store", price)
	}
	if prices.historicalCalls != 1 {
		t.Errorf("provider called %d times, want 1 (store must serve the repeat)", prices.historicalCalls)
	}
}
