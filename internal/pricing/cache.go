package pricing

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CurrentDay is the date component of cache keys for spot prices.
const CurrentDay = "current"

// PriceKey builds the cache key for a resolved price. The key always carries
// asset, day granularity and currency; entries are never shared across
// currencies.
func PriceKey(symbol, day, currency string) string {
	return fmt.Sprintf("%s-%s-%s", symbol, day, currency)
}

// FXKey builds the cache key for a latest FX rate.
func FXKey(from, to string) string {
	return fmt.Sprintf("latest-%s-%s", from, to)
}

// PriceCache is an append-only map of resolved prices for one reporting
// session. Entries are immutable facts and are never invalidated; concurrent
// populations of the same key are wasteful but harmless since every writer
// computes the same value.
type PriceCache struct {
	mu      sync.RWMutex
	entries map[string]decimal.Decimal
}

// NewPriceCache creates an empty session price cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{entries: make(map[string]decimal.Decimal)}
}

// Get returns the cached price for key, if present.
func (c *PriceCache) Get(key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a resolved price.
func (c *PriceCache) Put(key string, price decimal.Decimal) {
	c.mu.Lock()
	c.entries[key] = price
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// FXCache caches latest conversion rates for one reporting session. Only
// latest rates are kept; historical stablecoin conversions reuse them.
type FXCache struct {
	mu      sync.RWMutex
	entries map[string]decimal.Decimal
}

// NewFXCache creates an empty session FX cache.
func NewFXCache() *FXCache {
	return &FXCache{entries: make(map[string]decimal.Decimal)}
}

// Get returns the cached rate for key, if present.
func (c *FXCache) Get(key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a fetched rate.
func (c *FXCache) Put(key string, rate decimal.Decimal) {
	c.mu.Lock()
	c.entries[key] = rate
	c.mu.Unlock()
}

// DayKey formats a time as the cache day component.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
