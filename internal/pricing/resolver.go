package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainfolio/backend/internal/models"
)

var one = decimal.NewFromInt(1)

// Resolver resolves historical and current asset prices in a target fiat
// currency, and latest FX rates. Lookup failures of any kind surface as nil,
// never as an error: an unknown price must propagate as unknown, not zero.
//
// The caches are owned by the caller and passed in at construction; the
// resolver never invalidates them. The durable store is optional and sits
// between the session cache and the network for historical USD closes.
type Resolver struct {
	prices     PriceProvider
	fx         FXProvider
	store      *PriceStore
	priceCache *PriceCache
	fxCache    *FXCache
	log        *zap.Logger
}

// NewResolver creates a price/FX resolver. store may be nil.
func NewResolver(prices PriceProvider, fx FXProvider, store *PriceStore, priceCache *PriceCache, fxCache *FXCache, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		prices:     prices,
		fx:         fx,
		store:      store,
		priceCache: priceCache,
		fxCache:    fxCache,
		log:        log,
	}
}

// GetHistoricalPrice resolves the unit price of asset in currency for the
// UTC calendar day containing date. Stablecoins skip the historical lookup
// entirely: they are worth 1 USD, converted by the latest FX rate when the
// target currency is not USD.
func (r *Resolver) GetHistoricalPrice(ctx context.Context, asset string, date time.Time, currency string) *decimal.Decimal {
	if !models.IsSupportedAsset(asset) {
		return nil
	}
	if models.IsStablecoin(asset) {
		return r.stablecoinPrice(ctx, currency)
	}

	day := DayKey(date)
	key := PriceKey(asset, day, currency)
	if cached, ok := r.priceCache.Get(key); ok {
		return &cached
	}

	usdPrice := r.historicalUSD(ctx, asset, date)
	if usdPrice == nil {
		return nil
	}

	price := r.convert(ctx, *usdPrice, currency)
	if price == nil {
		return nil
	}
	r.priceCache.Put(key, *price)
	return price
}

// GetCurrentPrice resolves the latest unit price of asset in currency.
func (r *Resolver) GetCurrentPrice(ctx context.Context, asset, currency string) *decimal.Decimal {
	if !models.IsSupportedAsset(asset) {
		return nil
	}
	if models.IsStablecoin(asset) {
		return r.stablecoinPrice(ctx, currency)
	}

	key := PriceKey(asset, CurrentDay, currency)
	if cached, ok := r.priceCache.Get(key); ok {
		return &cached
	}

	usdPrice, err := r.prices.GetLatest(ctx, asset)
	if err != nil {
		r.log.Warn("spot price lookup failed", zap.String("asset", asset), zap.Error(err))
		return nil
	}

	price := r.convert(ctx, usdPrice, currency)
	if price == nil {
		return nil
	}
	r.priceCache.Put(key, *price)
	return price
}

// GetFxRate resolves the latest conversion rate between two fiat currencies.
// Repeated calls within a session return the cached value without a new
// lookup.
func (r *Resolver) GetFxRate(ctx context.Context, from, to string) *decimal.Decimal {
	if from == to {
		v := one
		return &v
	}

	key := FXKey(from, to)
	if cached, ok := r.fxCache.Get(key); ok {
		return &cached
	}

	rate, err := r.fx.GetLatestRate(ctx, from, to)
	if err != nil {
		r.log.Warn("fx rate lookup failed",
			zap.String("from", from), zap.String("to", to), zap.Error(err))
		return nil
	}
	r.fxCache.Put(key, rate)
	return &rate
}

// stablecoinPrice returns the unit value of a USD-pegged asset in currency.
func (r *Resolver) stablecoinPrice(ctx context.Context, currency string) *decimal.Decimal {
	if currency == models.CurrencyUSD {
		v := one
		return &v
	}
	return r.GetFxRate(ctx, models.CurrencyUSD, currency)
}

// historicalUSD fetches the USD close for the day, consulting the durable
// store before the network and populating it write-through afterwards.
func (r *Resolver) historicalUSD(ctx context.Context, asset string, date time.Time) *decimal.Decimal {
	if r.store != nil {
		stored, err := r.store.GetDaily(ctx, asset, models.CurrencyUSD, date)
		if err != nil {
			r.log.Warn("price store read failed", zap.String("asset", asset), zap.Error(err))
		} else if stored != nil {
			return &stored.Price
		}
	}

	price, err := r.prices.GetHistoricalDaily(ctx, asset, date)
	if err != nil {
		r.log.Warn("historical price lookup failed",
			zap.String("asset", asset), zap.String("day", DayKey(date)), zap.Error(err))
		return nil
	}

	if r.store != nil {
		err := r.store.Save(ctx, &models.AssetPrice{
			Symbol:   asset,
			Currency: models.CurrencyUSD,
			Price:    price,
			Date:     date,
			Source:   "binance",
		})
		if err != nil {
			r.log.Warn("price store write failed", zap.String("asset", asset), zap.Error(err))
		}
	}
	return &price
}

// convert maps a USD price into the target currency via the latest FX rate.
func (r *Resolver) convert(ctx context.Context, usd decimal.Decimal, currency string) *decimal.Decimal {
	if currency == models.CurrencyUSD {
		return &usd
	}
	rate := r.GetFxRate(ctx, models.CurrencyUSD, currency)
	if rate == nil {
		return nil
	}
	v := usd.Mul(*rate)
	return &v
}
