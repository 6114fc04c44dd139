package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chainfolio/backend/internal/db"
	"github.com/chainfolio/backend/internal/models"
)

// PriceStore persists historical daily USD closes across sessions. Closes
// are immutable facts, so the store only ever grows. Current prices and FX
// rates are session-scoped and never persisted.
type PriceStore struct {
	db *db.DB
}

// NewPriceStore creates a durable price store on the given connection.
func NewPriceStore(database *db.DB) *PriceStore {
	return &PriceStore{db: database}
}

// Migrate creates the asset_prices table if needed.
func (s *PriceStore) Migrate() error {
	return s.db.AutoMigrate(&models.AssetPrice{})
}

// GetDaily returns the stored close for (symbol, currency, day), or nil if
// none is stored.
func (s *PriceStore) GetDaily(ctx context.Context, symbol, currency string, date time.Time) (*models.AssetPrice, error) {
	u := date.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	p := &models.AssetPrice{}
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND currency = ? AND date = ?", symbol, currency, day).
		Order("created_at DESC").
		First(p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stored price: %w", err)
	}
	return p, nil
}

// Save stores a daily close. Conflicting inserts for the same key keep the
// latest value.
func (s *PriceStore) Save(ctx context.Context, price *models.AssetPrice) error {
	if err := price.Validate(); err != nil {
		return err
	}
	u := price.Date.UTC()
	price.Date = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "currency"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "source"}),
	}).Create(price).Error
	if err != nil {
		return fmt.Errorf("failed to store price: %w", err)
	}
	return nil
}
