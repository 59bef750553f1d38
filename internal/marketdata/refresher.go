package marketdata

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/logger"
	"fundflow/internal/models"
)

// Refresher updates live price snapshots for every underlying the system
// still has exposure to: assets behind an open option lot or a non-empty
// holding. The scheduler runs it during market hours.
type Refresher struct {
	db    *gorm.DB
	cache *Cache
}

// NewRefresher creates a Refresher reading quotes through the cache.
func NewRefresher(db *gorm.DB, cache *Cache) *Refresher {
	return &Refresher{db: db, cache: cache}
}

// RefreshAll updates the live price of every asset with open exposure. A
// failed quote is logged and skipped; the refresh continues with the rest.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	assets, err := r.assetsWithExposure()
	if err != nil {
		return err
	}

	refreshed := 0
	for i := range assets {
		asset := &assets[i]
		symbol := asset.QuoteSymbol
		if symbol == "" {
			symbol = asset.Name
		}

		quote, err := r.cache.Quote(ctx, symbol)
		if err != nil {
			logger.Get().Warnw("price refresh failed",
				"asset", asset.Name,
				"error", err,
			)
			continue
		}

		now := time.Now().UTC()
		if err := r.db.Model(asset).Updates(map[string]interface{}{
			"live_price":            quote.Price,
			"live_price_updated_at": now,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		refreshed++
	}

	logger.Get().Infow("refreshed live prices",
		"assets", len(assets),
		"refreshed", refreshed,
	)

	return r.snapshotOptionPrices(ctx)
}

// snapshotOptionPrices records contract premiums on options with active lots.
// Contract quotes are keyed by the option's normalized ticker; most feeds
// cannot serve them, so failures are silent skips.
func (r *Refresher) snapshotOptionPrices(ctx context.Context) error {
	var options []models.Option
	err := r.db.
		Where("id IN (?)", r.db.Model(&models.Position{}).
			Select("positions.option_id").
			Where("positions.active = ?", true)).
		Find(&options).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range options {
		option := &options[i]
		quote, err := r.cache.Quote(ctx, option.Ticker)
		if err != nil {
			continue
		}
		if err := r.db.Model(option).Updates(map[string]interface{}{
			"price":               quote.Price,
			"price_snapshot_date": time.Now().UTC(),
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

// assetsWithExposure returns assets behind an active option lot or a held
// equity position.
func (r *Refresher) assetsWithExposure() ([]models.UnderlyingAsset, error) {
	var assets []models.UnderlyingAsset
	err := r.db.
		Where("id IN (?)", r.db.Model(&models.Option{}).
			Select("options.underlying_asset_id").
			Joins("JOIN positions ON positions.option_id = options.id").
			Where("positions.active = ?", true)).
		Or("id IN (?)", r.db.Model(&models.Holding{}).
			Select("holdings.asset_id").
			Where("holdings.quantity > 0")).
		Find(&assets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assets, nil
}
