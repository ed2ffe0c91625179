// Package aggregate keeps the per-property statistics cache consistent with the
// investments, reviews and visits recorded against each property.
//
// Every write method takes the caller's transaction so that an aggregate update
// commits or aborts together with the write that triggered it.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brickfund/internal/models"
)

var (
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrMissingOldRating = errors.New("rating update requires the previous rating")
	ErrInvalidMode      = errors.New("unknown rating mode")
	ErrInvalidDelta     = errors.New("investor count delta must be +1 or -1")
)

// Engine applies domain events to the aggregate store.
type Engine struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewEngine(db *gorm.DB, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Engine{db: db, logger: logger}
}

// GetAggregate returns the cached statistics of a property. A property that no
// updater has touched yet reports all zeros.
func (e *Engine) GetAggregate(ctx context.Context, propertyID string) (*models.PropertyAggregate, error) {
	var agg models.PropertyAggregate
	err := e.db.WithContext(ctx).Where("property_id = ?", propertyID).First(&agg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PropertyAggregate{PropertyID: propertyID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate for property %s: %w", propertyID, err)
	}
	return &agg, nil
}

// lockAggregate finds or creates the aggregate row and locks it for the rest of tx.
func (e *Engine) lockAggregate(tx *gorm.DB, propertyID string) (*models.PropertyAggregate, error) {
	seed := models.PropertyAggregate{PropertyID: propertyID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, fmt.Errorf("failed to create aggregate for property %s: %w", propertyID, err)
	}

	var agg models.PropertyAggregate
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("property_id = ?", propertyID).
		First(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock aggregate for property %s: %w", propertyID, err)
	}
	return &agg, nil
}

func (e *Engine) saveAggregate(tx *gorm.DB, propertyID string, fields map[string]interface{}) error {
	err := tx.Model(&models.PropertyAggregate{}).
		Where("property_id = ?", propertyID).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("failed to update aggregate for property %s: %w", propertyID, err)
	}
	return nil
}

// round2 rounds a derived figure to cents. Only applied when persisting.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
