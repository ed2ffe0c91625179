package aggregate

import (
	"fmt"

	"gorm.io/gorm"

	"brickfund/internal/models"
)

type ratingStats struct {
	Count   int64
	Average float64
}

// RebuildRating recomputes the rating mean and count from the stored reviews.
func (e *Engine) RebuildRating(tx *gorm.DB, propertyID string) error {
	if _, err := e.lockAggregate(tx, propertyID); err != nil {
		return err
	}

	var stats ratingStats
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("property_id = ?", propertyID).
		Scan(&stats).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate reviews for property %s: %w", propertyID, err)
	}
	if stats.Count == 0 {
		stats.Average = 0
	}

	return e.saveAggregate(tx, propertyID, map[string]interface{}{
		"overall_rating": stats.Average,
		"rating_count":   stats.Count,
	})
}

// Reconcile rebuilds every derived field that has an authoritative source.
// Visit counts have no raw log and are left as they are.
func (e *Engine) Reconcile(tx *gorm.DB, propertyID string) error {
	if err := e.RecomputeYield(tx, propertyID); err != nil {
		return err
	}
	return e.RebuildRating(tx, propertyID)
}
