package aggregate

import (
	"gorm.io/gorm"

	"brickfund/internal/models"
)

// OnInvestmentCreated runs after the investment row is written in tx.
func (e *Engine) OnInvestmentCreated(tx *gorm.DB, inv *models.Investment) error {
	if err := e.BumpInvestorCount(tx, inv.PropertyID, 1); err != nil {
		return err
	}
	return e.RecomputeYield(tx, inv.PropertyID)
}

// OnInvestmentUpdated runs after the investment row is updated in tx. Any field
// may affect yield, so the property is always recomputed.
func (e *Engine) OnInvestmentUpdated(tx *gorm.DB, inv *models.Investment) error {
	return e.RecomputeYield(tx, inv.PropertyID)
}

// OnInvestmentDeleted runs after the investment row is deleted in tx.
func (e *Engine) OnInvestmentDeleted(tx *gorm.DB, inv *models.Investment) error {
	if err := e.BumpInvestorCount(tx, inv.PropertyID, -1); err != nil {
		return err
	}
	return e.RecomputeYield(tx, inv.PropertyID)
}

func (e *Engine) OnReviewCreated(tx *gorm.DB, review *models.Review) error {
	return e.ApplyRating(tx, review.PropertyID, review.Rating, RatingInsert, nil)
}

// OnReviewUpdated applies a rating change. Unchanged ratings are skipped.
func (e *Engine) OnReviewUpdated(tx *gorm.DB, review *models.Review, oldRating int) error {
	if review.Rating == oldRating {
		return nil
	}
	return e.ApplyRating(tx, review.PropertyID, review.Rating, RatingUpdate, &oldRating)
}

func (e *Engine) OnReviewDeleted(tx *gorm.DB, review *models.Review) error {
	return e.ApplyRating(tx, review.PropertyID, review.Rating, RatingRemove, nil)
}

func (e *Engine) OnPropertyViewed(tx *gorm.DB, propertyID string) error {
	return e.RecordVisit(tx, propertyID)
}
