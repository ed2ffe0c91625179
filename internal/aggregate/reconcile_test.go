package aggregate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"brickfund/internal/models"
)

func TestReconcile_CorrectsDrift(t *testing.T) {
	e, db := newTestEngine(t)
	propertyID := createProperty(t, db)

	createInvestment(t, e, db, propertyID, "investor-1", 1000, 1100, models.InvestmentStatusFinish)
	for i, rating := range []int{5, 2} {
		review := &models.Review{
			ID:         uuid.NewString(),
			PropertyID: propertyID,
			ReviewerID: []string{"reviewer-1", "reviewer-2"}[i],
			Rating:     rating,
			CreatedAt:  time.Now().UTC(),
		}
		require.NoError(t, db.Create(review).Error)
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return e.RecordVisit(tx, propertyID)
	}))

	// Simulate a stale cache
	require.NoError(t, db.Model(&models.PropertyAggregate{}).
		Where("property_id = ?", propertyID).
		Updates(map[string]interface{}{
			"yield":               99,
			"number_of_investors": 7,
			"overall_rating":      1,
			"rating_count":        9,
		}).Error)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return e.Reconcile(tx, propertyID)
	}))

	agg := readAggregate(t, e, propertyID)
	assert.Equal(t, 10.0, agg.Yield)
	assert.Equal(t, int64(1), agg.NumberOfInvestors)
	assert.Equal(t, int64(2), agg.RatingCount)
	assert.InDelta(t, 3.5, agg.OverallRating, 1e-9)
	assert.Equal(t, int64(1), agg.VisitCount, "visits have no raw source and are kept")
}

func TestRebuildRating_NoReviews(t *testing.T) {
	e, db := newTestEngine(t)
	propertyID := createProperty(t, db)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return e.RebuildRating(tx, propertyID)
	}))

	agg := readAggregate(t, e, propertyID)
	assert.Zero(t, agg.RatingCount)
	assert.Zero(t, agg.OverallRating)
}
