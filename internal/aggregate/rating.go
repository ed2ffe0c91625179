package aggregate

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/internal/models"
)

// RatingMode selects how a review event changes the running mean.
type RatingMode int

const (
	RatingInsert RatingMode = iota
	RatingUpdate
	RatingRemove
)

func (m RatingMode) String() string {
	switch m {
	case RatingInsert:
		return "insert"
	case RatingUpdate:
		return "update"
	case RatingRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// ApplyRating adjusts the running mean and sample count of a property's rating.
// oldRating is required for RatingUpdate and ignored otherwise. An update that
// does not change the rating leaves the aggregate untouched.
func (e *Engine) ApplyRating(tx *gorm.DB, propertyID string, newRating int, mode RatingMode, oldRating *int) error {
	if !models.ValidRating(newRating) {
		return ErrInvalidRating
	}

	previous := 0
	switch mode {
	case RatingInsert, RatingRemove:
	case RatingUpdate:
		if oldRating == nil {
			return ErrMissingOldRating
		}
		if !models.ValidRating(*oldRating) {
			return ErrInvalidRating
		}
		if *oldRating == newRating {
			return nil
		}
		previous = *oldRating
	default:
		return ErrInvalidMode
	}

	agg, err := e.lockAggregate(tx, propertyID)
	if err != nil {
		return err
	}

	overall, count := nextRating(agg.OverallRating, agg.RatingCount, newRating, previous, mode)

	e.logger.WithFields(logrus.Fields{
		"property_id":    propertyID,
		"mode":           mode.String(),
		"rating":         newRating,
		"overall_rating": overall,
		"rating_count":   count,
	}).Debug("Applied rating")

	return e.saveAggregate(tx, propertyID, map[string]interface{}{
		"overall_rating": overall,
		"rating_count":   count,
	})
}

// nextRating computes the new mean and count. Both are clamped at zero and the
// mean is zero whenever no ratings remain.
func nextRating(overall float64, count int64, newRating, oldRating int, mode RatingMode) (float64, int64) {
	r := float64(newRating)

	switch mode {
	case RatingInsert:
		before := count
		count++
		overall = (overall*float64(before) + r) / float64(count)
	case RatingUpdate:
		// Nothing to rescale without samples
		if count > 0 {
			overall = (overall*float64(count) - float64(oldRating) + r) / float64(count)
		}
	case RatingRemove:
		before := count
		count--
		if count > 0 {
			overall = (overall*float64(before) - r) / float64(count)
		} else {
			overall = 0
		}
	}

	if count < 0 {
		count = 0
	}
	if overall < 0 || count == 0 {
		overall = 0
	}
	return overall, count
}
