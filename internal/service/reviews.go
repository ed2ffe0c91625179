package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/internal/aggregate"
	"brickfund/internal/models"
)

// ReviewUpdate carries the editable fields of a review.
type ReviewUpdate struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// CreateReview stores a reviewer's only review of a property and folds its
// rating into the running mean.
func (s *Service) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	if strings.TrimSpace(review.PropertyID) == "" || strings.TrimSpace(review.ReviewerID) == "" {
		return nil, fmt.Errorf("%w: property and reviewer are required", ErrInvalidReview)
	}
	if !models.ValidRating(review.Rating) {
		return nil, aggregate.ErrInvalidRating
	}
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.Property = nil

	err := s.runUnitOfWork(ctx, review.PropertyID, func(tx *gorm.DB) error {
		if err := propertyExists(tx, review.PropertyID); err != nil {
			return err
		}

		var count int64
		err := tx.Model(&models.Review{}).
			Where("property_id = ? AND reviewer_id = ?", review.PropertyID, review.ReviewerID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to look up existing review: %w", err)
		}
		if count > 0 {
			return ErrDuplicateReview
		}

		if err := tx.Create(review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReview
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		return s.aggregates.OnReviewCreated(tx, review)
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.DomainEvent{
		Type:       models.EventReviewCreated,
		PropertyID: review.PropertyID,
		EntityID:   review.ID,
		Payload:    *review,
	})
	s.logger.WithFields(logrus.Fields{
		"property_id": review.PropertyID,
		"reviewer_id": review.ReviewerID,
		"rating":      review.Rating,
	}).Info("Created review")
	return review, nil
}

func (s *Service) GetReview(ctx context.Context, id string) (*models.Review, error) {
	return findReview(s.db.WithContext(ctx), id)
}

// UpdateReview edits a review. A changed rating replaces the old one in the mean.
func (s *Service) UpdateReview(ctx context.Context, id string, update ReviewUpdate) (*models.Review, error) {
	if update.Rating != nil && !models.ValidRating(*update.Rating) {
		return nil, aggregate.ErrInvalidRating
	}

	current, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	var review *models.Review
	err = s.runUnitOfWork(ctx, current.PropertyID, func(tx *gorm.DB) error {
		found, err := findReview(tx, id)
		if err != nil {
			return err
		}
		review = found
		oldRating := review.Rating

		if update.Rating != nil {
			review.Rating = *update.Rating
		}
		if update.Comment != nil {
			review.Comment = *update.Comment
		}

		err = tx.Model(&models.Review{}).Where("id = ?", id).Updates(map[string]interface{}{
			"rating":  review.Rating,
			"comment": review.Comment,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		return s.aggregates.OnReviewUpdated(tx, review, oldRating)
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.DomainEvent{
		Type:       models.EventReviewUpdated,
		PropertyID: review.PropertyID,
		EntityID:   review.ID,
		Payload:    *review,
	})
	return review, nil
}

// DeleteReview removes a review and its rating from the mean.
func (s *Service) DeleteReview(ctx context.Context, id string) error {
	current, err := s.GetReview(ctx, id)
	if err != nil {
		return err
	}

	var review *models.Review
	err = s.runUnitOfWork(ctx, current.PropertyID, func(tx *gorm.DB) error {
		found, err := findReview(tx, id)
		if err != nil {
			return err
		}
		review = found
		if err := tx.Where("id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		return s.aggregates.OnReviewDeleted(tx, review)
	})
	if err != nil {
		return err
	}

	s.publish(models.DomainEvent{
		Type:       models.EventReviewDeleted,
		PropertyID: review.PropertyID,
		EntityID:   review.ID,
	})
	return nil
}

func findReview(db *gorm.DB, id string) (*models.Review, error) {
	var review models.Review
	err := db.Where("id = ?", id).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return &review, nil
}
