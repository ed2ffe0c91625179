package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/config"
	"brickfund/internal/database"
	"brickfund/internal/models"
)

func validateProperty(p *models.Property) error {
	if strings.TrimSpace(p.OwnerID) == "" || strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: owner and title are required", ErrInvalidProperty)
	}
	if p.Price < 0 || p.TIG < 0 || p.MIA < 0 {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidProperty)
	}
	if p.TIG > 0 && p.MIA > p.TIG {
		return fmt.Errorf("%w: minimum investment exceeds the investment goal", ErrInvalidProperty)
	}
	if p.ListingStart != nil && p.ListingEnd != nil && p.ListingEnd.Before(*p.ListingStart) {
		return fmt.Errorf("%w: listing ends before it starts", ErrInvalidProperty)
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude go together", ErrInvalidProperty)
	}
	if p.Latitude != nil && (math.Abs(*p.Latitude) > 90 || math.Abs(*p.Longitude) > 180) {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidProperty)
	}
	for _, category := range p.Categories {
		if !config.IsSupportedCategory(category) {
			return fmt.Errorf("%w: %s", ErrUnsupportedCategory, category)
		}
	}
	return nil
}

// CreateProperty stores a new draft listing.
func (s *Service) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	if err := validateProperty(property); err != nil {
		return nil, err
	}
	if property.ID == "" {
		property.ID = uuid.NewString()
	}
	property.Status = models.PropertyStatusDraft
	property.Aggregate = nil
	property.Tokenomics = nil
	for i, category := range property.Categories {
		property.Categories[i] = strings.ToLower(category)
	}

	err := s.runUnitOfWork(ctx, property.ID, func(tx *gorm.DB) error {
		if err := tx.Create(property).Error; err != nil {
			return fmt.Errorf("failed to create property: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"owner_id":    property.OwnerID,
	}).Info("Created property")
	return property, nil
}

// GetProperty loads a property with its aggregate and tokenomics.
func (s *Service) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	property, err := database.GetProperty(s.db.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return property, nil
}

// ViewProperty records a visit and returns the property as the visitor sees it.
func (s *Service) ViewProperty(ctx context.Context, id string) (*models.Property, error) {
	err := s.runUnitOfWork(ctx, id, func(tx *gorm.DB) error {
		if err := propertyExists(tx, id); err != nil {
			return err
		}
		return s.aggregates.OnPropertyViewed(tx, id)
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.DomainEvent{Type: models.EventPropertyViewed, PropertyID: id})
	return s.GetProperty(ctx, id)
}

func (s *Service) ListProperties(ctx context.Context, filters *models.PropertyFilters) ([]models.Property, error) {
	return database.ListProperties(s.db.WithContext(ctx), filters)
}

// TransitionStatus moves a property one step forward through its lifecycle.
func (s *Service) TransitionStatus(ctx context.Context, id string, next models.PropertyStatus) (*models.Property, error) {
	err := s.runUnitOfWork(ctx, id, func(tx *gorm.DB) error {
		property, err := loadProperty(tx, id)
		if err != nil {
			return err
		}
		if !property.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, property.Status, next)
		}
		if err := tx.Model(&models.Property{}).Where("id = ?", id).Update("status", next).Error; err != nil {
			return fmt.Errorf("failed to update property status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": id,
		"status":      next,
	}).Info("Property status changed")
	return s.GetProperty(ctx, id)
}

func validateTokenomics(t *models.Tokenomics) error {
	if t.TotalTokenSupply <= 0 || t.TokenPrice <= 0 {
		return fmt.Errorf("%w: supply and price must be positive", ErrInvalidTokenomics)
	}
	for _, share := range []float64{t.Team, t.Advisors, t.Investors, t.Other} {
		if share < 0 {
			return fmt.Errorf("%w: negative distribution share", ErrInvalidTokenomics)
		}
	}
	if math.Abs(t.DistributionTotal()-100) > 1e-6 {
		return ErrInvalidDistribution
	}
	return nil
}

// SetTokenomics creates or replaces the token supply of a property. Tokens
// already sold carry over, so the new supply must cover them.
func (s *Service) SetTokenomics(ctx context.Context, propertyID string, tokenomics *models.Tokenomics) (*models.Tokenomics, error) {
	if err := validateTokenomics(tokenomics); err != nil {
		return nil, err
	}
	tokenomics.PropertyID = propertyID

	err := s.runUnitOfWork(ctx, propertyID, func(tx *gorm.DB) error {
		if err := propertyExists(tx, propertyID); err != nil {
			return err
		}

		var existing models.Tokenomics
		err := tx.Where("property_id = ?", propertyID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			tokenomics.RemainingTokens = tokenomics.TotalTokenSupply
			if err := tx.Create(tokenomics).Error; err != nil {
				return fmt.Errorf("failed to create tokenomics: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to read tokenomics: %w", err)
		}

		sold := existing.TotalTokenSupply - existing.RemainingTokens
		if sold > tokenomics.TotalTokenSupply {
			return fmt.Errorf("%w: %.0f tokens already sold", ErrInsufficientTokens, sold)
		}
		tokenomics.RemainingTokens = tokenomics.TotalTokenSupply - sold
		tokenomics.CreatedAt = existing.CreatedAt
		if err := tx.Save(tokenomics).Error; err != nil {
			return fmt.Errorf("failed to update tokenomics: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokenomics, nil
}

// DeleteProperty removes a property with its aggregate, tokenomics,
// investments and reviews.
func (s *Service) DeleteProperty(ctx context.Context, id string) error {
	err := s.runUnitOfWork(ctx, id, func(tx *gorm.DB) error {
		if err := propertyExists(tx, id); err != nil {
			return err
		}
		return database.DeletePropertyCascade(tx, id)
	})
	if err != nil {
		return err
	}

	s.publish(models.DomainEvent{Type: models.EventPropertyDeleted, PropertyID: id, EntityID: id})
	s.logger.WithField("property_id", id).Info("Deleted property")
	return nil
}

func loadProperty(tx *gorm.DB, id string) (*models.Property, error) {
	var property models.Property
	err := tx.Where("id = ?", id).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	return &property, nil
}

func propertyExists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&models.Property{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up property: %w", err)
	}
	if count == 0 {
		return ErrPropertyNotFound
	}
	return nil
}
