package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/internal/models"
)

// InvestmentUpdate carries the fields of an investment a caller may change.
// Nil fields are left as they are.
type InvestmentUpdate struct {
	Amount           *float64                 `json:"amount"`
	EstimatedReturns *float64                 `json:"estimated_returns"`
	SharesAssigned   *float64                 `json:"shares_assigned"`
	Status           *models.InvestmentStatus `json:"status"`
	Date             *time.Time               `json:"date"`
}

func validateInvestment(inv *models.Investment) error {
	if strings.TrimSpace(inv.PropertyID) == "" || strings.TrimSpace(inv.InvestorID) == "" {
		return fmt.Errorf("%w: property and investor are required", ErrInvalidInvestment)
	}
	if inv.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInvestment)
	}
	if inv.EstimatedReturns < 0 || inv.SharesAssigned < 0 {
		return fmt.Errorf("%w: returns and shares must not be negative", ErrInvalidInvestment)
	}
	if !inv.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInvestment, inv.Status)
	}
	return nil
}

// reservedShares is the number of tokens an investment holds against the supply.
func reservedShares(inv *models.Investment) float64 {
	if inv.Status == models.InvestmentStatusCancel {
		return 0
	}
	return inv.SharesAssigned
}

// reserveTokens takes delta tokens from the property's remaining supply, or
// returns them when delta is negative. Properties without tokenomics have no
// supply to track.
func reserveTokens(tx *gorm.DB, propertyID string, delta float64) error {
	if delta == 0 {
		return nil
	}

	var tokenomics models.Tokenomics
	err := tx.Where("property_id = ?", propertyID).First(&tokenomics).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read tokenomics: %w", err)
	}

	if delta > tokenomics.RemainingTokens {
		return fmt.Errorf("%w: requested %.0f, remaining %.0f", ErrInsufficientTokens, delta, tokenomics.RemainingTokens)
	}

	err = tx.Model(&models.Tokenomics{}).
		Where("property_id = ?", propertyID).
		Update("remaining_tokens", gorm.Expr("remaining_tokens - ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to update remaining tokens: %w", err)
	}
	return nil
}

// assignShares fills in the shares bought by an investment from the token
// price when the caller did not set them.
func assignShares(tx *gorm.DB, inv *models.Investment) error {
	if inv.SharesAssigned > 0 {
		return nil
	}

	var tokenomics models.Tokenomics
	err := tx.Where("property_id = ?", inv.PropertyID).First(&tokenomics).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read tokenomics: %w", err)
	}
	if tokenomics.TokenPrice > 0 {
		inv.SharesAssigned = math.Floor(inv.Amount / tokenomics.TokenPrice)
	}
	return nil
}

// CreateInvestment records an investment in a published property and updates
// the property's aggregate in the same unit of work.
func (s *Service) CreateInvestment(ctx context.Context, inv *models.Investment) (*models.Investment, error) {
	if inv.Status == "" {
		inv.Status = models.InvestmentStatusPending
	}
	if err := validateInvestment(inv); err != nil {
		return nil, err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Date.IsZero() {
		inv.Date = s.now()
	}
	inv.Date = inv.Date.UTC()
	inv.Property = nil

	err := s.runUnitOfWork(ctx, inv.PropertyID, func(tx *gorm.DB) error {
		property, err := loadProperty(tx, inv.PropertyID)
		if err != nil {
			return err
		}
		if property.Status != models.PropertyStatusPublished {
			return fmt.Errorf("%w: status is %s", ErrPropertyNotOpen, property.Status)
		}
		if inv.Amount < property.MIA {
			return fmt.Errorf("%w: %.2f < %.2f", ErrBelowMinimumInvestment, inv.Amount, property.MIA)
		}

		if err := assignShares(tx, inv); err != nil {
			return err
		}
		if err := reserveTokens(tx, inv.PropertyID, reservedShares(inv)); err != nil {
			return err
		}

		if err := tx.Create(inv).Error; err != nil {
			return fmt.Errorf("failed to create investment: %w", err)
		}
		return s.aggregates.OnInvestmentCreated(tx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.DomainEvent{
		Type:       models.EventInvestmentCreated,
		PropertyID: inv.PropertyID,
		EntityID:   inv.ID,
		Payload:    *inv,
	})
	s.logger.WithFields(logrus.Fields{
		"property_id":   inv.PropertyID,
		"investor_id":   inv.InvestorID,
		"investment_id": inv.ID,
		"status":        inv.Status,
	}).Info("Created investment")
	return inv, nil
}

func (s *Service) GetInvestment(ctx context.Context, id string) (*models.Investment, error) {
	return findInvestment(s.db.WithContext(ctx), id)
}

// UpdateInvestment changes an investment and recomputes its property's yield.
func (s *Service) UpdateInvestment(ctx context.Context, id string, update InvestmentUpdate) (*models.Investment, error) {
	current, err := s.GetInvestment(ctx, id)
	if err != nil {
		return nil, err
	}

	var inv *models.Investment
	err = s.runUnitOfWork(ctx, current.PropertyID, func(tx *gorm.DB) error {
		found, err := findInvestment(tx, id)
		if err != nil {
			return err
		}
		inv = found
		before := *inv

		if update.Amount != nil {
			inv.Amount = *update.Amount
		}
		if update.EstimatedReturns != nil {
			inv.EstimatedReturns = *update.EstimatedReturns
		}
		if update.SharesAssigned != nil {
			inv.SharesAssigned = *update.SharesAssigned
		}
		if update.Status != nil {
			inv.Status = *update.Status
		}
		if update.Date != nil {
			inv.Date = update.Date.UTC()
		}
		if err := validateInvestment(inv); err != nil {
			return err
		}

		if inv.Amount != before.Amount {
			property, err := loadProperty(tx, inv.PropertyID)
			if err != nil {
				return err
			}
			if inv.Amount < property.MIA {
				return fmt.Errorf("%w: %.2f < %.2f", ErrBelowMinimumInvestment, inv.Amount, property.MIA)
			}
		}

		if err := reserveTokens(tx, inv.PropertyID, reservedShares(inv)-reservedShares(&before)); err != nil {
			return err
		}

		err = tx.Model(&models.Investment{}).Where("id = ?", id).Updates(map[string]interface{}{
			"amount":            inv.Amount,
			"estimated_returns": inv.EstimatedReturns,
			"shares_assigned":   inv.SharesAssigned,
			"status":            inv.Status,
			"date":              inv.Date,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update investment: %w", err)
		}
		return s.aggregates.OnInvestmentUpdated(tx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.DomainEvent{
		Type:       models.EventInvestmentUpdated,
		PropertyID: inv.PropertyID,
		EntityID:   inv.ID,
		Payload:    *inv,
	})
	return inv, nil
}

// DeleteInvestment removes an investment, returns its tokens to the supply and
// updates the property's aggregate.
func (s *Service) DeleteInvestment(ctx context.Context, id string) error {
	current, err := s.GetInvestment(ctx, id)
	if err != nil {
		return err
	}

	var inv *models.Investment
	err = s.runUnitOfWork(ctx, current.PropertyID, func(tx *gorm.DB) error {
		found, err := findInvestment(tx, id)
		if err != nil {
			return err
		}
		inv = found
		if err := tx.Where("id = ?", id).Delete(&models.Investment{}).Error; err != nil {
			return fmt.Errorf("failed to delete investment: %w", err)
		}
		if err := reserveTokens(tx, inv.PropertyID, -reservedShares(inv)); err != nil {
			return err
		}
		return s.aggregates.OnInvestmentDeleted(tx, inv)
	})
	if err != nil {
		return err
	}

	s.publish(models.DomainEvent{
		Type:       models.EventInvestmentDeleted,
		PropertyID: inv.PropertyID,
		EntityID:   inv.ID,
	})
	return nil
}

func findInvestment(db *gorm.DB, id string) (*models.Investment, error) {
	var inv models.Investment
	err := db.Where("id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}
	return &inv, nil
}
