package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/internal/analytics"
	"brickfund/internal/database"
	"brickfund/internal/models"
)

// GetAggregate returns the cached statistics of an existing property.
func (s *Service) GetAggregate(ctx context.Context, propertyID string) (*models.PropertyAggregate, error) {
	if err := propertyExists(s.db.WithContext(ctx), propertyID); err != nil {
		return nil, err
	}
	return s.aggregates.GetAggregate(ctx, propertyID)
}

func (s *Service) anchor(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t.UTC()
}

// Metrics reports platform-wide activity. Only finished investments count.
func (s *Service) Metrics(ctx context.Context, period analytics.Period, anchor time.Time) (*analytics.MetricsReport, error) {
	return s.analytics.Metrics(ctx, period, s.anchor(anchor), analytics.PlatformScope())
}

// InvestorMetrics reports one investor's activity over every non-cancelled investment.
func (s *Service) InvestorMetrics(ctx context.Context, investorID string, period analytics.Period, anchor time.Time) (*analytics.MetricsReport, error) {
	return s.analytics.Metrics(ctx, period, s.anchor(anchor), analytics.InvestorScope(investorID))
}

func (s *Service) Portfolio(ctx context.Context, investorID string) (*analytics.PortfolioReport, error) {
	return s.analytics.Portfolio(ctx, investorID, s.now())
}

// ReconcileAll rebuilds the aggregate of every property from its raw records,
// one unit of work per property. Failures are collected and the run continues.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := database.AllPropertyIDs(s.db.WithContext(ctx))
	if err != nil {
		return 0, err
	}

	var errs []error
	reconciled := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		err := s.runUnitOfWork(ctx, id, func(tx *gorm.DB) error {
			if err := propertyExists(tx, id); err != nil {
				return err
			}
			return s.aggregates.Reconcile(tx, id)
		})
		if errors.Is(err, ErrPropertyNotFound) {
			continue
		}
		if err != nil {
			s.logger.WithError(err).WithField("property_id", id).Error("Failed to reconcile property")
			errs = append(errs, err)
			continue
		}
		reconciled++
	}

	s.logger.WithFields(logrus.Fields{
		"properties": len(ids),
		"reconciled": reconciled,
	}).Debug("Reconciled aggregates")
	return reconciled, errors.Join(errs...)
}
