package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/internal/database"
)

// runUnitOfWork holds the property's lock and runs fn in one transaction. The
// whole unit of work is retried when the store reports a transient lock or
// serialization failure; any other error is returned as is.
//
// fn must only use the transaction it is given.
func (s *Service) runUnitOfWork(ctx context.Context, propertyID string, fn func(tx *gorm.DB) error) error {
	s.locks.Lock(propertyID)
	defer s.locks.Unlock(propertyID)

	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.WithFields(logrus.Fields{
				"property_id": propertyID,
				"attempt":     attempt,
				"max_retries": s.maxRetries,
			}).Info("Retrying unit of work")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		err = s.db.WithContext(ctx).Transaction(fn)
		if err == nil || !database.IsTransient(err) {
			return err
		}

		s.logger.WithError(err).WithField("property_id", propertyID).Warn("Unit of work hit a transient error")
	}

	return fmt.Errorf("failed to commit unit of work after %d attempts: %w", s.maxRetries+1, err)
}
