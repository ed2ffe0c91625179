package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"brickfund/internal/database"
	"brickfund/internal/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.DomainEvent
}

func (r *recordingPublisher) Push(event models.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]models.EventType, len(r.events))
	for i, event := range r.events {
		types[i] = event.Type
	}
	return types
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingPublisher) {
	t.Helper()
	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	events := &recordingPublisher{}
	svc := NewService(db, events, nil, logger)
	svc.SetClock(func() time.Time { return testNow })
	svc.retryDelay = time.Millisecond
	return svc, db, events
}

func newProperty() *models.Property {
	return &models.Property{
		OwnerID:    "owner-1",
		Title:      "Harbour loft",
		Categories: []string{"Residential"},
		Price:      500000,
		TIG:        100000,
		MIA:        500,
	}
}

// publishedProperty creates a property and walks it to published.
func publishedProperty(t *testing.T, svc *Service) *models.Property {
	t.Helper()
	ctx := context.Background()
	property, err := svc.CreateProperty(ctx, newProperty())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, property.ID, models.PropertyStatusUnderReview)
	require.NoError(t, err)
	property, err = svc.TransitionStatus(ctx, property.ID, models.PropertyStatusPublished)
	require.NoError(t, err)
	return property
}

func invest(t *testing.T, svc *Service, propertyID, investorID string, amount, returns float64, status models.InvestmentStatus) *models.Investment {
	t.Helper()
	inv, err := svc.CreateInvestment(context.Background(), &models.Investment{
		PropertyID:       propertyID,
		InvestorID:       investorID,
		Amount:           amount,
		EstimatedReturns: returns,
		Status:           status,
	})
	require.NoError(t, err)
	return inv
}
