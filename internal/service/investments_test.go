package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"brickfund/internal/models"
)

func tokenomicsOf(t *testing.T, db *gorm.DB, propertyID string) models.Tokenomics {
	t.Helper()
	var tokenomics models.Tokenomics
	require.NoError(t, db.Where("property_id = ?", propertyID).First(&tokenomics).Error)
	return tokenomics
}

func TestCreateInvestment_UpdatesAggregate(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()
	property := publishedProperty(t, svc)

	inv := invest(t, svc, property.ID, "investor-1", 1000, 1100, models.InvestmentStatusFinish)
	assert.Equal(t, testNow, inv.Date)
	invest(t, svc, property.ID, "investor-2", 2000, 2400, models.InvestmentStatusFinish)

	agg, err := svc.GetAggregate(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, agg.TotalInvestmentAmount)
	assert.Equal(t, 3500.0, agg.TotalEstimatedReturns)
	assert.Equal(t, 16.67, agg.Yield)
	assert.Equal(t, int64(2), agg.NumberOfInvestors)

	assert.Equal(t, []models.EventType{models.EventInvestmentCreated, models.EventInvestmentCreated}, events.types())
}

func TestCreateInvestment_DefaultsToPending(t *testing.T) {
	svc, _, _ := newTestService(t)
	property := publishedProperty(t, svc)

	inv := invest(t, svc, property.ID, "investor-1", 1000, 1100, "")
	assert.Equal(t, models.InvestmentStatusPending, inv.Status)

	agg, err := svc.GetAggregate(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Zero(t, agg.NumberOfInvestors, "only finished investments count after recompute")
	assert.Zero(t, agg.TotalInvestmentAmount)
}

func TestCreateInvestment_Rejections(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()
	published := publishedProperty(t, svc)
	draft, err := svc.CreateProperty(ctx, newProperty())
	require.NoError(t, err)

	tests := []struct {
		name    string
		inv     models.Investment
		wantErr error
	}{
		{"zero amount", models.Investment{PropertyID: published.ID, InvestorID: "i", Amount: 0}, ErrInvalidInvestment},
		{"unknown status", models.Investment{PropertyID: published.ID, InvestorID: "i", Amount: 1000, Status: "lost"}, ErrInvalidInvestment},
		{"missing investor", models.Investment{PropertyID: published.ID, Amount: 1000}, ErrInvalidInvestment},
		{"below minimum", models.Investment{PropertyID: published.ID, InvestorID: "i", Amount: 100}, ErrBelowMinimumInvestment},
		{"not published", models.Investment{PropertyID: draft.ID, InvestorID: "i", Amount: 1000}, ErrPropertyNotOpen},
		{"unknown property", models.Investment{PropertyID: "missing", InvestorID: "i", Amount: 1000}, ErrPropertyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := tt.inv
			_, err := svc.CreateInvestment(ctx, &inv)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var rows int64
	require.NoError(t, svc.db.Model(&models.PropertyAggregate{}).Count(&rows).Error)
	assert.Zero(t, rows, "rejected investments never touch the aggregate")
	assert.Empty(t, events.types(), "nothing is published for rejected writes")
}

func TestCreateInvestment_AssignsAndReservesTokens(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	property := publishedProperty(t, svc)

	_, err := svc.SetTokenomics(ctx, property.ID, &models.Tokenomics{
		TotalTokenSupply: 1000, TokenPrice: 10, Team: 20, Advisors: 10, Investors: 60, Other: 10,
	})
	require.NoError(t, err)

	inv := invest(t, svc, property.ID, "investor-1", 1005, 1100, models.InvestmentStatusPending)
	assert.Equal(t, 100.0, inv.SharesAssigned, "shares are floor(amount / token price)")
	assert.Equal(t, 900.0, tokenomicsOf(t, db, property.ID).RemainingTokens)

	_, err = svc.CreateInvestment(ctx, &models.Investment{
		PropertyID: property.ID, InvestorID: "investor-2", Amount: 9500,
	})
	assert.ErrorIs(t, err, ErrInsufficientTokens)
	assert.Equal(t, 900.0, tokenomicsOf(t, db, property.ID).RemainingTokens, "failed unit of work rolls back")

	cancel := models.InvestmentStatusCancel
	_, err = svc.UpdateInvestment(ctx, inv.ID, InvestmentUpdate{Status: &cancel})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, tokenomicsOf(t, db, property.ID).RemainingTokens, "cancelled investments release their tokens")

	pending := models.InvestmentStatusPending
	_, err = svc.UpdateInvestment(ctx, inv.ID, InvestmentUpdate{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, 900.0, tokenomicsOf(t, db, property.ID).RemainingTokens)

	require.NoError(t, svc.DeleteInvestment(ctx, inv.ID))
	assert.Equal(t, 1000.0, tokenomicsOf(t, db, property.ID).RemainingTokens)
}

func TestUpdateInvestment_RecomputesYield(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()
	property := publishedProperty(t, svc)

	inv := invest(t, svc, property.ID, "investor-1", 1000, 1100, models.InvestmentStatusPending)

	finish := models.InvestmentStatusFinish
	returns := 1200.0
	updated, err := svc.UpdateInvestment(ctx, inv.ID, InvestmentUpdate{Status: &finish, EstimatedReturns: &returns})
	require.NoError(t, err)
	assert.Equal(t, finish, updated.Status)

	agg, err := svc.GetAggregate(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, agg.TotalInvestmentAmount)
	assert.Equal(t, 1200.0, agg.TotalEstimatedReturns)
	assert.Equal(t, 20.0, agg.Yield)
	assert.Equal(t, int64(1), agg.NumberOfInvestors)

	low := 10.0
	_, err = svc.UpdateInvestment(ctx, inv.ID, InvestmentUpdate{Amount: &low})
	assert.ErrorIs(t, err, ErrBelowMinimumInvestment)

	_, err = svc.UpdateInvestment(ctx, "missing", InvestmentUpdate{})
	assert.ErrorIs(t, err, ErrInvestmentNotFound)

	assert.Contains(t, events.types(), models.EventInvestmentUpdated)
}

func TestDeleteInvestment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	property := publishedProperty(t, svc)

	first := invest(t, svc, property.ID, "investor-1", 1000, 1100, models.InvestmentStatusFinish)
	invest(t, svc, property.ID, "investor-2", 2000, 2400, models.InvestmentStatusFinish)

	require.NoError(t, svc.DeleteInvestment(ctx, first.ID))

	agg, err := svc.GetAggregate(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, agg.TotalInvestmentAmount)
	assert.Equal(t, 20.0, agg.Yield)
	assert.Equal(t, int64(1), agg.NumberOfInvestors)

	assert.ErrorIs(t, svc.DeleteInvestment(ctx, first.ID), ErrInvestmentNotFound)
}

func TestCreateInvestment_ConcurrentWritersAreSerialised(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	property := publishedProperty(t, svc)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateInvestment(ctx, &models.Investment{
				PropertyID:       property.ID,
				InvestorID:       fmt.Sprintf("investor-%d", i),
				Amount:           1000,
				EstimatedReturns: 1100,
				Status:           models.InvestmentStatusFinish,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	agg, err := svc.GetAggregate(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), agg.NumberOfInvestors)
	assert.Equal(t, 10000.0, agg.TotalInvestmentAmount)
	assert.Equal(t, 10.0, agg.Yield)
}
