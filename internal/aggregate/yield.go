package aggregate

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/internal/models"
)

// YieldSummary holds the unrounded totals of a property's finished investments.
type YieldSummary struct {
	TotalInvestment float64
	TotalReturns    float64
	AnnualYield     float64
	Investors       int64
}

// SummarizeFinished totals the finished investments in the slice. Other
// statuses are ignored.
func SummarizeFinished(investments []models.Investment) YieldSummary {
	var summary YieldSummary
	investors := make(map[string]struct{})
	for _, inv := range investments {
		if inv.Status != models.InvestmentStatusFinish {
			continue
		}
		summary.TotalInvestment += inv.Amount
		summary.TotalReturns += inv.EstimatedReturns
		investors[inv.InvestorID] = struct{}{}
	}

	summary.Investors = int64(len(investors))
	if summary.TotalInvestment > 0 {
		summary.AnnualYield = (summary.TotalReturns - summary.TotalInvestment) / summary.TotalInvestment * 100
	}
	return summary
}

// RecomputeYield rebuilds yield, totals and investor count from the full set of
// finished investments. The aggregate row is locked before the scan so the scan
// sees every write committed ahead of it.
func (e *Engine) RecomputeYield(tx *gorm.DB, propertyID string) error {
	if _, err := e.lockAggregate(tx, propertyID); err != nil {
		return err
	}

	var investments []models.Investment
	err := tx.Where("property_id = ? AND status = ?", propertyID, models.InvestmentStatusFinish).
		Find(&investments).Error
	if err != nil {
		return fmt.Errorf("failed to load finished investments for property %s: %w", propertyID, err)
	}

	summary := SummarizeFinished(investments)

	e.logger.WithFields(logrus.Fields{
		"property_id":      propertyID,
		"total_investment": summary.TotalInvestment,
		"annual_yield":     summary.AnnualYield,
		"investors":        summary.Investors,
	}).Debug("Recomputed yield")

	return e.saveAggregate(tx, propertyID, map[string]interface{}{
		"yield":                   round2(summary.AnnualYield),
		"total_investment_amount": round2(summary.TotalInvestment),
		"total_estimated_returns": round2(summary.TotalReturns),
		"number_of_investors":     summary.Investors,
	})
}

// BumpInvestorCount moves the investor count by delta, never below zero.
// RecomputeYield overwrites the count later in the same unit of work; the bump
// only matters to readers of mid-transaction state.
func (e *Engine) BumpInvestorCount(tx *gorm.DB, propertyID string, delta int) error {
	if delta != 1 && delta != -1 {
		return ErrInvalidDelta
	}

	agg, err := e.lockAggregate(tx, propertyID)
	if err != nil {
		return err
	}

	count := agg.NumberOfInvestors + int64(delta)
	if count < 0 {
		count = 0
	}

	return e.saveAggregate(tx, propertyID, map[string]interface{}{
		"number_of_investors": count,
	})
}
