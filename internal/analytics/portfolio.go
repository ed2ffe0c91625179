package analytics

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"brickfund/internal/database"
	"brickfund/internal/models"
)

const accrualMonth = 30 * 24 * time.Hour

type StatusBucket struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// Position is one investment valued against its property's aggregate.
type Position struct {
	InvestmentID   string                  `json:"investment_id"`
	PropertyID     string                  `json:"property_id"`
	Status         models.InvestmentStatus `json:"status"`
	Amount         float64                 `json:"amount"`
	SharesAssigned float64                 `json:"shares_assigned"`
	ShareRatio     float64                 `json:"share_ratio"`
	CurrentValue   float64                 `json:"current_value"`
	MonthlyRent    float64                 `json:"monthly_rent"`
	MonthsElapsed  int                     `json:"months_elapsed"`
	EarnedRent     float64                 `json:"earned_rent"`
}

type PortfolioReport struct {
	InvestorID    string       `json:"investor_id"`
	TotalInvested float64      `json:"total_invested"`
	CurrentValue  float64      `json:"current_value"`
	ValueChange   Change       `json:"value_change"`
	EarnedRent    float64      `json:"earned_rent"`
	PendingRent   float64      `json:"pending_rent"`
	Completed     StatusBucket `json:"completed"`
	Processing    StatusBucket `json:"processing"`
	Positions     []Position   `json:"positions"`
}

// Portfolio values every investment of investorID as of now.
func (e *Engine) Portfolio(ctx context.Context, investorID string, now time.Time) (*PortfolioReport, error) {
	db := e.db.WithContext(ctx)

	investments, err := database.InvestmentsByInvestor(db, investorID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(investments))
	seen := make(map[string]struct{})
	for _, inv := range investments {
		if _, ok := seen[inv.PropertyID]; !ok {
			seen[inv.PropertyID] = struct{}{}
			ids = append(ids, inv.PropertyID)
		}
	}

	properties, err := database.PropertiesByIDs(db, ids)
	if err != nil {
		return nil, err
	}

	report := BuildPortfolio(investorID, investments, properties, now)

	e.logger.WithFields(logrus.Fields{
		"investor_id":   investorID,
		"positions":     len(report.Positions),
		"current_value": report.CurrentValue,
	}).Debug("Built portfolio report")

	return report, nil
}

// ShareRatio divides the shares by the token supply, falling back to the
// property's investment goal and finally to 1 so the denominator is never zero.
func ShareRatio(shares float64, property *models.Property) float64 {
	denominator := 0.0
	if property != nil {
		if property.Tokenomics != nil && property.Tokenomics.TotalTokenSupply > 0 {
			denominator = property.Tokenomics.TotalTokenSupply
		} else if property.TIG > 0 {
			denominator = property.TIG
		}
	}
	if denominator == 0 {
		denominator = 1
	}
	return shares / denominator
}

// BuildPortfolio values investments against preloaded properties. Properties
// missing from the map contribute no value.
func BuildPortfolio(investorID string, investments []models.Investment, properties map[string]*models.Property, now time.Time) *PortfolioReport {
	report := &PortfolioReport{
		InvestorID: investorID,
		Positions:  make([]Position, 0, len(investments)),
	}

	for _, inv := range investments {
		property := properties[inv.PropertyID]

		position := Position{
			InvestmentID:   inv.ID,
			PropertyID:     inv.PropertyID,
			Status:         inv.Status,
			Amount:         inv.Amount,
			SharesAssigned: inv.SharesAssigned,
			ShareRatio:     ShareRatio(inv.SharesAssigned, property),
		}

		if property != nil && property.Aggregate != nil {
			position.CurrentValue = property.Aggregate.TotalEstimatedReturns * position.ShareRatio
		}

		monthlyRent := (inv.EstimatedReturns - inv.Amount) / 12
		monthsElapsed := int(math.Floor(float64(now.Sub(inv.Date)) / float64(accrualMonth)))
		if !math.IsNaN(monthlyRent) && !math.IsInf(monthlyRent, 0) && monthsElapsed > 0 {
			position.MonthlyRent = monthlyRent
			position.MonthsElapsed = monthsElapsed
			position.EarnedRent = monthlyRent * float64(monthsElapsed)
			report.EarnedRent += position.EarnedRent
			report.PendingRent += monthlyRent
		}

		report.TotalInvested += inv.Amount
		report.CurrentValue += position.CurrentValue

		if inv.Status == models.InvestmentStatusFinish {
			report.Completed.Count++
			report.Completed.Amount += inv.Amount
		} else {
			report.Processing.Count++
			report.Processing.Amount += inv.Amount
		}

		position.ShareRatio = math.Round(position.ShareRatio*1e6) / 1e6
		position.CurrentValue = round2(position.CurrentValue)
		position.MonthlyRent = round2(position.MonthlyRent)
		position.EarnedRent = round2(position.EarnedRent)
		report.Positions = append(report.Positions, position)
	}

	report.ValueChange = NewChange(report.CurrentValue, report.TotalInvested).rounded()
	report.TotalInvested = round2(report.TotalInvested)
	report.CurrentValue = round2(report.CurrentValue)
	report.EarnedRent = round2(report.EarnedRent)
	report.PendingRent = round2(report.PendingRent)
	report.Completed.Amount = round2(report.Completed.Amount)
	report.Processing.Amount = round2(report.Processing.Amount)

	return report
}
