package models

import "time"

// PropertyAggregate caches derived statistics for one property. It is rebuilt or
// adjusted in response to domain events and is never the source of truth.
type PropertyAggregate struct {
	PropertyID            string    `gorm:"primaryKey;size:36" json:"property_id"`
	Yield                 float64   `gorm:"not null;default:0" json:"yield"`
	TotalInvestmentAmount float64   `gorm:"not null;default:0" json:"total_investment_amount"`
	TotalEstimatedReturns float64   `gorm:"not null;default:0" json:"total_estimated_returns"`
	NumberOfInvestors     int64     `gorm:"not null;default:0" json:"number_of_investors"`
	OverallRating         float64   `gorm:"not null;default:0" json:"overall_rating"`
	RatingCount           int64     `gorm:"not null;default:0" json:"rating_count"`
	VisitCount            int64     `gorm:"not null;default:0" json:"visit_count"`
	UpdatedAt             time.Time `json:"updated_at"`
}
