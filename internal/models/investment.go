package models

import "time"

type InvestmentStatus string

const (
	InvestmentStatusPresale        InvestmentStatus = "presale"
	InvestmentStatusInitialRelease InvestmentStatus = "initial_release"
	InvestmentStatusVesting        InvestmentStatus = "vesting"
	InvestmentStatusFinish         InvestmentStatus = "finish"
	InvestmentStatusPending        InvestmentStatus = "pending"
	InvestmentStatusCancel         InvestmentStatus = "cancel"
)

// InvestmentStatuses lists every known status.
var InvestmentStatuses = []InvestmentStatus{
	InvestmentStatusPresale,
	InvestmentStatusInitialRelease,
	InvestmentStatusVesting,
	InvestmentStatusFinish,
	InvestmentStatusPending,
	InvestmentStatusCancel,
}

func (s InvestmentStatus) IsValid() bool {
	for _, known := range InvestmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Investment is the financial record of an investor buying shares of a property.
// Only finished investments count toward yield and return totals.
type Investment struct {
	ID               string           `gorm:"primaryKey;size:36" json:"id"`
	PropertyID       string           `gorm:"size:36;index;not null" json:"property_id"`
	InvestorID       string           `gorm:"size:64;index;not null" json:"investor_id"`
	Amount           float64          `gorm:"type:decimal(15,2);not null" json:"amount"`
	Date             time.Time        `gorm:"index;not null" json:"date"`
	SharesAssigned   float64          `gorm:"not null;default:0" json:"shares_assigned"`
	EstimatedReturns float64          `gorm:"type:decimal(15,2);not null;default:0" json:"estimated_returns"`
	Status           InvestmentStatus `gorm:"size:32;index;not null;default:'pending'" json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"-"`
}
