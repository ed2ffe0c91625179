package models

import (
	"time"

	"gorm.io/datatypes"
)

// PropertyStatus is the listing lifecycle of a property.
type PropertyStatus string

const (
	PropertyStatusDraft       PropertyStatus = "draft"
	PropertyStatusUnderReview PropertyStatus = "under_review"
	PropertyStatusPublished   PropertyStatus = "published"
	PropertyStatusSold        PropertyStatus = "sold"
)

var propertyStatusOrder = map[PropertyStatus]int{
	PropertyStatusDraft:       0,
	PropertyStatusUnderReview: 1,
	PropertyStatusPublished:   2,
	PropertyStatusSold:        3,
}

// IsValid reports whether s is a known property status.
func (s PropertyStatus) IsValid() bool {
	_, ok := propertyStatusOrder[s]
	return ok
}

// CanTransitionTo reports whether a property may move from s to next.
// Properties only move forward through the lifecycle, one step at a time.
func (s PropertyStatus) CanTransitionTo(next PropertyStatus) bool {
	from, ok := propertyStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := propertyStatusOrder[next]
	if !ok {
		return false
	}
	return to == from+1
}

type Property struct {
	ID           string                      `gorm:"primaryKey;size:36" json:"id"`
	OwnerID      string                      `gorm:"size:64;index;not null" json:"owner_id"`
	Title        string                      `gorm:"not null" json:"title"`
	Categories   datatypes.JSONSlice[string] `json:"categories"`
	Price        float64                     `gorm:"type:decimal(15,2);not null;default:0" json:"price"`
	TIG          float64                     `gorm:"column:tig;type:decimal(15,2);not null;default:0" json:"tig"`
	MIA          float64                     `gorm:"column:mia;type:decimal(15,2);not null;default:0" json:"mia"`
	ListingStart *time.Time                  `json:"listing_start,omitempty"`
	ListingEnd   *time.Time                  `json:"listing_end,omitempty"`
	Status       PropertyStatus              `gorm:"size:32;index;not null;default:'draft'" json:"status"`
	Latitude     *float64                    `json:"latitude"`
	Longitude    *float64                    `json:"longitude"`
	CreatedAt    time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`

	Aggregate  *PropertyAggregate `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"aggregate,omitempty"`
	Tokenomics *Tokenomics        `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"tokenomics,omitempty"`
}

// Tokenomics describes the token supply backing a property. Only the supply figures
// feed the aggregate engine, through the investor share ratio.
type Tokenomics struct {
	PropertyID       string    `gorm:"primaryKey;size:36" json:"property_id"`
	TotalTokenSupply float64   `gorm:"not null;default:0" json:"total_token_supply"`
	RemainingTokens  float64   `gorm:"not null;default:0" json:"remaining_tokens"`
	TokenPrice       float64   `gorm:"type:decimal(15,2);not null;default:0" json:"token_price"`
	Team             float64   `gorm:"not null;default:0" json:"team"`
	Advisors         float64   `gorm:"not null;default:0" json:"advisors"`
	Investors        float64   `gorm:"not null;default:0" json:"investors"`
	Other            float64   `gorm:"not null;default:0" json:"other"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Tokenomics) TableName() string {
	return "tokenomics"
}

// DistributionTotal returns the sum of the percentage distribution.
func (t *Tokenomics) DistributionTotal() float64 {
	return t.Team + t.Advisors + t.Investors + t.Other
}
