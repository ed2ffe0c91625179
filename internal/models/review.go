package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	PropertyID string    `gorm:"size:36;not null;uniqueIndex:idx_reviews_property_reviewer,priority:1" json:"property_id"`
	ReviewerID string    `gorm:"size:64;not null;uniqueIndex:idx_reviews_property_reviewer,priority:2" json:"reviewer_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"-"`
}

// ValidRating reports whether r is an acceptable star rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
