package models

import (
	"strings"

	"github.com/paulmach/orb"
)

// PropertyFilters stores the listing filter settings
type PropertyFilters struct {
	MinPrice   *float64         `json:"min_price"`
	MaxPrice   *float64         `json:"max_price"`
	Categories []string         `json:"categories"`
	Statuses   []PropertyStatus `json:"statuses"`
	OwnerID    string           `json:"owner_id"`
	// Bounds restricts results to properties located inside the box
	Bounds *orb.Bound `json:"bounds,omitempty"`
}

// IsPropertyAllowed checks if a property matches the filter criteria
func (f *PropertyFilters) IsPropertyAllowed(property *Property) bool {
	if f == nil {
		return true // No filters means allow all
	}

	if f.MinPrice != nil && property.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && property.Price > *f.MaxPrice {
		return false
	}

	if f.OwnerID != "" && property.OwnerID != f.OwnerID {
		return false
	}

	if len(f.Statuses) > 0 {
		allowed := false
		for _, status := range f.Statuses {
			if status == property.Status {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	// Any shared category is enough
	if len(f.Categories) > 0 {
		allowed := false
		for _, wanted := range f.Categories {
			for _, have := range property.Categories {
				if strings.EqualFold(wanted, have) {
					allowed = true
					break
				}
			}
		}
		if !allowed {
			return false
		}
	}

	if f.Bounds != nil {
		if property.Latitude == nil || property.Longitude == nil {
			return false // Filter requires a location but property has none
		}
		if !f.Bounds.Contains(orb.Point{*property.Longitude, *property.Latitude}) {
			return false
		}
	}

	return true
}
