package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// Change compares a figure against the previous period.
type Change struct {
	Current    float64 `json:"current"`
	Previous   float64 `json:"previous"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// NewChange reports current - previous and the relative change in percent.
// The percentage is 0 when there is no positive previous value to compare with.
func NewChange(current, previous float64) Change {
	c := Change{
		Current:  current,
		Previous: previous,
		Amount:   current - previous,
	}
	if previous > 0 {
		c.Percentage = (current - previous) / previous * 100
	}
	return c
}

func (c Change) rounded() Change {
	return Change{
		Current:    round2(c.Current),
		Previous:   round2(c.Previous),
		Amount:     round2(c.Amount),
		Percentage: round2(c.Percentage),
	}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
