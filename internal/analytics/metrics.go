// Package analytics builds dashboard reports straight from the raw investment
// and property records.
package analytics

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brickfund/internal/database"
	"brickfund/internal/models"
)

// Scope selects whose records a metrics report covers and which investment
// statuses qualify.
type Scope struct {
	InvestorID string
	Statuses   []models.InvestmentStatus
}

// PlatformScope covers every investor and counts finished investments only.
func PlatformScope() Scope {
	return Scope{Statuses: []models.InvestmentStatus{models.InvestmentStatusFinish}}
}

// InvestorScope covers one investor and counts every status except cancel.
func InvestorScope(investorID string) Scope {
	statuses := make([]models.InvestmentStatus, 0, len(models.InvestmentStatuses))
	for _, status := range models.InvestmentStatuses {
		if status != models.InvestmentStatusCancel {
			statuses = append(statuses, status)
		}
	}
	return Scope{InvestorID: investorID, Statuses: statuses}
}

func (s Scope) IsPlatform() bool {
	return s.InvestorID == ""
}

func (s Scope) name() string {
	if s.IsPlatform() {
		return "platform"
	}
	return "investor"
}

type BucketPoint struct {
	Label  string    `json:"label"`
	Start  time.Time `json:"start"`
	Amount float64   `json:"amount"`
	Count  int       `json:"count"`
}

type MetricsReport struct {
	Period     Period        `json:"period"`
	Scope      string        `json:"scope"`
	InvestorID string        `json:"investor_id,omitempty"`
	Current    Window        `json:"current"`
	Previous   Window        `json:"previous"`
	Series     []BucketPoint `json:"series"`

	Revenue     Change `json:"revenue"`
	Investments Change `json:"investments"`
	// For an investor, the properties first invested in during the window
	NewListings  Change `json:"new_listings"`
	NewOwners    Change `json:"new_owners"`
	NewInvestors Change `json:"new_investors"`
}

type Engine struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewEngine(db *gorm.DB, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Engine{db: db, logger: logger}
}

type sample struct {
	at    time.Time
	value float64
}

// Metrics groups the qualifying investments of scope into calendar buckets over
// the window ending at anchor and compares each headline figure with the
// preceding window. Platform and investor reports share this one algorithm.
func (e *Engine) Metrics(ctx context.Context, period Period, anchor time.Time, scope Scope) (*MetricsReport, error) {
	anchor = anchor.UTC()
	current, previous := period.Windows(anchor)
	db := e.db.WithContext(ctx)

	investments, err := database.InvestmentsBetween(db, previous.Start, anchor, scope.InvestorID, scope.Statuses)
	if err != nil {
		return nil, err
	}

	amounts := make([]sample, len(investments))
	for i, inv := range investments {
		amounts[i] = sample{at: inv.Date, value: inv.Amount}
	}

	report := &MetricsReport{
		Period:      period,
		Scope:       scope.name(),
		InvestorID:  scope.InvestorID,
		Current:     current,
		Previous:    previous,
		Series:      bucketize(period, current, amounts),
		Revenue:     compareSums(amounts, current, previous),
		Investments: compareCounts(amounts, current, previous),
	}

	if scope.IsPlatform() {
		firstInvestments, err := database.FirstInvestmentDates(db, database.GroupByInvestor, previous.Start, anchor, "", scope.Statuses)
		if err != nil {
			return nil, err
		}
		report.NewInvestors = compareCounts(occurrences(firstInvestments), current, previous)

		listings, err := database.PropertiesCreatedBetween(db, previous.Start, anchor)
		if err != nil {
			return nil, err
		}
		report.NewListings = compareCounts(occurrences(listings), current, previous)

		firstListings, err := database.FirstListingDates(db, previous.Start, anchor)
		if err != nil {
			return nil, err
		}
		report.NewOwners = compareCounts(occurrences(firstListings), current, previous)
	} else {
		firstInvestments, err := database.FirstInvestmentDates(db, database.GroupByProperty, previous.Start, anchor, scope.InvestorID, scope.Statuses)
		if err != nil {
			return nil, err
		}
		report.NewListings = compareCounts(occurrences(firstInvestments), current, previous)
	}

	report.Revenue = report.Revenue.rounded()
	report.Investments = report.Investments.rounded()
	report.NewListings = report.NewListings.rounded()
	report.NewOwners = report.NewOwners.rounded()
	report.NewInvestors = report.NewInvestors.rounded()

	e.logger.WithFields(logrus.Fields{
		"period":      period,
		"scope":       report.Scope,
		"investor_id": scope.InvestorID,
		"buckets":     len(report.Series),
	}).Debug("Built metrics report")

	return report, nil
}

// bucketize sums the samples inside w per calendar bucket, oldest bucket first.
func bucketize(period Period, w Window, samples []sample) []BucketPoint {
	buckets := make(map[int64]*BucketPoint)
	for _, s := range samples {
		if !w.Contains(s.at) {
			continue
		}
		start := period.Truncate(s.at.In(w.End.Location()))
		key := start.Unix()
		bucket, ok := buckets[key]
		if !ok {
			bucket = &BucketPoint{Label: period.Label(start), Start: start}
			buckets[key] = bucket
		}
		bucket.Amount += s.value
		bucket.Count++
	}

	series := make([]BucketPoint, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.Amount = round2(bucket.Amount)
		series = append(series, *bucket)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Start.Before(series[j].Start)
	})
	return series
}

func totals(samples []sample, w Window) (sum float64, count int) {
	for _, s := range samples {
		if w.Contains(s.at) {
			sum += s.value
			count++
		}
	}
	return sum, count
}

func compareSums(samples []sample, current, previous Window) Change {
	cur, _ := totals(samples, current)
	prev, _ := totals(samples, previous)
	return NewChange(cur, prev)
}

func compareCounts(samples []sample, current, previous Window) Change {
	_, cur := totals(samples, current)
	_, prev := totals(samples, previous)
	return NewChange(float64(cur), float64(prev))
}

// occurrences turns event times into unit samples.
func occurrences(times []time.Time) []sample {
	samples := make([]sample, len(times))
	for i, t := range times {
		samples[i] = sample{at: t, value: 1}
	}
	return samples
}
