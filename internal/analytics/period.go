package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Weeks start on Monday, matching ISO week numbering.
var calendar = &now.Config{WeekStartDay: time.Monday}

// Period selects the bucket size and window length of a metrics report.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod accepts day, week or month in any case. An empty string means month.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodDay:
		return PeriodDay, nil
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth, "":
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Window is the half-open interval (Start, End].
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return t.After(w.Start) && !t.After(w.End)
}

// Windows returns the window ending at anchor and the equal-length window
// immediately before it: 30 days for day, 84 days for week, 12 months for month.
func (p Period) Windows(anchor time.Time) (current, previous Window) {
	var start, prevStart time.Time
	switch p {
	case PeriodDay:
		start, prevStart = anchor.AddDate(0, 0, -30), anchor.AddDate(0, 0, -60)
	case PeriodWeek:
		start, prevStart = anchor.AddDate(0, 0, -84), anchor.AddDate(0, 0, -168)
	default:
		start, prevStart = anchor.AddDate(0, -12, 0), anchor.AddDate(0, -24, 0)
	}
	return Window{Start: start, End: anchor}, Window{Start: prevStart, End: start}
}

// Truncate returns the start of the calendar bucket holding t, in t's location.
func (p Period) Truncate(t time.Time) time.Time {
	c := calendar.With(t)
	switch p {
	case PeriodDay:
		return c.BeginningOfDay()
	case PeriodWeek:
		return c.BeginningOfWeek()
	default:
		return c.BeginningOfMonth()
	}
}

// Label names the bucket starting at t.
func (p Period) Label(t time.Time) string {
	switch p {
	case PeriodDay:
		return t.Format("2006-01-02")
	case PeriodWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return t.Format("2006-01")
	}
}
