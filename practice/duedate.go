// ABOUTME: Due-date rules for recurring services
// ABOUTME: Computes the next deadline per frequency with a configurable annual month map
package practice

import (
	"strings"
	"time"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

// Fixed offsets for frequencies without a calendar rule. Quarterly is an
// approximation, not quarter-end.
const (
	quarterlyOffsetDays = 30
	oneTimeOffsetDays   = 15
)

// AnnualRule maps service names containing any keyword to a deadline month.
type AnnualRule struct {
	Keywords []string
	Month    time.Month
}

// Rules configures due-date computation.
type Rules struct {
	Annual             []AnnualRule
	DefaultAnnualMonth time.Month
	DefaultDueDay      int
}

// DefaultRules sends partnership and S-corp returns to March and everything
// else to April.
func DefaultRules() Rules {
	return Rules{
		Annual: []AnnualRule{
			{Keywords: []string{"1120-S", "1065", "Partnership", "S-Corp"}, Month: time.March},
		},
		DefaultAnnualMonth: time.April,
		DefaultDueDay:      db.DefaultDueDay,
	}
}

// AnnualMonth returns the deadline month for a service name. Keyword matching
// is case-insensitive and the first matching rule wins.
func (r Rules) AnnualMonth(serviceName string) time.Month {
	name := strings.ToLower(serviceName)
	for _, rule := range r.Annual {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
				return rule.Month
			}
		}
	}
	if r.DefaultAnnualMonth == 0 {
		return time.April
	}
	return r.DefaultAnnualMonth
}

func (r Rules) dueDay(svc models.Service) int {
	if svc.DueDay >= 1 && svc.DueDay <= 31 {
		return svc.DueDay
	}
	if r.DefaultDueDay >= 1 && r.DefaultDueDay <= 31 {
		return r.DefaultDueDay
	}
	return db.DefaultDueDay
}

// Civil truncates t to its calendar date at UTC midnight.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDueDate computes the candidate deadline for svc as seen on today.
// Unknown frequencies report false.
func (r Rules) NextDueDate(svc models.Service, today time.Time) (time.Time, bool) {
	today = Civil(today)

	switch strings.ToLower(strings.TrimSpace(svc.Frequency)) {
	case strings.ToLower(models.FrequencyMonthly):
		// Day 1 of next month, then clamp the due day to that month.
		next := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		return dateClamped(next.Year(), next.Month(), r.dueDay(svc)), true

	case strings.ToLower(models.FrequencyQuarterly):
		return today.AddDate(0, 0, quarterlyOffsetDays), true

	case strings.ToLower(models.FrequencyAnnually), "annual", "yearly":
		month := r.AnnualMonth(svc.Name)
		due := dateClamped(today.Year(), month, r.dueDay(svc))
		if today.After(due) {
			due = dateClamped(today.Year()+1, month, r.dueDay(svc))
		}
		return due, true

	case strings.ToLower(models.FrequencyOneTime), "one time", "onetime":
		return today.AddDate(0, 0, oneTimeOffsetDays), true
	}

	return time.Time{}, false
}

func dateClamped(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
