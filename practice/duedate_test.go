package practice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harperreed/taxdesk/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name  string
		svc   models.Service
		today time.Time
		want  time.Time
	}{
		{"monthly next month", models.Service{Frequency: "Monthly", DueDay: 10}, date(2025, 5, 20), date(2025, 6, 10)},
		{"monthly december wraps", models.Service{Frequency: "Monthly", DueDay: 10}, date(2025, 12, 3), date(2026, 1, 10)},
		{"monthly clamps short month", models.Service{Frequency: "Monthly", DueDay: 31}, date(2025, 1, 31), date(2025, 2, 28)},
		{"monthly default day", models.Service{Frequency: "monthly"}, date(2025, 1, 5), date(2025, 2, 15)},
		{"quarterly", models.Service{Frequency: "Quarterly"}, date(2025, 1, 15), date(2025, 2, 14)},
		{"one-time", models.Service{Frequency: "One-Time"}, date(2025, 12, 20), date(2026, 1, 4)},
		{"annual individual", models.Service{Name: "1040 Return", Frequency: "Annually", DueDay: 15}, date(2025, 2, 1), date(2025, 4, 15)},
		{"annual s-corp", models.Service{Name: "1120-S Return", Frequency: "Annually", DueDay: 15}, date(2025, 2, 1), date(2025, 3, 15)},
		{"annual partnership", models.Service{Name: "Partnership 1065", Frequency: "Annually", DueDay: 15}, date(2025, 2, 1), date(2025, 3, 15)},
		{"annual on deadline stays", models.Service{Name: "1040", Frequency: "Annually", DueDay: 15}, date(2025, 4, 15), date(2025, 4, 15)},
		{"annual rolls over", models.Service{Name: "1040", Frequency: "Annually", DueDay: 15}, date(2025, 4, 16), date(2026, 4, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rules.NextDueDate(tt.svc, tt.today)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextDueDateUnknownFrequency(t *testing.T) {
	_, ok := DefaultRules().NextDueDate(models.Service{Frequency: "Fortnightly"}, date(2025, 1, 1))
	assert.False(t, ok)
}

func TestNextDueDateIgnoresTimeOfDay(t *testing.T) {
	svc := models.Service{Frequency: "Quarterly"}
	morning, _ := DefaultRules().NextDueDate(svc, time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC))
	evening, _ := DefaultRules().NextDueDate(svc, time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, morning, evening)
}

func TestAnnualMonthConfigurable(t *testing.T) {
	rules := Rules{
		Annual:             []AnnualRule{{Keywords: []string{"990"}, Month: time.May}},
		DefaultAnnualMonth: time.April,
	}
	assert.Equal(t, time.May, rules.AnnualMonth("Form 990 nonprofit"))
	assert.Equal(t, time.April, rules.AnnualMonth("S-Corp return"))
	assert.Equal(t, time.March, DefaultRules().AnnualMonth("s-corp return"))
	assert.Equal(t, time.April, Rules{}.AnnualMonth("anything"))
}
