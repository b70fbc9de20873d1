package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestWeekNumber(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want int
	}{
		{"monday mid-march", date(2025, time.March, 10), 11},
		{"friday same week", date(2025, time.March, 14), 11},
		{"sunday opens the next bucket", date(2025, time.March, 16), 12},
		{"next monday", date(2025, time.March, 17), 12},
		{"new year's day", date(2025, time.January, 1), 1},
		{"late december rolls into next year", date(2025, time.December, 29), 1},
		{"january belonging to previous year", date(2027, time.January, 1), 53},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekNumber(tt.in))
		})
	}
}

func TestWeekNumberStableAcrossWeekdays(t *testing.T) {
	// A bucket runs Sunday through Saturday: every day in that span maps
	// to the same Thursday.
	monday := date(2025, time.June, 2)
	want := WeekNumber(monday)
	for i := 1; i <= 5; i++ { // Tuesday..Saturday
		assert.Equal(t, want, WeekNumber(monday.AddDate(0, 0, i)),
			"offset %d", i)
	}
	assert.Equal(t, want, WeekNumber(monday.AddDate(0, 0, -1))) // preceding Sunday
	assert.NotEqual(t, want, WeekNumber(monday.AddDate(0, 0, 6))) // next Sunday
}

func TestOverrideLimitErrorMessage(t *testing.T) {
	err := &OverrideLimitError{Status: OverrideStatus{Count: 5, Limit: 5}}
	assert.Contains(t, err.Error(), "5/5")
}
