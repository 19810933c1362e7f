package service

import (
	"testing"
	"time"

	"daily-meals/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCalendar_CurrentMonth(t *testing.T) {
	rows := []model.Report{
		{ReportDate: "2024-05-03", Breakfast: 5, Lunch: 7, Dinner: 2},
		{ReportDate: "2024-05-09", Breakfast: 0, Lunch: 0, Dinner: 0},
	}
	cal := BuildCalendar("ANGOSTURA", "AYSEN", 2024, time.May, today, rows)

	assert.Equal(t, "ANGOSTURA", cal.Center)
	assert.Equal(t, "AYSEN", cal.Area)
	for _, svc := range Services {
		require.Len(t, cal.Row(svc), 31, "service %s", svc)
	}

	assert.Equal(t, Cell{Day: 1, State: DayUnrecorded, Label: "SI"}, cal.Breakfast[0])
	assert.Equal(t, Cell{Day: 3, State: DayRecorded, Value: 5, Label: "5"}, cal.Breakfast[2])
	assert.Equal(t, Cell{Day: 3, State: DayRecorded, Value: 7, Label: "7"}, cal.Lunch[2])
	assert.Equal(t, Cell{Day: 3, State: DayRecorded, Value: 2, Label: "2"}, cal.Dinner[2])

	// a recorded zero is not "sin información"
	assert.Equal(t, Cell{Day: 9, State: DayRecorded, Value: 0, Label: "0"}, cal.Lunch[8])

	// today itself is never future
	assert.Equal(t, DayUnrecorded, cal.Dinner[9].State)
	assert.Equal(t, Cell{Day: 11, State: DayFuture, Label: "-"}, cal.Dinner[10])
	assert.Equal(t, DayFuture, cal.Breakfast[30].State)
}

func TestBuildCalendar_PastAndFutureMonths(t *testing.T) {
	past := BuildCalendar("CUCHI", "AYSEN", 2024, time.April, today, nil)
	require.Len(t, past.Lunch, 30)
	for _, c := range past.Lunch {
		assert.Equal(t, DayUnrecorded, c.State, "day %d", c.Day)
	}

	// day 31 of a past year must not be confused with the current month
	lastYear := BuildCalendar("CUCHI", "AYSEN", 2023, time.December, today, nil)
	require.Len(t, lastYear.Dinner, 31)
	assert.Equal(t, DayUnrecorded, lastYear.Dinner[30].State)

	future := BuildCalendar("CUCHI", "AYSEN", 2024, time.June, today, []model.Report{{ReportDate: "2024-06-01", Breakfast: 3}})
	for _, c := range future.Breakfast {
		assert.Equal(t, DayFuture, c.State, "day %d", c.Day)
	}
}

func TestBuildCalendar_IgnoresRowsOutsideMonth(t *testing.T) {
	rows := []model.Report{
		{ReportDate: "2024-04-03", Breakfast: 1},
		{ReportDate: "2023-05-03", Breakfast: 2},
		{ReportDate: "garbage", Breakfast: 3},
	}
	cal := BuildCalendar("NORTE", "ARICA", 2024, time.May, today, rows)
	assert.Equal(t, DayUnrecorded, cal.Breakfast[2].State)
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2100, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysIn(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestMonthBounds_December(t *testing.T) {
	first, last := MonthBounds(time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-12-01", first.Format(DateLayout))
	assert.Equal(t, "2024-12-31", last.Format(DateLayout))
}

func TestUnlockFrom(t *testing.T) {
	assert.Equal(t, "", UnlockFrom(""))
	assert.Equal(t, "", UnlockFrom("not-a-date"))
	assert.Equal(t, "2024-03-01", UnlockFrom("2024-02-29"))
	assert.Equal(t, "2025-01-01", UnlockFrom("2024-12-31"))
}

func TestParseMonth(t *testing.T) {
	y, m, err := ParseMonth("", today)
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.May, m)

	y, m, err = ParseMonth("2023-12", today)
	require.NoError(t, err)
	assert.Equal(t, 2023, y)
	assert.Equal(t, time.December, m)

	_, _, err = ParseMonth("2023-13", today)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Mayo 2024", MonthLabel(2024, time.May))
	assert.Equal(t, "Diciembre 2023", MonthLabel(2023, time.December))
}

func TestNewCalendarView(t *testing.T) {
	v := newCalendarView(2024, time.May, today, "2024-05-05")
	assert.Equal(t, "Mayo 2024", v.Label)
	assert.Len(t, v.Days, 31)
	assert.Equal(t, 10, v.TodayDay)
	assert.Equal(t, "2024-05-06", v.UnlockFrom)
	assert.NotNil(t, v.Blocks)

	assert.Zero(t, newCalendarView(2024, time.April, today, "").TodayDay)
}

func TestParseService(t *testing.T) {
	svc, ok := ParseService("lunch")
	assert.True(t, ok)
	assert.Equal(t, Lunch, svc)

	_, ok = ParseService("almuerzo")
	assert.False(t, ok)
}
