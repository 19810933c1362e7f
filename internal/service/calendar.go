package service

import (
	"strconv"
	"time"

	"daily-meals/internal/model"
)

type DayState string

const (
	DayFuture     DayState = "FUTURE"
	DayUnrecorded DayState = "UNRECORDED"
	DayRecorded   DayState = "RECORDED"

	futureLabel     = "-"
	unrecordedLabel = "SI" // sin información
)

type Service string

const (
	Breakfast Service = "breakfast"
	Lunch     Service = "lunch"
	Dinner    Service = "dinner"
)

var Services = []Service{Breakfast, Lunch, Dinner}

func ParseService(s string) (Service, bool) {
	for _, svc := range Services {
		if string(svc) == s {
			return svc, true
		}
	}
	return "", false
}

func (s Service) count(r *model.Report) int {
	switch s {
	case Breakfast:
		return r.Breakfast
	case Lunch:
		return r.Lunch
	default:
		return r.Dinner
	}
}

type Cell struct {
	Day   int      `json:"day"`
	State DayState `json:"state"`
	Value int      `json:"value"`
	Label string   `json:"label"`
}

type CenterCalendar struct {
	Center    string `json:"center"`
	Area      string `json:"area"`
	Breakfast []Cell `json:"breakfast"`
	Lunch     []Cell `json:"lunch"`
	Dinner    []Cell `json:"dinner"`
}

// Row returns the cells of one service line.
func (c *CenterCalendar) Row(s Service) []Cell {
	switch s {
	case Breakfast:
		return c.Breakfast
	case Lunch:
		return c.Lunch
	default:
		return c.Dinner
	}
}

// CalendarView is a month of calendars plus the header shown above it.
type CalendarView struct {
	Label      string           `json:"label"`
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Days       []int            `json:"days"`
	TodayDay   int              `json:"today_day"` // 0 when today is outside the month
	LockUntil  string           `json:"lock_until"`
	UnlockFrom string           `json:"unlock_from"`
	Blocks     []CenterCalendar `json:"blocks"`
}

func newCalendarView(year int, month time.Month, today time.Time, lockUntil string) CalendarView {
	n := DaysIn(year, month)
	days := make([]int, n)
	for i := range days {
		days[i] = i + 1
	}
	v := CalendarView{
		Label:      MonthLabel(year, month),
		Year:       year,
		Month:      int(month),
		Days:       days,
		LockUntil:  lockUntil,
		UnlockFrom: UnlockFrom(lockUntil),
		Blocks:     []CenterCalendar{},
	}
	if today.Year() == year && today.Month() == month {
		v.TodayDay = today.Day()
	}
	return v
}

// BuildCalendar turns a center's sparse report rows for one month into a
// dense grid: one cell per day for each service. Rows outside the month are
// ignored. A day after today is FUTURE, a day with a row is RECORDED, any
// other day is UNRECORDED.
func BuildCalendar(center, area string, year int, month time.Month, today time.Time, rows []model.Report) CenterCalendar {
	byDay := make(map[int]*model.Report, len(rows))
	for i := range rows {
		d, err := ParseDate(rows[i].ReportDate)
		if err != nil || d.Year() != year || d.Month() != month {
			continue
		}
		byDay[d.Day()] = &rows[i]
	}

	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	n := DaysIn(year, month)
	cal := CenterCalendar{Center: center, Area: area}
	for _, svc := range Services {
		cells := make([]Cell, n)
		for day := 1; day <= n; day++ {
			cells[day-1] = classify(svc, day, time.Date(year, month, day, 0, 0, 0, 0, time.UTC).After(todayDate), byDay[day])
		}
		switch svc {
		case Breakfast:
			cal.Breakfast = cells
		case Lunch:
			cal.Lunch = cells
		case Dinner:
			cal.Dinner = cells
		}
	}
	return cal
}

func classify(svc Service, day int, future bool, r *model.Report) Cell {
	switch {
	case future:
		return Cell{Day: day, State: DayFuture, Label: futureLabel}
	case r != nil:
		v := svc.count(r)
		return Cell{Day: day, State: DayRecorded, Value: v, Label: strconv.Itoa(v)}
	default:
		return Cell{Day: day, State: DayUnrecorded, Label: unrecordedLabel}
	}
}
