package service

import (
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	MonthLayout     = "2006-01"
	TimestampLayout = "2006-01-02 15:04:05"
)

// ParseDate accepts a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
}

func validDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// MonthBounds returns the first and last day of t's month. time.Date
// normalizes month 13 into January of the next year.
func MonthBounds(t time.Time) (first, last time.Time) {
	first = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last = time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
	return first, last
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// UnlockFrom is the first date accepted again under the given cutoff, or ""
// when the cutoff is empty or unreadable.
func UnlockFrom(cutoff string) string {
	if cutoff == "" {
		return ""
	}
	d, err := ParseDate(cutoff)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, 1).Format(DateLayout)
}

// ParseMonth reads YYYY-MM; an empty string means the month containing now.
func ParseMonth(s string, now time.Time) (int, time.Month, error) {
	if strings.TrimSpace(s) == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, validationError("month must be YYYY-MM")
	}
	return t.Year(), t.Month(), nil
}

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

func MonthLabel(year int, month time.Month) string {
	return monthNames[month-1] + " " + strconv.Itoa(year)
}
