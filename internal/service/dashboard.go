package service

import (
	"context"
	"time"

	"daily-meals/internal/model"
)

type DashboardFilter struct {
	Area   string `form:"area"`
	Center string `form:"center"`
	Month  string `form:"month"` // YYYY-MM, empty for the current month
}

type Dashboard struct {
	CalendarView
	Area          string   `json:"area"`
	Center        string   `json:"center"`
	Areas         []string `json:"areas"`
	CenterOptions []string `json:"center_options"`
}

type CenterDetail struct {
	CalendarView
	Reports []model.Report `json:"reports"`
}

// DashboardService assembles the admin month view. Centers always come from
// the directory so a center that never reported still gets a full row.
type DashboardService struct {
	dir     *DirectoryService
	reports *ReportService
	lock    *LockService
	now     func() time.Time
}

func NewDashboardService(dir *DirectoryService, reports *ReportService, lock *LockService) *DashboardService {
	return &DashboardService{dir: dir, reports: reports, lock: lock, now: time.Now}
}

func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

func (s *DashboardService) Build(ctx context.Context, f DashboardFilter) (*Dashboard, error) {
	today := s.now()
	year, month, err := ParseMonth(f.Month, today)
	if err != nil {
		return nil, err
	}
	cutoff, err := s.lock.Get(ctx)
	if err != nil {
		return nil, err
	}
	areas, err := s.dir.Areas(ctx)
	if err != nil {
		return nil, err
	}
	centers, err := s.dir.Centers(ctx, f.Area)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		CalendarView:  newCalendarView(year, month, today, cutoff),
		Area:          f.Area,
		Center:        f.Center,
		Areas:         areas,
		CenterOptions: []string{},
	}
	for _, c := range centers {
		d.CenterOptions = append(d.CenterOptions, c.Center)
	}
	for _, c := range centers {
		if f.Center != "" && c.Center != f.Center {
			continue
		}
		rows, err := s.reports.MonthByCenter(ctx, c.Center, year, month)
		if err != nil {
			return nil, err
		}
		d.Blocks = append(d.Blocks, BuildCalendar(c.Center, c.Area, year, month, today, rows))
	}
	return d, nil
}

// Center returns one center's calendar together with the rows behind it.
func (s *DashboardService) Center(ctx context.Context, center, monthParam string) (*CenterDetail, error) {
	today := s.now()
	year, month, err := ParseMonth(monthParam, today)
	if err != nil {
		return nil, err
	}
	ident, err := s.dir.IdentityForCenter(ctx, center)
	if err != nil {
		return nil, err
	}
	cutoff, err := s.lock.Get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.MonthByCenter(ctx, ident.Center, year, month)
	if err != nil {
		return nil, err
	}
	detail := &CenterDetail{CalendarView: newCalendarView(year, month, today, cutoff), Reports: rows}
	if detail.Reports == nil {
		detail.Reports = []model.Report{}
	}
	detail.Blocks = append(detail.Blocks, BuildCalendar(ident.Center, ident.Area, year, month, today, rows))
	return detail, nil
}
