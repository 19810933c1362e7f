package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"daily-meals/internal/model"

	"gorm.io/gorm"
)

type ReportService struct {
	db   *gorm.DB
	lock *LockService
	dir  *DirectoryService
	now  func() time.Time
}

func NewReportService(db *gorm.DB, lock *LockService, dir *DirectoryService) *ReportService {
	return &ReportService{db: db, lock: lock, dir: dir, now: time.Now}
}

// WithClock replaces the time source; tests pin "today" with it.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Submit records the first and only report of ident for in.Date. The unique
// index on (email, report_date) decides duplicates so two racing submissions
// cannot both succeed.
func (s *ReportService) Submit(ctx context.Context, ident *model.Identity, in model.SubmitRequest) (*model.Report, error) {
	date := strings.TrimSpace(in.Date)
	if date == "" {
		return nil, validationError("select a date")
	}
	if !validDate(date) {
		return nil, validationError("date must be YYYY-MM-DD")
	}

	cutoff, err := s.lock.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !Allows(cutoff, date) {
		return nil, lockedError(cutoff)
	}

	b, errB := parseCount(in.Breakfast)
	l, errL := parseCount(in.Lunch)
	d, errD := parseCount(in.Dinner)
	if errB != nil || errL != nil || errD != nil {
		return nil, validationError("invalid values, use whole numbers >= 0")
	}

	now := s.now()
	r := &model.Report{
		IdentityID: ident.ID,
		Email:      ident.Email,
		Center:     ident.Center,
		Area:       ident.Area,
		ReportDate: date,
		Breakfast:  b,
		Lunch:      l,
		Dinner:     d,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if isDuplicate(err) {
			return nil, &Error{Code: CodeDuplicate, Msg: "that day is already submitted, contact administration to correct it"}
		}
		return nil, storeError("insert report", err)
	}
	return r, nil
}

func parseCount(raw model.RawCount) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

// History lists every report of email, newest date first.
func (s *ReportService) History(ctx context.Context, email string) ([]model.Report, error) {
	var rows []model.Report
	err := s.db.WithContext(ctx).Where("email = ?", email).
		Order("report_date DESC").Find(&rows).Error
	if err != nil {
		return nil, storeError("query history", err)
	}
	return rows, nil
}

// MonthByEmail and MonthByCenter return the rows that feed one calendar.
func (s *ReportService) MonthByEmail(ctx context.Context, email string, year int, month time.Month) ([]model.Report, error) {
	return s.month(ctx, "email", email, year, month)
}

func (s *ReportService) MonthByCenter(ctx context.Context, center string, year int, month time.Month) ([]model.Report, error) {
	return s.month(ctx, "center", center, year, month)
}

func (s *ReportService) month(ctx context.Context, column, value string, year int, month time.Month) ([]model.Report, error) {
	first, last := MonthBounds(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	var rows []model.Report
	err := s.db.WithContext(ctx).
		Where(column+" = ? AND report_date BETWEEN ? AND ?", value, first.Format(DateLayout), last.Format(DateLayout)).
		Order("report_date").Find(&rows).Error
	if err != nil {
		return nil, storeError("query month", err)
	}
	return rows, nil
}

// Calendar builds the month grid for a single identity, used by the
// submission view.
func (s *ReportService) Calendar(ctx context.Context, ident *model.Identity, year int, month time.Month) (*CalendarView, error) {
	cutoff, err := s.lock.Get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.MonthByEmail(ctx, ident.Email, year, month)
	if err != nil {
		return nil, err
	}
	today := s.now()
	view := newCalendarView(year, month, today, cutoff)
	view.Blocks = append(view.Blocks, BuildCalendar(ident.Center, ident.Area, year, month, today, rows))
	return &view, nil
}

// EditCell is the administrative override: it writes one count of a
// center's report for date, creating the report with zero counts when none
// exists. The lock and the duplicate rule do not apply here.
func (s *ReportService) EditCell(ctx context.Context, center, date, field string, value int) (*model.Report, error) {
	svc, ok := ParseService(field)
	if !ok {
		return nil, validationError("field must be breakfast, lunch or dinner")
	}
	date = strings.TrimSpace(date)
	if !validDate(date) {
		return nil, validationError("date must be YYYY-MM-DD")
	}
	if value < 0 {
		return nil, validationError("value must be >= 0")
	}
	ident, err := s.dir.IdentityForCenter(ctx, center)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out model.Report
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated, err := s.overwrite(tx, ident.Email, date, svc, value, now)
		if err != nil {
			return err
		}
		if !updated {
			r := model.Report{
				IdentityID: ident.ID,
				Email:      ident.Email,
				Center:     ident.Center,
				Area:       ident.Area,
				ReportDate: date,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			setCount(&r, svc, value)
			if err := tx.SavePoint("edit_cell").Error; err != nil {
				return err
			}
			err := tx.Create(&r).Error
			if err != nil && !isDuplicate(err) {
				return err
			}
			if err != nil {
				// lost a race with a concurrent insert; postgres needs the
				// savepoint to keep using the transaction
				if err := tx.RollbackTo("edit_cell").Error; err != nil {
					return err
				}
				if _, err := s.overwrite(tx, ident.Email, date, svc, value, now); err != nil {
					return err
				}
			}
		}
		return tx.Where("email = ? AND report_date = ?", ident.Email, date).First(&out).Error
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, storeError("edit cell", err)
	}
	return &out, nil
}

// overwrite sets one count and recomputes total in a single statement. The
// other two columns are unchanged, so the expression reads the same values
// under every dialect's SET evaluation order.
func (s *ReportService) overwrite(tx *gorm.DB, email, date string, svc Service, value int, now time.Time) (bool, error) {
	res := tx.Model(&model.Report{}).
		Where("email = ? AND report_date = ?", email, date).
		Updates(map[string]any{
			string(svc):  value,
			"total":      gorm.Expr(totalExpr(svc), value),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func totalExpr(svc Service) string {
	switch svc {
	case Breakfast:
		return "? + lunch + dinner"
	case Lunch:
		return "breakfast + ? + dinner"
	default:
		return "breakfast + lunch + ?"
	}
}

func setCount(r *model.Report, svc Service, v int) {
	switch svc {
	case Breakfast:
		r.Breakfast = v
	case Lunch:
		r.Lunch = v
	case Dinner:
		r.Dinner = v
	}
}
