package service

import (
	"context"
	"errors"
	"strings"

	"daily-meals/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockService reads and writes the single lock_until cutoff. Reads always hit
// the store.
type LockService struct{ db *gorm.DB }

func NewLockService(db *gorm.DB) *LockService { return &LockService{db: db} }

func (s *LockService) Get(ctx context.Context) (string, error) {
	var st model.Setting
	err := s.db.WithContext(ctx).Where(&model.Setting{Key: model.SettingLockUntil}).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", storeError("read lock", err)
	}
	return strings.TrimSpace(st.Value), nil
}

// Set stores a new cutoff. An empty value clears the lock.
func (s *LockService) Set(ctx context.Context, cutoff string) error {
	cutoff = strings.TrimSpace(cutoff)
	if cutoff != "" && !validDate(cutoff) {
		return validationError("lock date must be YYYY-MM-DD")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.Setting{Key: model.SettingLockUntil, Value: cutoff}).Error
	if err != nil {
		return storeError("write lock", err)
	}
	return nil
}

func (s *LockService) Clear(ctx context.Context) error { return s.Set(ctx, "") }

// Allows reports whether a new submission for date passes the cutoff.
func Allows(cutoff, date string) bool {
	return cutoff == "" || date > cutoff
}
