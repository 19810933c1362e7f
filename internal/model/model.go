package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusSubmitted = "enviado"

	SettingLockUntil = "lock_until"
)

type Identity struct {
	ID     int    `gorm:"primaryKey" json:"id"`
	Email  string `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Center string `gorm:"size:100;not null;index" json:"center"`
	Area   string `gorm:"size:100;not null;index" json:"area"`
}

// Report holds one day of meal counts for one identity. Email and ReportDate
// form the unique key; Total is derived and never set by callers.
type Report struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	IdentityID int       `gorm:"not null" json:"identity_id"`
	Email      string    `gorm:"size:191;not null;uniqueIndex:uk_email_date,priority:1" json:"email"`
	Center     string    `gorm:"size:100;not null;index" json:"center"`
	Area       string    `gorm:"size:100;not null;index" json:"area"`
	ReportDate string    `gorm:"type:varchar(10);not null;uniqueIndex:uk_email_date,priority:2;index" json:"date"`
	Breakfast  int       `gorm:"not null" json:"breakfast"`
	Lunch      int       `gorm:"not null" json:"lunch"`
	Dinner     int       `gorm:"not null" json:"dinner"`
	Total      int       `gorm:"not null" json:"total"`
	Status     string    `gorm:"size:20;not null;default:enviado" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	r.Total = r.Breakfast + r.Lunch + r.Dinner
	if r.Status == "" {
		r.Status = StatusSubmitted
	}
	return nil
}

type Setting struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:255;not null;default:''"`
}

func (Identity) TableName() string { return "users" }
func (Report) TableName() string   { return "reports" }
func (Setting) TableName() string  { return "settings" }

// All lists every persisted entity for AutoMigrate.
func All() []any {
	return []any{&Identity{}, &Report{}, &Setting{}}
}
