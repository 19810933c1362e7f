package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"daily-meals/internal/config"
	"daily-meals/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DirectoryService owns the identity allow-list: email → {center, area}.
type DirectoryService struct {
	db     *gorm.DB
	hidden []string
}

func NewDirectoryService(db *gorm.DB, cfg config.DirectoryConfig) *DirectoryService {
	hidden := append([]string{config.AdminCenter}, cfg.HiddenCenters...)
	return &DirectoryService{db: db, hidden: hidden}
}

// Seed inserts the configured centers and admins, leaving existing rows
// untouched, and creates the empty lock row.
func (s *DirectoryService) Seed(ctx context.Context, cfg config.DirectoryConfig) error {
	var rows []model.Identity
	for _, c := range cfg.Centers {
		rows = append(rows, model.Identity{Email: config.NormalizeEmail(c.Email), Center: c.Center, Area: c.Area})
	}
	for _, a := range cfg.Admins {
		rows = append(rows, model.Identity{Email: config.NormalizeEmail(a), Center: config.AdminCenter, Area: config.AdminArea})
	}

	db := s.db.WithContext(ctx)
	if len(rows) > 0 {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("seed identities: %w", err)
		}
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Setting{Key: model.SettingLockUntil, Value: ""}).Error
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// Lookup finds an identity by email. A nil identity with nil error means the
// email is not on the allow-list.
func (s *DirectoryService) Lookup(ctx context.Context, email string) (*model.Identity, error) {
	var ident model.Identity
	err := s.db.WithContext(ctx).Where("email = ?", config.NormalizeEmail(email)).First(&ident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("lookup identity", err)
	}
	return &ident, nil
}

// Centers returns the distinct reporting centers (hidden ones excluded) with
// their area, ordered by center name. An empty area means all areas.
func (s *DirectoryService) Centers(ctx context.Context, area string) ([]model.Identity, error) {
	q := s.db.WithContext(ctx).Where("center NOT IN ?", s.hidden)
	if area != "" {
		q = q.Where("area = ?", area)
	}
	var idents []model.Identity
	if err := q.Order("center").Order("id").Find(&idents).Error; err != nil {
		return nil, storeError("list centers", err)
	}

	seen := map[string]bool{}
	var out []model.Identity
	for _, ident := range idents {
		if seen[ident.Center] {
			continue
		}
		seen[ident.Center] = true
		out = append(out, ident)
	}
	return out, nil
}

// Areas lists every area that has at least one reporting center.
func (s *DirectoryService) Areas(ctx context.Context) ([]string, error) {
	var areas []string
	err := s.db.WithContext(ctx).Model(&model.Identity{}).
		Where("center NOT IN ?", s.hidden).
		Distinct("area").Pluck("area", &areas).Error
	if err != nil {
		return nil, storeError("list areas", err)
	}
	sort.Strings(areas)
	return areas, nil
}

// IdentityForCenter resolves the identity whose reports belong to center.
func (s *DirectoryService) IdentityForCenter(ctx context.Context, center string) (*model.Identity, error) {
	var ident model.Identity
	err := s.db.WithContext(ctx).
		Where("center = ? AND center <> ?", center, config.AdminCenter).
		Order("id").First(&ident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Error{Code: CodeNotConfigured, Msg: fmt.Sprintf("center %q has no identity/area mapping", center)}
	}
	if err != nil {
		return nil, storeError("lookup center", err)
	}
	return &ident, nil
}

func (s *DirectoryService) All(ctx context.Context) ([]model.Identity, error) {
	var idents []model.Identity
	if err := s.db.WithContext(ctx).Order("id").Find(&idents).Error; err != nil {
		return nil, storeError("list identities", err)
	}
	return idents, nil
}
