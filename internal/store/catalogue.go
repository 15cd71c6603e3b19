package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

func (s *Store) SaveRestaurant(ctx context.Context, c domain.Candidate) error {
	return s.db.WithContext(ctx).Save(&restaurant{Candidate: c}).Error
}

// DeleteRestaurant removes c from the catalogue and from the saved list.
func (s *Store) DeleteRestaurant(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&restaurant{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&savedRestaurant{}, "id = ?", id).Error
	})
}

func (s *Store) Restaurants(ctx context.Context) ([]domain.Candidate, error) {
	var rows []restaurant
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return unwrap(rows), nil
}

func (s *Store) RestaurantsByArea(ctx context.Context, area string) ([]domain.Candidate, error) {
	var rows []restaurant
	if err := s.db.WithContext(ctx).Where("area = ?", area).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return unwrap(rows), nil
}

func (s *Store) Areas(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&area{}).Order("name ASC").Pluck("name", &names).Error
	return names, err
}

func (s *Store) AddArea(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyAreaName
	}
	return s.db.WithContext(ctx).Save(&area{Name: name}).Error
}

// DeleteArea drops the area along with its restaurants and bookmarks.
func (s *Store) DeleteArea(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&area{}, "name = ?", name).Error; err != nil {
			return err
		}
		if err := tx.Delete(&restaurant{}, "area = ?", name).Error; err != nil {
			return err
		}
		return tx.Delete(&savedRestaurant{}, "area = ?", name).Error
	})
}

func (s *Store) SavedRestaurants(ctx context.Context) ([]domain.Candidate, error) {
	var rows []savedRestaurant
	if err := s.db.WithContext(ctx).Order("saved_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Candidate, len(rows))
	for i, r := range rows {
		out[i] = r.Candidate
	}
	return out, nil
}

func (s *Store) IsSaved(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&savedRestaurant{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// ToggleSaved bookmarks c, or removes the bookmark if present. It reports
// whether c is saved afterwards.
func (s *Store) ToggleSaved(ctx context.Context, c domain.Candidate) (bool, error) {
	saved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row savedRestaurant
		err := tx.First(&row, "id = ?", c.ID).Error
		switch {
		case err == nil:
			return tx.Delete(&savedRestaurant{}, "id = ?", c.ID).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = true
			return tx.Create(&savedRestaurant{Candidate: c}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}

func unwrap(rows []restaurant) []domain.Candidate {
	out := make([]domain.Candidate, len(rows))
	for i, r := range rows {
		out[i] = r.Candidate
	}
	return out
}
