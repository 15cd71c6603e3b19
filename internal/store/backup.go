package store

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

// Backup is the dump document. Restore only replaces sections that are
// present, so a nil slice means "leave alone".
type Backup struct {
	Restaurants *[]domain.Candidate       `json:"restaurants,omitempty"`
	Areas       *[]string                 `json:"areas,omitempty"`
	Groups      *[]domain.Group           `json:"groups,omitempty"`
	Saved       *[]domain.Candidate       `json:"saved,omitempty"`
	Results     *[]domain.SelectionResult `json:"results,omitempty"`
}

func (s *Store) Dump(ctx context.Context) ([]byte, error) {
	restaurants, err := s.Restaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump restaurants: %w", err)
	}
	areas, err := s.Areas(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump areas: %w", err)
	}
	groups, err := s.ListGroups(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("dump groups: %w", err)
	}
	saved, err := s.SavedRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump saved: %w", err)
	}
	results, err := s.LoadResults(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("dump results: %w", err)
	}

	return json.MarshalIndent(Backup{
		Restaurants: &restaurants,
		Areas:       &areas,
		Groups:      &groups,
		Saved:       &saved,
		Results:     &results,
	}, "", "  ")
}

// Restore replaces every section present in data in one transaction. If data
// does not parse nothing is written and ErrCorruptBackup is returned.
func (s *Store) Restore(ctx context.Context, data []byte) error {
	var b *Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptBackup, err)
	}
	if b == nil {
		return ErrCorruptBackup
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if b.Restaurants != nil {
			rows := make([]restaurant, len(*b.Restaurants))
			for i, c := range *b.Restaurants {
				rows[i] = restaurant{Candidate: c}
			}
			if err := replaceAll(tx, &restaurant{}, rows); err != nil {
				return fmt.Errorf("restore restaurants: %w", err)
			}
		}
		if b.Areas != nil {
			rows := make([]area, 0, len(*b.Areas))
			seen := make(map[string]bool)
			for _, name := range *b.Areas {
				if name != "" && !seen[name] {
					seen[name] = true
					rows = append(rows, area{Name: name})
				}
			}
			if err := replaceAll(tx, &area{}, rows); err != nil {
				return fmt.Errorf("restore areas: %w", err)
			}
		}
		if b.Groups != nil {
			if err := replaceAll(tx, &domain.Group{}, *b.Groups); err != nil {
				return fmt.Errorf("restore groups: %w", err)
			}
		}
		if b.Saved != nil {
			rows := make([]savedRestaurant, len(*b.Saved))
			for i, c := range *b.Saved {
				rows[i] = savedRestaurant{Candidate: c}
			}
			if err := replaceAll(tx, &savedRestaurant{}, rows); err != nil {
				return fmt.Errorf("restore saved: %w", err)
			}
		}
		if b.Results != nil {
			if err := replaceAll(tx, &domain.SelectionResult{}, *b.Results); err != nil {
				return fmt.Errorf("restore results: %w", err)
			}
		}
		return nil
	})
}

func replaceAll[T any](tx *gorm.DB, model any, rows []T) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 100).Error
}
