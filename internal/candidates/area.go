package candidates

import (
	"context"
	"strings"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

// Catalogue is the slice of the store an AreaSource reads from.
type Catalogue interface {
	RestaurantsByArea(ctx context.Context, area string) ([]domain.Candidate, error)
}

// AreaSource serves decks from the locally saved restaurant catalogue.
type AreaSource struct {
	cat Catalogue
}

func NewAreaSource(cat Catalogue) *AreaSource {
	return &AreaSource{cat: cat}
}

// Fetch returns open restaurants in area first, then closed ones. A
// vegetarian query keeps only places that list a vegetarian food type.
func (s *AreaSource) Fetch(ctx context.Context, area, query string, limit int) ([]domain.Candidate, error) {
	all, err := s.cat.RestaurantsByArea(ctx, area)
	if err != nil {
		return nil, err
	}
	veg := strings.Contains(strings.ToLower(query), "vegetarian")

	var open, closed []domain.Candidate
	for _, c := range all {
		if veg && !servesVegetarian(c) {
			continue
		}
		if c.IsOpen {
			open = append(open, c)
		} else {
			closed = append(closed, c)
		}
	}
	out := append(open, closed...)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func servesVegetarian(c domain.Candidate) bool {
	for _, t := range c.FoodTypes {
		if strings.Contains(strings.ToLower(t), "vegetarian") {
			return true
		}
	}
	return false
}

// Chain asks each fetcher in order and returns the first non-empty answer.
// Errors are collected only when every source came back empty.
type Chain []Fetcher

func (c Chain) Fetch(ctx context.Context, area, query string, limit int) ([]domain.Candidate, error) {
	var errs []error
	for _, f := range c {
		got, err := f.Fetch(ctx, area, query, limit)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(got) > 0 {
			return got, nil
		}
	}
	return nil, multierr.Combine(errs...)
}
