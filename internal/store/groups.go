package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

func (s *Store) LoadGroup(ctx context.Context, id string) (domain.Group, error) {
	var g domain.Group
	err := s.db.WithContext(ctx).First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	return g, err
}

// SaveGroup upserts g. Last write wins.
func (s *Store) SaveGroup(ctx context.Context, g domain.Group) error {
	return s.db.WithContext(ctx).Save(&g).Error
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&domain.Group{}, "id = ?", id).Error
}

// ListGroups returns groups by name. A non-empty memberID keeps only groups
// that list that member.
func (s *Store) ListGroups(ctx context.Context, memberID string) ([]domain.Group, error) {
	var all []domain.Group
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	if memberID == "" {
		return all, nil
	}
	out := all[:0]
	for _, g := range all {
		if _, ok := domain.FindMember(g.Members, memberID); ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// CreateGroup stores a new group with its creator as the only member. The
// creator is therefore the fallback host.
func (s *Store) CreateGroup(ctx context.Context, g domain.Group, creator domain.Member) (domain.Group, error) {
	if g.SwipingAmount <= 0 {
		g.SwipingAmount = domain.DefaultSwipingAmount
	}
	g.Members = []domain.Member{creator}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func (s *Store) SaveSelectionResult(ctx context.Context, r domain.SelectionResult) error {
	return s.db.WithContext(ctx).Create(&r).Error
}

// LoadResults returns history newest first. An empty groupID returns all.
func (s *Store) LoadResults(ctx context.Context, groupID string) ([]domain.SelectionResult, error) {
	q := s.db.WithContext(ctx).Order("timestamp DESC")
	if groupID != "" {
		q = q.Where("group_id = ?", groupID)
	}
	var out []domain.SelectionResult
	return out, q.Find(&out).Error
}
