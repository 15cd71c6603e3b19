package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

const selfSlot = "self"

// Profile returns this device's identity, creating it on first use.
func (s *Store) Profile(ctx context.Context) (domain.Member, error) {
	var p profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&p, "slot = ?", selfSlot).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p = profile{
			Slot: selfSlot,
			ID:   uuid.NewString(),
			Name: fmt.Sprintf("User %d", rand.IntN(1000)),
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return domain.Member{}, err
	}
	return domain.Member{ID: p.ID, Name: p.Name}, nil
}

func (s *Store) RenameProfile(ctx context.Context, name string) (domain.Member, error) {
	name = domain.CleanName(name)
	if name == "" {
		return domain.Member{}, domain.ErrEmptyName
	}
	self, err := s.Profile(ctx)
	if err != nil {
		return domain.Member{}, err
	}
	self.Name = name
	err = s.db.WithContext(ctx).Model(&profile{}).Where("slot = ?", selfSlot).Update("name", name).Error
	return self, err
}
