// Package store is the device-local replica: groups, history, the restaurant
// catalogue and the local profile, kept in sqlite or postgres through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

var (
	ErrCorruptBackup = errors.New("backup data is corrupt")
	ErrUnknownDriver = errors.New("unknown database driver")
	ErrEmptyAreaName = errors.New("area name must not be empty")
)

// restaurant rows are the catalogue; savedRestaurant rows are bookmarks that
// keep their own copy of the record.
type restaurant struct {
	domain.Candidate
}

func (restaurant) TableName() string { return "restaurants" }

type savedRestaurant struct {
	domain.Candidate
	SavedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (savedRestaurant) TableName() string { return "saved_restaurants" }

type area struct {
	Name      string `gorm:"primaryKey"`
	CreatedAt time.Time
}

type profile struct {
	Slot string `gorm:"primaryKey"`
	ID   string
	Name string
}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects with driver ("sqlite" or "postgres") and migrates the schema.
func Open(driver, dsn string, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	log = log.Named("store")
	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := db.AutoMigrate(
		&domain.Group{},
		&domain.SelectionResult{},
		&restaurant{},
		&savedRestaurant{},
		&area{},
		&profile{},
	); err != nil {
		err = fmt.Errorf("migrate: %w", err)
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			err = multierr.Append(err, sqlDB.Close())
		}
		return nil, err
	}

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Seed fills an empty catalogue with items and makes sure every area they
// mention exists.
func (s *Store) Seed(ctx context.Context, items []domain.Candidate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&restaurant{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		seen := make(map[string]bool)
		for _, c := range items {
			if err := tx.Create(&restaurant{Candidate: c}).Error; err != nil {
				return err
			}
			if c.Area != "" && !seen[c.Area] {
				seen[c.Area] = true
				if err := tx.Save(&area{Name: c.Area}).Error; err != nil {
					return err
				}
			}
		}
		s.log.Info("catalogue seeded", zap.Int("restaurants", len(items)), zap.Int("areas", len(seen)))
		return nil
	})
}

// gormLogger routes gorm's query log through zap.
type gormLogger struct {
	log   *zap.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(log *zap.Logger) *gormLogger {
	return &gormLogger{log: log, level: logger.Warn, slow: 200 * time.Millisecond}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.Sugar().Infof(msg, args...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.Sugar().Warnf(msg, args...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.Sugar().Errorf(msg, args...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		l.log.Warn("query failed", zap.Error(err), zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	case elapsed > l.slow && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.Warn("slow query", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.Debug("query", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	}
}
