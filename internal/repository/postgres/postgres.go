package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"flyra-backend/internal/domain"
	"flyra-backend/internal/repository"
)

// PostgresStorage implements the Storage interface for PostgreSQL.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a new PostgreSQL storage instance.
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// SaveLink stores a new link record.
func (s *PostgresStorage) SaveLink(ctx context.Context, link *domain.LinkRecord) error {
	var existing domain.LinkRecord
	err := s.db.WithContext(ctx).Where("slug = ?", link.Slug).First(&existing).Error
	if err == nil {
		return repository.ErrSlugExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("failed to check slug existence", zap.String("slug", link.Slug), zap.Error(err))
		return fmt.Errorf("failed to check slug: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		s.log.Error("failed to save link", zap.String("slug", link.Slug), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("saved new link", zap.String("slug", link.Slug))
	return nil
}

// GetLink fetches a link record by slug. Lazy expiry is the engine's job,
// so expired records are returned as stored.
func (s *PostgresStorage) GetLink(ctx context.Context, slug string) (*domain.LinkRecord, error) {
	var link domain.LinkRecord

	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrSlugNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// DeleteLink removes a link record. Missing records report ErrSlugNotFound,
// which callers racing on one-time-use deletion treat as success.
func (s *PostgresStorage) DeleteLink(ctx context.Context, slug string) error {
	result := s.db.WithContext(ctx).Where("slug = ?", slug).Delete(&domain.LinkRecord{})
	if result.Error != nil {
		s.log.Error("failed to delete link", zap.String("slug", slug), zap.Error(result.Error))
		return fmt.Errorf("failed to delete link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrSlugNotFound
	}

	s.log.Info("deleted link", zap.String("slug", slug))
	return nil
}

// SlugExists checks whether a slug is already taken.
func (s *PostgresStorage) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.LinkRecord{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check slug existence", zap.String("slug", slug), zap.Error(err))
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// DecrementClicks decrements clicks_remaining in a single conditional UPDATE.
// The WHERE clause is the floor: two concurrent resolutions of a one-click
// link cannot both succeed, the loser sees zero rows affected.
func (s *PostgresStorage) DecrementClicks(ctx context.Context, slug string) error {
	result := s.db.WithContext(ctx).
		Model(&domain.LinkRecord{}).
		Where("slug = ? AND clicks_remaining > 0", slug).
		UpdateColumn("clicks_remaining", gorm.Expr("clicks_remaining - 1"))
	if result.Error != nil {
		s.log.Error("failed to decrement clicks", zap.String("slug", slug), zap.Error(result.Error))
		return fmt.Errorf("failed to decrement clicks: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrClicksExhausted
	}
	return nil
}
