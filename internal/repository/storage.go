package repository

import (
	"context"
	"errors"

	"flyra-backend/internal/domain"
)

var (
	ErrSlugNotFound    = errors.New("slug not found")
	ErrSlugExists      = errors.New("slug already exists")
	ErrClicksExhausted = errors.New("no clicks remaining")
)

// Storage is the durable record store, keyed by exact slug string.
type Storage interface {
	SaveLink(ctx context.Context, link *domain.LinkRecord) error
	GetLink(ctx context.Context, slug string) (*domain.LinkRecord, error)
	DeleteLink(ctx context.Context, slug string) error
	SlugExists(ctx context.Context, slug string) (bool, error)

	// DecrementClicks atomically decrements clicks_remaining by one, but only
	// while it is still positive. Returns ErrClicksExhausted when the floor
	// was hit, so concurrent resolutions can never grant an extra redirect.
	DecrementClicks(ctx context.Context, slug string) error
}
