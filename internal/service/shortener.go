package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"flyra-backend/internal/auth"
	"flyra-backend/internal/cache"
	"flyra-backend/internal/config"
	"flyra-backend/internal/domain"
	"flyra-backend/internal/repository"
)

const (
	maxSlugRetries = 5
	slugAlphabet   = "1234567890abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	ErrInvalidSlug       = errors.New("invalid custom slug")
	ErrReservedSlug      = errors.New("slug is reserved")
	ErrMissingExpiration = errors.New("expiration value is required for the chosen policy")
)

// Custom slugs allow letters, digits, emoji (the Unicode symbol class),
// hyphen and underscore.
var slugPattern = regexp.MustCompile(`^[\p{L}\p{N}\p{So}_-]+$`)

// Slugs that would shadow service routes.
var reservedSlugs = map[string]bool{
	"api":    true,
	"health": true,
	"ready":  true,
	"admin":  true,
	"static": true,
}

// CreateLinkInput carries the creation-side options of a link.
type CreateLinkInput struct {
	URL              string
	CustomSlug       string
	ExpirationPolicy domain.ExpirationPolicy
	ClicksLimit      int64
	ExpiresAt        *time.Time
	Password         string
	IsOneTimeUse     bool

	IsDynamicLink      bool
	DynamicLinkOptions domain.DynamicLinkOptions

	IsAppStoreLink bool
	AppStoreLinks  domain.AppStoreLinks
}

// ShortenerService creates and deletes link records.
type ShortenerService struct {
	storage   repository.Storage
	cache     cache.Cache
	passwords *auth.PasswordService
	config    *config.Shortener
	log       *zap.Logger
}

func NewShortener(storage repository.Storage, c cache.Cache, passwords *auth.PasswordService, cfg *config.Shortener, log *zap.Logger) *ShortenerService {
	return &ShortenerService{
		storage:   storage,
		cache:     c,
		passwords: passwords,
		config:    cfg,
		log:       log,
	}
}

// CreateLink validates the input, picks a slug and stores the record.
func (s *ShortenerService) CreateLink(ctx context.Context, input CreateLinkInput) (*domain.LinkRecord, error) {
	slug, err := s.pickSlug(ctx, input.CustomSlug)
	if err != nil {
		return nil, err
	}

	rec := &domain.LinkRecord{
		Slug:               slug,
		OriginalURL:        input.URL,
		CreatedAt:          time.Now(),
		ExpirationPolicy:   input.ExpirationPolicy,
		IsOneTimeUse:       input.IsOneTimeUse,
		IsDynamicLink:      input.IsDynamicLink,
		DynamicLinkOptions: input.DynamicLinkOptions,
		IsAppStoreLink:     input.IsAppStoreLink,
		AppStoreLinks:      input.AppStoreLinks,
	}

	switch input.ExpirationPolicy {
	case domain.ExpirationAfterClicks:
		clicks := input.ClicksLimit
		if clicks <= 0 {
			clicks = 1
		}
		rec.ClicksRemaining = &clicks
	case domain.ExpirationAfterTime:
		if input.ExpiresAt == nil {
			return nil, ErrMissingExpiration
		}
		rec.ExpiresAt = input.ExpiresAt
	case "":
		rec.ExpirationPolicy = domain.ExpirationNever
	}

	if input.Password != "" {
		hash, err := s.passwords.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		rec.PasswordHash = &hash
	}

	if err := s.storage.SaveLink(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info("created link",
		zap.String("slug", rec.Slug),
		zap.String("expiration_policy", string(rec.ExpirationPolicy)),
		zap.Bool("one_time_use", rec.IsOneTimeUse),
		zap.Bool("password_protected", rec.IsPasswordProtected()))

	return rec, nil
}

// DeleteLink removes a link and invalidates its cache entry.
func (s *ShortenerService) DeleteLink(ctx context.Context, slug string) error {
	if err := s.storage.DeleteLink(ctx, slug); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cacheKey(slug)); err != nil {
		s.log.Warn("failed to invalidate cache entry", zap.String("slug", slug), zap.Error(err))
	}
	return nil
}

// ShortURL renders the public URL for a slug.
func (s *ShortenerService) ShortURL(slug string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.BaseURL, "/"), slug)
}

func (s *ShortenerService) pickSlug(ctx context.Context, custom string) (string, error) {
	if custom != "" {
		if !slugPattern.MatchString(custom) {
			return "", ErrInvalidSlug
		}
		if reservedSlugs[strings.ToLower(custom)] {
			return "", ErrReservedSlug
		}
		exists, err := s.storage.SlugExists(ctx, custom)
		if err != nil {
			return "", fmt.Errorf("failed to check slug existence: %w", err)
		}
		if exists {
			return "", repository.ErrSlugExists
		}
		return custom, nil
	}

	for i := 0; i < maxSlugRetries; i++ {
		slug, err := gonanoid.Generate(slugAlphabet, s.config.SlugLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate slug: %w", err)
		}
		exists, err := s.storage.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug existence: %w", err)
		}
		if !exists {
			return slug, nil
		}
	}
	return "", fmt.Errorf("failed to find a free slug after %d attempts", maxSlugRetries)
}
