package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"flyra-backend/internal/auth"
	"flyra-backend/internal/repository"
)

var (
	ErrLinkNotFound         = errors.New("link not found")
	ErrNotPasswordProtected = errors.New("link is not password protected")
	ErrIncorrectPassword    = errors.New("incorrect password")
)

// PasswordVerifier resolves the real destination of a password-gated link
// after a successful challenge.
type PasswordVerifier struct {
	storage   repository.Storage
	passwords *auth.PasswordService
	log       *zap.Logger
}

func NewPasswordVerifier(storage repository.Storage, passwords *auth.PasswordService, log *zap.Logger) *PasswordVerifier {
	return &PasswordVerifier{
		storage:   storage,
		passwords: passwords,
		log:       log,
	}
}

// Verify checks a candidate password and returns the destination URL on a
// match. It always reads the durable store: password hashes are never
// trusted from the cache layer, and the freshest hash must win.
func (v *PasswordVerifier) Verify(ctx context.Context, slug, candidate string) (string, error) {
	rec, err := v.storage.GetLink(ctx, slug)
	if errors.Is(err, repository.ErrSlugNotFound) {
		return "", ErrLinkNotFound
	}
	if err != nil {
		v.log.Error("store lookup failed during verify", zap.String("slug", slug), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !rec.IsPasswordProtected() {
		return "", ErrNotPasswordProtected
	}

	if err := v.passwords.VerifyPassword(*rec.PasswordHash, candidate); err != nil {
		v.log.Debug("password mismatch", zap.String("slug", slug))
		return "", ErrIncorrectPassword
	}

	return rec.OriginalURL, nil
}
