package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flyra-backend/internal/domain"
	"flyra-backend/internal/repository"
)

func record(slug string, clicks *int64) *domain.LinkRecord {
	rec := &domain.LinkRecord{
		Slug:             slug,
		OriginalURL:      "https://example.com",
		ExpirationPolicy: domain.ExpirationNever,
	}
	if clicks != nil {
		rec.ExpirationPolicy = domain.ExpirationAfterClicks
		rec.ClicksRemaining = clicks
	}
	return rec
}

func int64Ptr(v int64) *int64 { return &v }

func TestMemStorage_SaveAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveLink(ctx, record("a", nil)))
	assert.ErrorIs(t, s.SaveLink(ctx, record("a", nil)), repository.ErrSlugExists)

	got, err := s.GetLink(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.OriginalURL)

	_, err = s.GetLink(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrSlugNotFound)

	exists, err := s.SlugExists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.SlugExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemStorage_GetReturnsSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveLink(ctx, record("a", int64Ptr(2))))

	before, err := s.GetLink(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, s.DecrementClicks(ctx, "a"))

	// The earlier read must not observe the later write
	assert.Equal(t, int64(2), *before.ClicksRemaining)

	after, err := s.GetLink(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), *after.ClicksRemaining)
}

func TestMemStorage_DecrementClicksFloor(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveLink(ctx, record("a", int64Ptr(1))))

	require.NoError(t, s.DecrementClicks(ctx, "a"))
	assert.ErrorIs(t, s.DecrementClicks(ctx, "a"), repository.ErrClicksExhausted)

	got, err := s.GetLink(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), *got.ClicksRemaining)

	assert.ErrorIs(t, s.DecrementClicks(ctx, "missing"), repository.ErrSlugNotFound)

	// No counter at all counts as exhausted
	require.NoError(t, s.SaveLink(ctx, record("b", nil)))
	assert.ErrorIs(t, s.DecrementClicks(ctx, "b"), repository.ErrClicksExhausted)
}

func TestMemStorage_DeleteLink(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveLink(ctx, record("a", nil)))
	require.NoError(t, s.DeleteLink(ctx, "a"))
	assert.ErrorIs(t, s.DeleteLink(ctx, "a"), repository.ErrSlugNotFound)

	_, err := s.GetLink(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrSlugNotFound)
}
