package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"flyra-backend/internal/domain"
	"flyra-backend/internal/repository"
)

func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("flyra_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.LinkRecord{}))

	return New(db, zap.NewNop())
}

func TestPostgresStorage_SaveGetDelete(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	hash := "$2a$10$abcdefghijklmnopqrstuv"
	expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	rec := &domain.LinkRecord{
		Slug:             "full",
		OriginalURL:      "https://example.com",
		ExpirationPolicy: domain.ExpirationAfterTime,
		ExpiresAt:        &expiresAt,
		PasswordHash:     &hash,
		IsDynamicLink:    true,
		DynamicLinkOptions: domain.DynamicLinkOptions{
			Day:   "https://d",
			Night: "https://n",
		},
	}

	require.NoError(t, s.SaveLink(ctx, rec))
	assert.ErrorIs(t, s.SaveLink(ctx, &domain.LinkRecord{Slug: "full"}), repository.ErrSlugExists)

	got, err := s.GetLink(ctx, "full")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.OriginalURL)
	assert.Equal(t, domain.ExpirationAfterTime, got.ExpirationPolicy)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(expiresAt))
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, hash, *got.PasswordHash)
	assert.True(t, got.IsDynamicLink)
	assert.Equal(t, "https://d", got.DynamicLinkOptions.Day)
	assert.Equal(t, "https://n", got.DynamicLinkOptions.Night)

	exists, err := s.SlugExists(ctx, "full")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteLink(ctx, "full"))
	assert.ErrorIs(t, s.DeleteLink(ctx, "full"), repository.ErrSlugNotFound)
	_, err = s.GetLink(ctx, "full")
	assert.ErrorIs(t, err, repository.ErrSlugNotFound)
}

func TestPostgresStorage_GetLinkNotFound(t *testing.T) {
	s := setupStorage(t)
	_, err := s.GetLink(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrSlugNotFound)
}

func TestPostgresStorage_DecrementClicks(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	clicks := int64(2)
	rec := &domain.LinkRecord{
		Slug:             "counted",
		OriginalURL:      "https://example.com",
		ExpirationPolicy: domain.ExpirationAfterClicks,
		ClicksRemaining:  &clicks,
	}
	require.NoError(t, s.SaveLink(ctx, rec))

	require.NoError(t, s.DecrementClicks(ctx, "counted"))
	require.NoError(t, s.DecrementClicks(ctx, "counted"))
	assert.ErrorIs(t, s.DecrementClicks(ctx, "counted"), repository.ErrClicksExhausted)

	got, err := s.GetLink(ctx, "counted")
	require.NoError(t, err)
	require.NotNil(t, got.ClicksRemaining)
	assert.Equal(t, int64(0), *got.ClicksRemaining, "the conditional update must not go below zero")

	assert.ErrorIs(t, s.DecrementClicks(ctx, "missing"), repository.ErrClicksExhausted)
}

func TestPostgresStorage_EmojiSlugRoundTrip(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	rec := &domain.LinkRecord{
		Slug:             "🔥🔥",
		OriginalURL:      "https://example.com",
		ExpirationPolicy: domain.ExpirationNever,
	}
	require.NoError(t, s.SaveLink(ctx, rec))

	got, err := s.GetLink(ctx, "🔥🔥")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.OriginalURL)
}
