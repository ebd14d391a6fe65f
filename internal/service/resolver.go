package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"flyra-backend/internal/cache"
	"flyra-backend/internal/domain"
	"flyra-backend/internal/repository"
	"flyra-backend/pkg/useragent"
)

// ErrStoreUnavailable is the only resolution failure that surfaces to the
// caller as a server error. Everything else resolves to a defined outcome.
var ErrStoreUnavailable = errors.New("durable store unavailable")

const cacheFillTimeout = 5 * time.Second

// OutcomeKind discriminates the ResolutionOutcome variants.
type OutcomeKind int

const (
	OutcomeNotFound OutcomeKind = iota
	OutcomeRedirect
	OutcomePasswordChallenge
)

// ResolutionOutcome is what a slug resolves to. URL is set only for
// OutcomeRedirect.
type ResolutionOutcome struct {
	Kind OutcomeKind
	URL  string
	Slug string
}

// Resolver is the slug resolution engine: cache-aside reads against the
// durable store, policy evaluation, click accounting and one-time deletion.
type Resolver struct {
	storage  repository.Storage
	cache    cache.Cache
	log      *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
	fills    sync.WaitGroup
}

// NewResolver creates a resolution engine. cacheTTL bounds how stale a
// cached snapshot may get; zero falls back to one hour.
func NewResolver(storage repository.Storage, c cache.Cache, log *zap.Logger, cacheTTL time.Duration) *Resolver {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Resolver{
		storage:  storage,
		cache:    c,
		log:      log,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Resolve decides what happens for a slug: a redirect, a password challenge,
// or not-found.
//
// The cache path serves the snapshot as-is and never mutates durable state;
// click counts in the cache are knowingly stale within the TTL window. The
// store path enforces lazy expiry, decrements click budgets atomically,
// deletes one-time links, and repopulates the cache asynchronously with the
// pre-mutation snapshot.
func (r *Resolver) Resolve(ctx context.Context, slug, userAgent string) (ResolutionOutcome, error) {
	now := r.now()
	rctx := domain.ResolveContext{
		Hour:     now.Hour(),
		Platform: useragent.Platform(userAgent),
	}
	notFound := ResolutionOutcome{Kind: OutcomeNotFound, Slug: slug}

	if rec, ok := r.fromCache(ctx, slug); ok {
		// Time expiry is a pure wall-clock check, so it applies to cached
		// snapshots too. Click budgets are store state and deliberately not
		// re-checked here.
		if rec.IsExpired(now) {
			return notFound, nil
		}
		return r.outcomeFor(rec, rctx), nil
	}

	rec, err := r.storage.GetLink(ctx, slug)
	if errors.Is(err, repository.ErrSlugNotFound) {
		return notFound, nil
	}
	if err != nil {
		r.log.Error("store lookup failed", zap.String("slug", slug), zap.Error(err))
		return ResolutionOutcome{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Lazy expiry: no deletion, the record just stops resolving.
	if rec.IsExpired(now) {
		return notFound, nil
	}

	// Evaluate before mutating so a malformed record fails closed without
	// burning a click.
	outcome := r.outcomeFor(rec, rctx)
	if outcome.Kind == OutcomeNotFound {
		return outcome, nil
	}

	if rec.ExpirationPolicy == domain.ExpirationAfterClicks {
		if !rec.HasClicksRemaining() {
			return notFound, nil
		}
		err := r.storage.DecrementClicks(ctx, slug)
		switch {
		case errors.Is(err, repository.ErrClicksExhausted), errors.Is(err, repository.ErrSlugNotFound):
			// Lost the race for the last click.
			return notFound, nil
		case err != nil:
			r.log.Error("click decrement failed", zap.String("slug", slug), zap.Error(err))
			return ResolutionOutcome{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	// The cache always receives the snapshot as read, never post-mutation
	// state: a cached one-time link must stay visible for the TTL, and
	// cached reads must not re-trigger decrements.
	r.fillCache(slug, rec)

	if rec.IsOneTimeUse {
		err := r.storage.DeleteLink(ctx, slug)
		if err != nil && !errors.Is(err, repository.ErrSlugNotFound) {
			r.log.Error("failed to delete one-time link", zap.String("slug", slug), zap.Error(err))
		}
	}

	return outcome, nil
}

// Wait blocks until all outstanding cache fills have finished. Called on
// shutdown so best-effort writes are not torn mid-flight.
func (r *Resolver) Wait() {
	r.fills.Wait()
}

// fromCache attempts the fast path. Backend failures and undecodable
// payloads both downgrade to a miss; neither may fail the resolution.
func (r *Resolver) fromCache(ctx context.Context, slug string) (*domain.LinkRecord, bool) {
	payload, err := r.cache.Get(ctx, cacheKey(slug))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false
	}
	if err != nil {
		r.log.Debug("cache unavailable, falling back to store", zap.String("slug", slug), zap.Error(err))
		return nil, false
	}

	var rec domain.LinkRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		r.log.Warn("undecodable cache payload, treating as miss", zap.String("slug", slug), zap.Error(err))
		return nil, false
	}
	return &rec, true
}

// fillCache writes the snapshot under the configured TTL, fire-and-forget
// relative to the response. Failures are logged, never surfaced.
func (r *Resolver) fillCache(slug string, rec *domain.LinkRecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		r.log.Warn("failed to encode record for cache", zap.String("slug", slug), zap.Error(err))
		return
	}

	r.fills.Add(1)
	go func() {
		defer r.fills.Done()

		ctx, cancel := context.WithTimeout(context.Background(), cacheFillTimeout)
		defer cancel()

		err := retry.Do(
			func() error {
				return r.cache.Set(ctx, cacheKey(slug), payload, r.cacheTTL)
			},
			retry.Attempts(3),
			retry.Delay(50*time.Millisecond),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			r.log.Warn("cache fill failed", zap.String("slug", slug), zap.Error(err))
		}
	}()
}

func (r *Resolver) outcomeFor(rec *domain.LinkRecord, rctx domain.ResolveContext) ResolutionOutcome {
	dest, err := rec.DestinationFor(rctx)
	if err != nil {
		// Data-integrity problem, not a user error: log it, fail closed.
		r.log.Warn("malformed link record", zap.String("slug", rec.Slug), zap.Error(err))
		return ResolutionOutcome{Kind: OutcomeNotFound, Slug: rec.Slug}
	}
	if dest.RequiresPassword {
		return ResolutionOutcome{Kind: OutcomePasswordChallenge, Slug: rec.Slug}
	}
	return ResolutionOutcome{Kind: OutcomeRedirect, URL: dest.URL, Slug: rec.Slug}
}

func cacheKey(slug string) string {
	return "link:" + slug
}
