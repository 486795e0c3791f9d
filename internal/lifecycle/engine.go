// Package lifecycle implements the post lifecycle engine: expiry countdown,
// like-driven life extension, and the expiry sweep.
package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"pulse/internal/clock"
	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

// extendRetries bounds the optimistic-lock retry loop for a single like.
const extendRetries = 3

// ExtensionResult describes the outcome of a granted life extension.
type ExtensionResult struct {
	PostID                  uint      `json:"post_id"`
	ExpiresAt               time.Time `json:"expires_at"`
	LifeSecondsRemaining    int       `json:"life_seconds_remaining"`
	TotalLifeSecondsReached int       `json:"total_life_seconds_reached"`
}

// Engine owns every mutation of a post's lifecycle state. All time comes
// from the injected clock.
type Engine struct {
	posts            repository.PostRepository
	clock            clock.Clock
	initialLife      time.Duration
	extension        time.Duration
	extensionSeconds int
}

// NewEngine creates a lifecycle engine with the given life parameters.
func NewEngine(posts repository.PostRepository, clk clock.Clock, initialLifeSeconds, extensionSeconds int) *Engine {
	return &Engine{
		posts:            posts,
		clock:            clk,
		initialLife:      time.Duration(initialLifeSeconds) * time.Second,
		extension:        time.Duration(extensionSeconds) * time.Second,
		extensionSeconds: extensionSeconds,
	}
}

// InitLifecycle stamps a freshly built post with its lifecycle fields.
// ExpiresAt is set here and never set again; afterwards it only grows.
func (e *Engine) InitLifecycle(post *models.Post) {
	now := e.clock.Now()
	life := e.initialLife
	if post.InitialLifeSeconds > 0 {
		life = time.Duration(post.InitialLifeSeconds) * time.Second
	} else {
		post.InitialLifeSeconds = int(e.initialLife / time.Second)
	}
	post.CreatedAt = now
	post.ExpiresAt = now.Add(life)
	post.IsExpired = false
	post.LifeSecondsRemaining = int(life / time.Second)
	post.TotalLifeSecondsReached = 0
}

// ExpiryDue reports whether the post's deadline has passed on the engine's
// clock, independent of the sweeper having flagged it.
func (e *Engine) ExpiryDue(post *models.Post) bool {
	return post.ExpiredAt(e.clock.Now())
}

// ExtendOnLike grants the like extension: expires_at moves to
// max(expires_at, now) + extension and the like counter increments, in one
// atomic step. The post argument is updated in place on success.
//
// The write is an optimistic compare-and-set on (is_expired, expires_at).
// Losing the race to another like re-reads and retries; losing it to the
// sweeper returns PostExpired. Life already granted is never revoked, so a
// later unlike leaves expires_at untouched.
func (e *Engine) ExtendOnLike(ctx context.Context, post *models.Post) (*ExtensionResult, error) {
	for attempt := 0; attempt < extendRetries; attempt++ {
		if post.IsExpired {
			return nil, models.NewPostExpiredError(post.ID)
		}

		now := e.clock.Now()
		base := post.ExpiresAt
		if now.After(base) {
			base = now
		}
		newExpiresAt := base.Add(e.extension)
		remaining := int(newExpiresAt.Sub(now) / time.Second)

		ok, err := e.posts.ExtendExpiry(ctx, post.ID, post.ExpiresAt, newExpiresAt, remaining, e.extensionSeconds)
		if err != nil {
			return nil, err
		}
		if ok {
			post.ExpiresAt = newExpiresAt
			post.LifeSecondsRemaining = remaining
			post.TotalLifeSecondsReached += e.extensionSeconds
			post.LikesCount++
			observability.ExtensionsGrantedTotal.Inc()
			return &ExtensionResult{
				PostID:                  post.ID,
				ExpiresAt:               post.ExpiresAt,
				LifeSecondsRemaining:    post.LifeSecondsRemaining,
				TotalLifeSecondsReached: post.TotalLifeSecondsReached,
			}, nil
		}

		// Conflict: someone moved expires_at or the sweeper claimed the
		// post. Re-read and decide again from the fresh snapshot.
		observability.ExtensionConflictsTotal.Inc()
		fresh, err := e.posts.GetByID(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		*post = *fresh
	}

	return nil, models.NewConflictError("Post is being updated concurrently, try again")
}

// Sweep transitions every post past its deadline to expired and returns the
// posts this call claimed. A post already flagged is never claimed twice;
// concurrent sweeps split the batch between them without overlap.
func (e *Engine) Sweep(ctx context.Context) ([]*models.Post, error) {
	now := e.clock.Now()
	candidates, err := e.posts.ExpiryCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	var claimed []*models.Post
	for _, post := range candidates {
		if err := ctx.Err(); err != nil {
			return claimed, err
		}
		ok, err := e.posts.ClaimExpiry(ctx, post.ID, now)
		if err != nil {
			observability.Logger.ErrorContext(ctx, "expiry claim failed",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("error", err.Error()))
			continue
		}
		if !ok {
			// Either another sweeper got here first or a like moved the
			// deadline after the candidate read. Both mean hands off.
			continue
		}
		// Re-read so the expire notification carries the final counters,
		// not the pre-claim snapshot.
		if fresh, err := e.posts.GetByID(ctx, post.ID); err == nil {
			post = fresh
		} else {
			observability.Logger.WarnContext(ctx, "post re-read after expiry claim failed",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("error", err.Error()))
		}
		post.IsExpired = true
		post.LifeSecondsRemaining = 0
		observability.PostsExpiredTotal.Inc()
		claimed = append(claimed, post)
	}
	return claimed, nil
}

// SweepExpiring claims posts entering their final threshold window so the
// expiring-soon warning fires once per post. Candidates are read within
// window; each author's own threshold (via thresholdFor, nil means use the
// window for everyone) decides whether their post is claimed yet. A post
// whose author's threshold has not been reached stays a candidate for a
// later sweep.
func (e *Engine) SweepExpiring(ctx context.Context, window time.Duration, thresholdFor func(context.Context, uint) time.Duration) ([]*models.Post, error) {
	now := e.clock.Now()
	candidates, err := e.posts.ExpiryWarnCandidates(ctx, now, window)
	if err != nil {
		return nil, err
	}

	var claimed []*models.Post
	for _, post := range candidates {
		if err := ctx.Err(); err != nil {
			return claimed, err
		}
		threshold := window
		if thresholdFor != nil {
			threshold = thresholdFor(ctx, post.AuthorID)
		}
		if threshold <= 0 || post.ExpiresAt.Sub(now) > threshold {
			continue
		}
		ok, err := e.posts.ClaimExpiryWarn(ctx, post.ID)
		if err != nil {
			observability.Logger.ErrorContext(ctx, "expiry warn claim failed",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("error", err.Error()))
			continue
		}
		if ok {
			claimed = append(claimed, post)
		}
	}
	return claimed, nil
}
