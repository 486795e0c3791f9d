package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"pulse/internal/models"
	"pulse/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ExpiryNotifier receives the sweeper's lifecycle events and resolves each
// author's warning threshold. Implementations must not block the sweep;
// failures are logged and never roll back an expiry transition.
type ExpiryNotifier interface {
	PostExpired(ctx context.Context, post *models.Post) error
	PostExpiring(ctx context.Context, post *models.Post) error
	// ExpiringThreshold returns how close to expiry the user wants the
	// post_expiring warning. Zero or negative disables the warning.
	ExpiringThreshold(ctx context.Context, userID uint) time.Duration
}

// Sweeper runs the expiry sweep on a fixed interval, concurrently with
// request handling. It is safe to run several sweepers against the same
// database: the claim CAS splits the work without double-notifying.
type Sweeper struct {
	engine        *Engine
	notifier      ExpiryNotifier
	interval      time.Duration
	warnThreshold time.Duration
}

// NewSweeper creates a sweeper that ticks every interval and warns authors
// when a post's remaining life drops below warnThreshold.
func NewSweeper(engine *Engine, notifier ExpiryNotifier, interval, warnThreshold time.Duration) *Sweeper {
	return &Sweeper{
		engine:        engine,
		notifier:      notifier,
		interval:      interval,
		warnThreshold: warnThreshold,
	}
}

// warnWindow is the candidate read window for the expiring-soon sweep. It
// must cover the largest threshold any user may configure, otherwise posts
// of users with a threshold above the global default would never surface.
func (s *Sweeper) warnWindow() time.Duration {
	window := time.Duration(models.MaxExpiringThresholdSeconds) * time.Second
	if s.warnThreshold > window {
		window = s.warnThreshold
	}
	return window
}

// Run blocks, sweeping every interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	observability.Logger.InfoContext(ctx, "sweeper started",
		slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			observability.Logger.InfoContext(ctx, "sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep iteration: finalize expired posts, then
// warn about posts entering their last threshold window.
func (s *Sweeper) RunOnce(ctx context.Context) {
	runID := uuid.NewString()
	ctx = observability.WithSweepRun(ctx, runID)

	span, ctx := observability.NewSpan(ctx, "sweeper.run")
	defer span.End()

	start := time.Now()
	outcome := "ok"
	defer func() {
		observability.SweepRunsTotal.WithLabelValues(outcome).Inc()
		observability.SweepDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	expired, err := s.engine.Sweep(ctx)
	if err != nil {
		outcome = "error"
		span.SetError(err)
		observability.Logger.ErrorContext(ctx, "sweep failed",
			slog.String("error", err.Error()))
		return
	}
	span.AddAttributes(attribute.Int("posts.expired", len(expired)))

	for _, post := range expired {
		// Expiry is authoritative: a failed notification never reverts it.
		if err := s.notifier.PostExpired(ctx, post); err != nil {
			observability.Logger.ErrorContext(ctx, "expire notification failed",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("error", err.Error()))
		}
	}

	if s.warnThreshold <= 0 {
		return
	}
	expiring, err := s.engine.SweepExpiring(ctx, s.warnWindow(), s.notifier.ExpiringThreshold)
	if err != nil {
		outcome = "error"
		span.SetError(err)
		observability.Logger.ErrorContext(ctx, "expiring-soon sweep failed",
			slog.String("error", err.Error()))
		return
	}
	for _, post := range expiring {
		if err := s.notifier.PostExpiring(ctx, post); err != nil {
			observability.Logger.ErrorContext(ctx, "expiring-soon notification failed",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("error", err.Error()))
		}
	}

	if len(expired) > 0 || len(expiring) > 0 {
		observability.Logger.InfoContext(ctx, "sweep completed",
			slog.Int("expired", len(expired)),
			slog.Int("expiring_soon", len(expiring)),
			slog.Duration("elapsed", time.Since(start)))
	}
}
