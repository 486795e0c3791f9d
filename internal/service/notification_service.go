package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

// NotificationService persists notifications and pushes them over redis
// pub/sub. It honors per-user notification preferences and implements the
// sweeper's expiry callbacks.
type NotificationService struct {
	repo     repository.NotificationRepository
	notifier *notifications.Notifier
}

// NewNotificationService creates a notification service. notifier may be
// nil, in which case notifications are persisted but not published.
func NewNotificationService(repo repository.NotificationRepository, notifier *notifications.Notifier) *NotificationService {
	return &NotificationService{repo: repo, notifier: notifier}
}

// Notify records a notification for userID unless the user's preferences
// suppress that type. The pub/sub publish is best effort; a publish failure
// never fails the triggering operation.
func (s *NotificationService) Notify(ctx context.Context, userID uint, ntype string, actorID, postID *uint, payload map[string]any) error {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return err
	}
	if !prefs.Allows(ntype) {
		return nil
	}

	var payloadJSON string
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return models.NewInternalError(fmt.Errorf("marshaling notification payload: %w", err))
		}
		payloadJSON = string(raw)
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    ntype,
		ActorID: actorID,
		PostID:  postID,
		Payload: payloadJSON,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}
	observability.NotificationsEmittedTotal.WithLabelValues(ntype).Inc()

	if s.notifier != nil {
		event, err := json.Marshal(notification)
		if err == nil {
			if err := s.notifier.PublishUser(ctx, userID, string(event)); err != nil {
				observability.Logger.WarnContext(ctx, "failed to publish notification",
					"user_id", userID, "type", ntype, "error", err)
			}
		}
	}

	return nil
}

// PostExpired notifies the author that their post's life has ended. Called
// by the sweeper exactly once per post.
func (s *NotificationService) PostExpired(ctx context.Context, post *models.Post) error {
	postID := post.ID
	return s.Notify(ctx, post.AuthorID, models.NotificationExpire, nil, &postID, map[string]any{
		"total_life_seconds": post.TotalLifeSecondsReached,
		"final_likes":        post.LikesCount,
	})
}

// ExpiringThreshold resolves how close to expiry the user wants the
// post_expiring warning, from their stored preferences. Zero when the user
// switched the warning off; the default threshold when the preference read
// fails, so a transient error does not silence warnings.
func (s *NotificationService) ExpiringThreshold(ctx context.Context, userID uint) time.Duration {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		observability.Logger.WarnContext(ctx, "failed to load notification preferences",
			"user_id", userID, "error", err)
		return models.DefaultExpiringThresholdSeconds * time.Second
	}
	if !prefs.NotifyPostExpiring {
		return 0
	}
	return time.Duration(prefs.ExpiringThresholdSeconds) * time.Second
}

// PostExpiring warns the author that their post is about to expire.
func (s *NotificationService) PostExpiring(ctx context.Context, post *models.Post) error {
	postID := post.ID
	return s.Notify(ctx, post.AuthorID, models.NotificationPostExpiring, nil, &postID, map[string]any{
		"expires_at":             post.ExpiresAt,
		"life_seconds_remaining": post.LifeSecondsRemaining,
	})
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks a single notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// Preferences returns the user's notification preferences, defaults when
// none were saved.
func (s *NotificationService) Preferences(ctx context.Context, userID uint) (models.NotificationPreferences, error) {
	return s.repo.GetPreferences(ctx, userID)
}

// UpdatePreferences saves the user's notification preferences.
func (s *NotificationService) UpdatePreferences(ctx context.Context, prefs *models.NotificationPreferences) error {
	return s.repo.UpsertPreferences(ctx, prefs)
}
