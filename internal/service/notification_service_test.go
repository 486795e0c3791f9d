package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyHonorsPreferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "user", false)
	actor := env.createUser(t, "actor", false)

	prefs := models.DefaultNotificationPreferences(user.ID)
	prefs.NotifyLikes = false
	require.NoError(t, env.notificationService.UpdatePreferences(ctx, &prefs))

	require.NoError(t, env.notificationService.Notify(ctx, user.ID, models.NotificationLike, &actor.ID, nil, nil))
	require.NoError(t, env.notificationService.Notify(ctx, user.ID, models.NotificationComment, &actor.ID, nil, nil))

	notifications, err := env.notificationService.List(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1, "suppressed types are never persisted")
	assert.Equal(t, models.NotificationComment, notifications[0].Type)
}

func TestExpiryNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, "author", false)

	t.Run("PostExpiredCarriesTheFinalStats", func(t *testing.T) {
		post := env.createPost(t, author.ID, "it was fun")
		post.LikesCount = 4
		post.TotalLifeSecondsReached = 540

		require.NoError(t, env.notificationService.PostExpired(ctx, post))

		notifications, err := env.notificationService.List(ctx, author.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, models.NotificationExpire, notifications[0].Type)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(notifications[0].Payload), &payload))
		assert.Equal(t, float64(540), payload["total_life_seconds"])
		assert.Equal(t, float64(4), payload["final_likes"])
	})

	t.Run("PostExpiringWarnsAheadOfTime", func(t *testing.T) {
		recipient := env.createUser(t, "warned", false)
		post := env.createPost(t, recipient.ID, "fading fast")
		post.ExpiresAt = testStart.Add(45 * time.Second)
		post.LifeSecondsRemaining = 45

		require.NoError(t, env.notificationService.PostExpiring(ctx, post))

		notifications, err := env.notificationService.List(ctx, recipient.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, models.NotificationPostExpiring, notifications[0].Type)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(notifications[0].Payload), &payload))
		assert.Equal(t, float64(45), payload["life_seconds_remaining"])
	})

	t.Run("ExpireNotificationRespectsOptOut", func(t *testing.T) {
		silent := env.createUser(t, "silent", false)
		prefs := models.DefaultNotificationPreferences(silent.ID)
		prefs.NotifyExpire = false
		require.NoError(t, env.notificationService.UpdatePreferences(ctx, &prefs))

		post := env.createPost(t, silent.ID, "gone quietly")
		require.NoError(t, env.notificationService.PostExpired(ctx, post))

		count, err := env.notificationService.UnreadCount(ctx, silent.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("ExpiryWarningRespectsOptOut", func(t *testing.T) {
		quiet := env.createUser(t, "quiet", false)
		prefs := models.DefaultNotificationPreferences(quiet.ID)
		prefs.NotifyPostExpiring = false
		require.NoError(t, env.notificationService.UpdatePreferences(ctx, &prefs))

		post := env.createPost(t, quiet.ID, "shh")
		require.NoError(t, env.notificationService.PostExpiring(ctx, post))

		count, err := env.notificationService.UnreadCount(ctx, quiet.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestExpiringThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("DefaultsWithoutStoredPreferences", func(t *testing.T) {
		user := env.createUser(t, "fresh", false)
		threshold := env.notificationService.ExpiringThreshold(ctx, user.ID)
		assert.Equal(t, 60*time.Second, threshold)
	})

	t.Run("UsesTheStoredThreshold", func(t *testing.T) {
		user := env.createUser(t, "eager", false)
		prefs := models.DefaultNotificationPreferences(user.ID)
		prefs.ExpiringThresholdSeconds = 120
		require.NoError(t, env.notificationService.UpdatePreferences(ctx, &prefs))

		threshold := env.notificationService.ExpiringThreshold(ctx, user.ID)
		assert.Equal(t, 120*time.Second, threshold)
	})

	t.Run("ZeroWhenTheWarningIsOff", func(t *testing.T) {
		user := env.createUser(t, "unbothered", false)
		prefs := models.DefaultNotificationPreferences(user.ID)
		prefs.NotifyPostExpiring = false
		require.NoError(t, env.notificationService.UpdatePreferences(ctx, &prefs))

		threshold := env.notificationService.ExpiringThreshold(ctx, user.ID)
		assert.Equal(t, time.Duration(0), threshold)
	})
}

func TestNotificationReadFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "user", false)
	actor := env.createUser(t, "actor", false)

	for i := 0; i < 3; i++ {
		require.NoError(t, env.notificationService.Notify(ctx, user.ID, models.NotificationLike, &actor.ID, nil, nil))
	}

	count, err := env.notificationService.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	notifications, err := env.notificationService.List(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 3)

	require.NoError(t, env.notificationService.MarkRead(ctx, notifications[0].ID, user.ID))
	count, err = env.notificationService.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, env.notificationService.MarkAllRead(ctx, user.ID))
	count, err = env.notificationService.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
