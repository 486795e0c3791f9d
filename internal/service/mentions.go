package service

import (
	"context"
	"regexp"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// extractMentions returns the unique usernames mentioned in text, in order
// of first appearance.
func extractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	var usernames []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			usernames = append(usernames, m[1])
		}
	}
	return usernames
}

// notifyMentions sends a mention notification to every existing user
// mentioned in text, except the actor themselves. Unknown usernames are
// silently skipped; failures are logged and do not fail the caller.
func notifyMentions(ctx context.Context, users repository.UserRepository, notify *NotificationService, text string, actorID uint, postID *uint) {
	for _, username := range extractMentions(text) {
		user, err := users.GetByUsername(ctx, username)
		if err != nil {
			if !models.IsCode(err, "NOT_FOUND") {
				observability.Logger.WarnContext(ctx, "failed to resolve mention",
					"username", username, "error", err)
			}
			continue
		}
		if user.ID == actorID {
			continue
		}
		actor := actorID
		if err := notify.Notify(ctx, user.ID, models.NotificationMention, &actor, postID, nil); err != nil {
			observability.Logger.WarnContext(ctx, "failed to send mention notification",
				"user_id", user.ID, "error", err)
		}
	}
}
