// Package notifications provides best-effort notification publishing.
package notifications

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes notification payloads into Redis channels. It is
// fire-and-forget: delivery guarantees beyond the persisted notification
// record are an external collaborator's problem.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	channel := fmt.Sprintf("notifications:user:%d", userID)
	return n.rdb.Publish(ctx, channel, payload).Err()
}
