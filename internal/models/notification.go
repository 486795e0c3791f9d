package models

import "time"

// Notification types.
const (
	NotificationLike          = "like"
	NotificationComment       = "comment"
	NotificationFollow        = "follow"
	NotificationFollowRequest = "follow_request"
	NotificationMention       = "mention"
	NotificationRepost        = "repost"
	NotificationMessage       = "message"
	NotificationExpire        = "expire"
	NotificationPostExpiring  = "post_expiring"
)

// Notification is a persisted notification record for a user. Delivery
// beyond the record (push, email) is handled by external collaborators.
type Notification struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type    string `gorm:"not null" json:"type"`
	ActorID *uint  `json:"actor_id,omitempty"`
	Actor   *User  `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	PostID  *uint  `json:"post_id,omitempty"`
	// Payload holds type-specific data as a JSON document.
	Payload   string    `gorm:"type:text" json:"payload,omitempty"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,priority:2,sort:desc" json:"created_at"`
}

// Bounds for the per-user post_expiring warning threshold. The sweep's
// candidate window is sized off the maximum, so it caps what users may set.
const (
	DefaultExpiringThresholdSeconds = 60
	MaxExpiringThresholdSeconds     = 300
)

// NotificationPreferences holds a user's per-type notification switches.
// Absence of a row means every switch is on; use DefaultNotificationPreferences.
type NotificationPreferences struct {
	ID                 uint `gorm:"primaryKey" json:"id"`
	UserID             uint `gorm:"not null;uniqueIndex" json:"user_id"`
	NotifyLikes        bool `gorm:"not null;default:true" json:"notify_likes"`
	NotifyComments     bool `gorm:"not null;default:true" json:"notify_comments"`
	NotifyMentions     bool `gorm:"not null;default:true" json:"notify_mentions"`
	NotifyFollows      bool `gorm:"not null;default:true" json:"notify_follows"`
	NotifyMessages     bool `gorm:"not null;default:true" json:"notify_messages"`
	NotifyReposts      bool `gorm:"not null;default:true" json:"notify_reposts"`
	NotifyExpire       bool `gorm:"not null;default:true" json:"notify_expire"`
	NotifyPostExpiring bool `gorm:"not null;default:true" json:"notify_post_expiring"`
	// ExpiringThresholdSeconds is how close to expiry the post_expiring
	// warning fires.
	ExpiringThresholdSeconds int       `gorm:"not null;default:60" json:"expiring_threshold_seconds"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// DefaultNotificationPreferences returns the preferences applied to users
// without a stored row.
func DefaultNotificationPreferences(userID uint) NotificationPreferences {
	return NotificationPreferences{
		UserID:                   userID,
		NotifyLikes:              true,
		NotifyComments:           true,
		NotifyMentions:           true,
		NotifyFollows:            true,
		NotifyMessages:           true,
		NotifyReposts:            true,
		NotifyExpire:             true,
		NotifyPostExpiring:       true,
		ExpiringThresholdSeconds: DefaultExpiringThresholdSeconds,
	}
}

// Allows reports whether notifications of the given type are enabled.
// Unknown types default to allowed.
func (p *NotificationPreferences) Allows(notificationType string) bool {
	switch notificationType {
	case NotificationLike:
		return p.NotifyLikes
	case NotificationComment:
		return p.NotifyComments
	case NotificationMention:
		return p.NotifyMentions
	case NotificationFollow, NotificationFollowRequest:
		return p.NotifyFollows
	case NotificationMessage:
		return p.NotifyMessages
	case NotificationRepost:
		return p.NotifyReposts
	case NotificationExpire:
		return p.NotifyExpire
	case NotificationPostExpiring:
		return p.NotifyPostExpiring
	default:
		return true
	}
}
