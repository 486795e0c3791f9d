package models

import "time"

// Like represents a user liking a post. Unique per (post, user). Creating a
// like grants the post a life extension; removing the like does not take the
// extension back.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Repost represents a user sharing a post. Unique per (post, user). Reposts
// make the original post feed-eligible for the reposter's followers but do
// not extend its life.
type Repost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_reposts_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reposts_post_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostInteraction records that a user has engaged with a post. The feed
// composer uses it purely as a dedup signal: reacted-to posts are never
// recommended again.
type PostInteraction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_interactions_user_post" json:"user_id"`
	PostID     uint      `gorm:"not null;uniqueIndex:idx_interactions_user_post" json:"post_id"`
	HasReacted bool      `gorm:"not null;default:false;index" json:"has_reacted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
