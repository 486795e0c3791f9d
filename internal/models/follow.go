package models

import "time"

// FollowStatus represents the state of a follow edge.
type FollowStatus string

// Follow statuses. Following a private account starts as pending until the
// followee accepts.
const (
	FollowStatusPending  FollowStatus = "pending"
	FollowStatusAccepted FollowStatus = "accepted"
)

// Follow represents a directed follow edge from follower to followee.
type Follow struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	FollowerID uint         `gorm:"not null;uniqueIndex:idx_follows_edge" json:"follower_id"`
	Follower   User         `gorm:"foreignKey:FollowerID" json:"follower"`
	FolloweeID uint         `gorm:"not null;uniqueIndex:idx_follows_edge;index" json:"followee_id"`
	Followee   User         `gorm:"foreignKey:FolloweeID" json:"followee"`
	Status     FollowStatus `gorm:"not null;default:accepted" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}
