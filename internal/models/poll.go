package models

import "time"

// Poll is the poll variant of a post.
type Poll struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;uniqueIndex" json:"post_id"`
	Question  string       `gorm:"type:text;not null" json:"question"`
	Options   []PollOption `gorm:"foreignKey:PollID" json:"options"`
	CreatedAt time.Time    `json:"created_at"`
}

// PollOption is a single answer in a poll with its denormalized vote count.
type PollOption struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PollID uint   `gorm:"not null;index" json:"poll_id"`
	Text   string `gorm:"not null" json:"text"`
	Votes  int    `gorm:"not null;default:0" json:"votes"`
}

// PollVote records a user's single vote in a poll. Changing the vote moves
// the count from the old option to the new one atomically.
type PollVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PollID    uint      `gorm:"not null;uniqueIndex:idx_poll_votes_poll_user" json:"poll_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_poll_votes_poll_user" json:"user_id"`
	OptionID  uint      `gorm:"not null" json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}
