package models

import "time"

// Hashtag is a unique, lowercased tag extracted from post text.
type Hashtag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Tag       string    `gorm:"not null;uniqueIndex;size:64" json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}

// PostHashtag links a post to one of its hashtags.
type PostHashtag struct {
	PostID    uint `gorm:"primaryKey" json:"post_id"`
	HashtagID uint `gorm:"primaryKey" json:"hashtag_id"`
}
