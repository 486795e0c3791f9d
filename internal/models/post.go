package models

import "time"

// Post content types.
const (
	PostTypeText  = "text"
	PostTypePhoto = "photo"
	PostTypeVideo = "video"
	PostTypePoll  = "poll"
)

// Post represents an ephemeral post. A post is born with a finite lifespan
// and every new like extends it; once the deadline passes the sweeper flips
// IsExpired, which never reverts.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	AuthorID uint   `gorm:"not null;index:idx_posts_author_created,priority:1" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	PostType string `gorm:"not null;default:text" json:"post_type"`
	Text     string `gorm:"type:text" json:"text,omitempty"`
	// ContentURL is an opaque reference into the external content store.
	ContentURL string `json:"content_url,omitempty"`

	CreatedAt          time.Time `gorm:"index:idx_posts_author_created,priority:2,sort:desc" json:"created_at"`
	InitialLifeSeconds int       `gorm:"not null;default:300" json:"initial_life_seconds"`
	// ExpiresAt is set exactly once at creation and afterwards only ever
	// increased by the lifecycle engine.
	ExpiresAt time.Time `gorm:"not null;index:idx_posts_expiry,priority:2" json:"expires_at"`
	IsExpired bool      `gorm:"not null;default:false;index:idx_posts_expiry,priority:1" json:"is_expired"`
	// ExpiryWarned marks that the expiring-soon notification was already sent.
	ExpiryWarned bool `gorm:"not null;default:false" json:"-"`
	// LifeSecondsRemaining is a cached value; ExpiresAt is authoritative.
	LifeSecondsRemaining int `gorm:"not null;default:300" json:"life_seconds_remaining"`
	// TotalLifeSecondsReached accumulates every granted extension. Metrics only.
	TotalLifeSecondsReached int `gorm:"not null;default:0" json:"total_life_seconds_reached"`

	LikesCount    int `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int `gorm:"not null;default:0" json:"comments_count"`
	RepostsCount  int `gorm:"not null;default:0" json:"reposts_count"`

	IsPinned         bool `gorm:"not null;default:false" json:"is_pinned"`
	CommentsDisabled bool `gorm:"not null;default:false" json:"comments_disabled"`

	UpdatedAt time.Time `json:"updated_at"`

	Poll *Poll `gorm:"foreignKey:PostID" json:"poll,omitempty"`
}

// ExpiredAt reports whether the post's deadline has passed at the given
// instant, regardless of whether the sweeper has flagged it yet.
func (p *Post) ExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// EngagementScore is the deterministic ranking score used by the feed
// composer: likes + comments + reposts.
func (p *Post) EngagementScore() int {
	return p.LikesCount + p.CommentsCount + p.RepostsCount
}
