package repository

import (
	"context"
	"time"

	"pulse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HashtagRepository defines the interface for hashtag data operations.
type HashtagRepository interface {
	// TagPost links the post to every tag, creating tags on first use.
	// Re-tagging with a tag the post already carries is a no-op.
	TagPost(ctx context.Context, postID uint, tags []string) error
	// PostsByTag lists live posts of public authors carrying the tag,
	// newest first.
	PostsByTag(ctx context.Context, tag string, now time.Time, limit, offset int) ([]*models.Post, error)
}

// hashtagRepository implements HashtagRepository
type hashtagRepository struct {
	db *gorm.DB
}

// NewHashtagRepository creates a new hashtag repository
func NewHashtagRepository(db *gorm.DB) HashtagRepository {
	return &hashtagRepository{db: db}
}

func (r *hashtagRepository) TagPost(ctx context.Context, postID uint, tags []string) error {
	for _, tag := range tags {
		var hashtag models.Hashtag
		err := r.db.WithContext(ctx).
			Where(models.Hashtag{Tag: tag}).
			FirstOrCreate(&hashtag).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		err = r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PostHashtag{PostID: postID, HashtagID: hashtag.ID}).Error
		if err != nil {
			return models.NewInternalError(err)
		}
	}
	return nil
}

func (r *hashtagRepository) PostsByTag(ctx context.Context, tag string, now time.Time, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Joins("JOIN post_hashtags ON post_hashtags.post_id = posts.id").
		Joins("JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("hashtags.tag = ? AND posts.expires_at > ? AND users.is_private = ?", tag, now, false).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
