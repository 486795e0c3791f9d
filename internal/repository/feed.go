package repository

import (
	"context"
	"time"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// FeedRepository serves the read queries the feed composer is built from.
// Every query filters expired posts at the SQL level; the author-only
// exception lives in PostRepository.GetByAuthorID.
type FeedRepository interface {
	// PostsByAuthors returns non-expired posts authored by any of the given
	// users, newest first.
	PostsByAuthors(ctx context.Context, authorIDs []uint, now time.Time, limit, offset int) ([]*models.Post, error)
	// RepostedOriginals returns non-expired original posts reposted by any
	// of the given users.
	RepostedOriginals(ctx context.Context, reposterIDs []uint, now time.Time, limit int) ([]*models.Post, error)
	// Recommended returns up to limit non-expired posts from public or
	// followed authors, excluding the viewer's own posts and posts the
	// viewer already reacted to, ranked by engagement score then recency.
	Recommended(ctx context.Context, viewerID uint, followedIDs []uint, now time.Time, limit int) ([]*models.Post, error)
	// Trending returns the most-liked non-expired posts created since the
	// given instant.
	Trending(ctx context.Context, since, now time.Time, limit int) ([]*models.Post, error)
}

// feedRepository implements FeedRepository
type feedRepository struct {
	db *gorm.DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) PostsByAuthors(ctx context.Context, authorIDs []uint, now time.Time, limit, offset int) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Poll").
		Preload("Poll.Options").
		Where("author_id IN ? AND expires_at > ?", authorIDs, now).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *feedRepository) RepostedOriginals(ctx context.Context, reposterIDs []uint, now time.Time, limit int) ([]*models.Post, error) {
	if len(reposterIDs) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Joins("JOIN reposts ON reposts.post_id = posts.id").
		Where("reposts.user_id IN ? AND posts.expires_at > ?", reposterIDs, now).
		Distinct("posts.*").
		Order("posts.created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *feedRepository) Recommended(ctx context.Context, viewerID uint, followedIDs []uint, now time.Time, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	q := r.db.WithContext(ctx).
		Preload("Author").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.expires_at > ?", now).
		Where("posts.author_id <> ?", viewerID).
		Where("posts.id NOT IN (SELECT post_id FROM post_interactions WHERE user_id = ? AND has_reacted = ?)", viewerID, true)
	if len(followedIDs) > 0 {
		q = q.Where("users.is_private = ? OR posts.author_id IN ?", false, followedIDs)
	} else {
		q = q.Where("users.is_private = ?", false)
	}
	err := q.
		Order("(posts.likes_count + posts.comments_count + posts.reposts_count) DESC, posts.created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *feedRepository) Trending(ctx context.Context, since, now time.Time, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("created_at >= ? AND expires_at > ?", since, now).
		Order("likes_count DESC, created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
