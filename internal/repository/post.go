package repository

import (
	"context"
	"errors"
	"time"

	"pulse/internal/cache"
	"pulse/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. The
// Extend/Claim methods are the only write paths for a post's lifecycle
// state; both are compare-and-set so concurrent callers cannot produce a
// post that is expired with a future deadline.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByAuthorID(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error

	// ExtendExpiry advances expires_at from prevExpiresAt to newExpiresAt
	// and applies the like bookkeeping in the same statement. Returns false
	// without error when the post changed underneath the caller (conflict)
	// or was already expired.
	ExtendExpiry(ctx context.Context, postID uint, prevExpiresAt, newExpiresAt time.Time, remaining, extensionSeconds int) (bool, error)

	// ExpiryCandidates lists posts past their deadline that nobody claimed yet.
	ExpiryCandidates(ctx context.Context, now time.Time) ([]*models.Post, error)
	// ClaimExpiry performs the false→true transition on is_expired, but
	// only while the deadline still stands at or before now. Exactly one
	// caller per post observes true; a post extended since the candidate
	// read is not claimable.
	ClaimExpiry(ctx context.Context, postID uint, now time.Time) (bool, error)

	// ExpiryWarnCandidates lists unexpired posts entering their final
	// threshold window that have not been warned about yet.
	ExpiryWarnCandidates(ctx context.Context, now time.Time, threshold time.Duration) ([]*models.Post, error)
	// ClaimExpiryWarn flips expiry_warned, claiming the warning emission.
	ClaimExpiryWarn(ctx context.Context, postID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Poll").
		Preload("Poll.Options").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// GetByAuthorID returns all of an author's posts, expired included. Feed
// queries filter expiry; the author's own profile listing does not.
func (r *postRepository) GetByAuthorID(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Poll").
		Preload("Poll.Options").
		Where("author_id = ?", authorID).
		Order("is_pinned DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	cache.InvalidateTrending(ctx)
	return nil
}

func (r *postRepository) ExtendExpiry(ctx context.Context, postID uint, prevExpiresAt, newExpiresAt time.Time, remaining, extensionSeconds int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND is_expired = ? AND expires_at = ?", postID, false, prevExpiresAt).
		Updates(map[string]interface{}{
			"expires_at":                 newExpiresAt,
			"life_seconds_remaining":     remaining,
			"total_life_seconds_reached": gorm.Expr("total_life_seconds_reached + ?", extensionSeconds),
			"likes_count":                gorm.Expr("likes_count + 1"),
		})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
		return true, nil
	}
	return false, nil
}

func (r *postRepository) ExpiryCandidates(ctx context.Context, now time.Time) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("expires_at <= ? AND is_expired = ?", now, false).
		Order("expires_at ASC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ClaimExpiry(ctx context.Context, postID uint, now time.Time) (bool, error) {
	// The deadline check re-validates the candidate read: a like that
	// landed in between moved expires_at forward, and the claim must
	// lose so the extended post stays alive.
	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND is_expired = ? AND expires_at <= ?", postID, false, now).
		Updates(map[string]interface{}{
			"is_expired":             true,
			"life_seconds_remaining": 0,
		})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
		return true, nil
	}
	return false, nil
}

func (r *postRepository) ExpiryWarnCandidates(ctx context.Context, now time.Time, threshold time.Duration) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("is_expired = ? AND expiry_warned = ? AND expires_at > ? AND expires_at <= ?",
			false, false, now, now.Add(threshold)).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ClaimExpiryWarn(ctx context.Context, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND expiry_warned = ? AND is_expired = ?", postID, false, false).
		Update("expiry_warned", true)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
