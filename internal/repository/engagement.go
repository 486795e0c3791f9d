package repository

import (
	"context"

	"pulse/internal/cache"
	"pulse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository is the single authoritative mutation path for likes,
// reposts, interaction flags, and the denormalized engagement counters.
// Handlers never touch these columns directly.
type EngagementRepository interface {
	// GetOrCreateLike inserts the (post, user) like if absent. Returns
	// whether a new row was created; a duplicate attempt is a no-op.
	GetOrCreateLike(ctx context.Context, postID, userID uint) (bool, error)
	DeleteLike(ctx context.Context, postID, userID uint) (bool, error)
	HasLiked(ctx context.Context, postID, userID uint) (bool, error)
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)

	GetOrCreateRepost(ctx context.Context, postID, userID uint) (bool, error)
	DeleteRepost(ctx context.Context, postID, userID uint) (bool, error)

	// MarkReacted upserts the PostInteraction dedup flag used by the feed
	// composer's recommendation exclusion.
	MarkReacted(ctx context.Context, userID, postID uint) error

	DecrementLikes(ctx context.Context, postID uint) error
	IncrementComments(ctx context.Context, postID uint) error
	IncrementReposts(ctx context.Context, postID uint) error
	DecrementReposts(ctx context.Context, postID uint) error
}

// engagementRepository implements EngagementRepository
type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) GetOrCreateLike(ctx context.Context, postID, userID uint) (bool, error) {
	// ON CONFLICT DO NOTHING keeps concurrent double-taps idempotent.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{PostID: postID, UserID: userID})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *engagementRepository) DeleteLike(ctx context.Context, postID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *engagementRepository) HasLiked(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *engagementRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *engagementRepository) GetOrCreateRepost(ctx context.Context, postID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Repost{PostID: postID, UserID: userID})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *engagementRepository) DeleteRepost(ctx context.Context, postID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Repost{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *engagementRepository) MarkReacted(ctx context.Context, userID, postID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"has_reacted": true}),
		}).
		Create(&models.PostInteraction{UserID: userID, PostID: postID, HasReacted: true}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *engagementRepository) DecrementLikes(ctx context.Context, postID uint) error {
	return r.adjustCounter(ctx, postID, "likes_count", -1)
}

func (r *engagementRepository) IncrementComments(ctx context.Context, postID uint) error {
	return r.adjustCounter(ctx, postID, "comments_count", +1)
}

func (r *engagementRepository) IncrementReposts(ctx context.Context, postID uint) error {
	return r.adjustCounter(ctx, postID, "reposts_count", +1)
}

func (r *engagementRepository) DecrementReposts(ctx context.Context, postID uint) error {
	return r.adjustCounter(ctx, postID, "reposts_count", -1)
}

// adjustCounter applies a relative counter update in SQL so concurrent
// writers cannot lose increments. Counters never go below zero.
func (r *engagementRepository) adjustCounter(ctx context.Context, postID uint, column string, delta int) error {
	var expr string
	if delta < 0 {
		expr = "CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END"
	} else {
		expr = column + " + 1"
	}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Update(column, gorm.Expr(expr)).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}
