package repository

import (
	"context"
	"testing"

	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementRepositoryLikes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	liker := createTestUser(t, db, "liker")
	post := createTestPost(t, db, author.ID, baseTime, 300)

	t.Run("GetOrCreateLikeIsIdempotent", func(t *testing.T) {
		created, err := repo.GetOrCreateLike(ctx, post.ID, liker.ID)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.GetOrCreateLike(ctx, post.ID, liker.ID)
		require.NoError(t, err)
		assert.False(t, created, "double-tap must not create a second row")

		liked, err := repo.HasLiked(ctx, post.ID, liker.ID)
		require.NoError(t, err)
		assert.True(t, liked)
	})

	t.Run("DeleteLike", func(t *testing.T) {
		deleted, err := repo.DeleteLike(ctx, post.ID, liker.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.DeleteLike(ctx, post.ID, liker.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("LikedPostIDs", func(t *testing.T) {
		other := createTestPost(t, db, author.ID, baseTime, 300)
		_, err := repo.GetOrCreateLike(ctx, other.ID, liker.ID)
		require.NoError(t, err)

		liked, err := repo.LikedPostIDs(ctx, liker.ID, []uint{post.ID, other.ID})
		require.NoError(t, err)
		assert.Equal(t, []uint{other.ID}, liked)
	})
}

func TestEngagementRepositoryCounters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	post := createTestPost(t, db, author.ID, baseTime, 300)

	require.NoError(t, repo.IncrementComments(ctx, post.ID))
	require.NoError(t, repo.IncrementReposts(ctx, post.ID))

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, 1, stored.CommentsCount)
	assert.Equal(t, 1, stored.RepostsCount)

	// decrements stop at zero instead of going negative
	require.NoError(t, repo.DecrementLikes(ctx, post.ID))
	require.NoError(t, repo.DecrementReposts(ctx, post.ID))
	require.NoError(t, repo.DecrementReposts(ctx, post.ID))

	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, 0, stored.LikesCount)
	assert.Equal(t, 0, stored.RepostsCount)
}

func TestEngagementRepositoryMarkReacted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	viewer := createTestUser(t, db, "viewer")
	post := createTestPost(t, db, author.ID, baseTime, 300)

	require.NoError(t, repo.MarkReacted(ctx, viewer.ID, post.ID))
	require.NoError(t, repo.MarkReacted(ctx, viewer.ID, post.ID))

	var count int64
	require.NoError(t, db.Model(&models.PostInteraction{}).
		Where("user_id = ? AND post_id = ?", viewer.ID, post.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
