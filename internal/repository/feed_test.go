package repository

import (
	"context"
	"testing"
	"time"

	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedRepositoryPostsByAuthors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	old := createTestPost(t, db, alice.ID, baseTime, 300)
	fresh := createTestPost(t, db, bob.ID, baseTime.Add(2*time.Minute), 300)
	expired := createTestPost(t, db, alice.ID, baseTime.Add(-10*time.Minute), 300)
	_ = createTestPost(t, db, carol.ID, baseTime.Add(time.Minute), 300)

	now := baseTime.Add(3 * time.Minute)
	posts, err := repo.PostsByAuthors(ctx, []uint{alice.ID, bob.ID}, now, 50, 0)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, fresh.ID, posts[0].ID, "newest post should come first")
	assert.Equal(t, old.ID, posts[1].ID)
	for _, p := range posts {
		assert.NotEqual(t, expired.ID, p.ID, "expired posts should be filtered out")
		assert.NotZero(t, p.Author.ID, "author should be preloaded")
	}

	t.Run("EmptyAuthorList", func(t *testing.T) {
		posts, err := repo.PostsByAuthors(ctx, nil, now, 50, 0)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("Pagination", func(t *testing.T) {
		posts, err := repo.PostsByAuthors(ctx, []uint{alice.ID, bob.ID}, now, 1, 1)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, old.ID, posts[0].ID)
	})
}

func TestFeedRepositoryRepostedOriginals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	sharer := createTestUser(t, db, "sharer")
	other := createTestUser(t, db, "other")

	shared := createTestPost(t, db, author.ID, baseTime, 300)
	expired := createTestPost(t, db, author.ID, baseTime.Add(-10*time.Minute), 300)
	notShared := createTestPost(t, db, author.ID, baseTime.Add(time.Minute), 300)

	require.NoError(t, db.Create(&models.Repost{PostID: shared.ID, UserID: sharer.ID}).Error)
	require.NoError(t, db.Create(&models.Repost{PostID: shared.ID, UserID: other.ID}).Error)
	require.NoError(t, db.Create(&models.Repost{PostID: expired.ID, UserID: sharer.ID}).Error)
	require.NoError(t, db.Create(&models.Repost{PostID: notShared.ID, UserID: other.ID}).Error)

	now := baseTime.Add(2 * time.Minute)
	posts, err := repo.RepostedOriginals(ctx, []uint{sharer.ID}, now, 50)
	require.NoError(t, err)

	require.Len(t, posts, 1, "only live posts reposted by the given users")
	assert.Equal(t, shared.ID, posts[0].ID)

	t.Run("DeduplicatesAcrossReposters", func(t *testing.T) {
		posts, err := repo.RepostedOriginals(ctx, []uint{sharer.ID, other.ID}, now, 50)
		require.NoError(t, err)

		seen := map[uint]int{}
		for _, p := range posts {
			seen[p.ID]++
		}
		assert.Equal(t, 1, seen[shared.ID], "post reposted by two users appears once")
	})

	t.Run("EmptyReposterList", func(t *testing.T) {
		posts, err := repo.RepostedOriginals(ctx, nil, now, 50)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}

func TestFeedRepositoryRecommended(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()

	viewer := createTestUser(t, db, "viewer")
	public := createTestUser(t, db, "public_author")
	private := createTestUser(t, db, "private_author")
	followedPrivate := createTestUser(t, db, "followed_private")
	require.NoError(t, db.Model(&models.User{}).Where("id IN ?", []uint{private.ID, followedPrivate.ID}).Update("is_private", true).Error)

	popular := createTestPost(t, db, public.ID, baseTime, 300)
	require.NoError(t, db.Model(popular).Update("likes_count", 9).Error)
	quiet := createTestPost(t, db, public.ID, baseTime.Add(time.Minute), 300)
	hidden := createTestPost(t, db, private.ID, baseTime, 300)
	fromFollowed := createTestPost(t, db, followedPrivate.ID, baseTime, 300)
	own := createTestPost(t, db, viewer.ID, baseTime, 300)
	reacted := createTestPost(t, db, public.ID, baseTime, 300)
	require.NoError(t, db.Create(&models.PostInteraction{UserID: viewer.ID, PostID: reacted.ID, HasReacted: true}).Error)

	now := baseTime.Add(2 * time.Minute)
	posts, err := repo.Recommended(ctx, viewer.ID, []uint{followedPrivate.ID}, now, 20)
	require.NoError(t, err)

	var ids []uint
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, popular.ID)
	assert.Contains(t, ids, quiet.ID)
	assert.Contains(t, ids, fromFollowed.ID, "followed private authors are eligible")
	assert.NotContains(t, ids, hidden.ID, "unfollowed private authors are not")
	assert.NotContains(t, ids, own.ID, "viewer's own posts are never recommended")
	assert.NotContains(t, ids, reacted.ID, "already-reacted posts are never recommended")

	assert.Equal(t, popular.ID, posts[0].ID, "highest engagement ranks first")

	t.Run("NoFollowedAuthors", func(t *testing.T) {
		posts, err := repo.Recommended(ctx, viewer.ID, nil, now, 20)
		require.NoError(t, err)

		for _, p := range posts {
			assert.NotEqual(t, fromFollowed.ID, p.ID)
			assert.NotEqual(t, hidden.ID, p.ID)
		}
	})
}

func TestFeedRepositoryTrending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()
	author := createTestUser(t, db, "author")

	hot := createTestPost(t, db, author.ID, baseTime, 600)
	require.NoError(t, db.Model(hot).Update("likes_count", 5).Error)
	warm := createTestPost(t, db, author.ID, baseTime.Add(time.Minute), 600)
	require.NoError(t, db.Model(warm).Update("likes_count", 2).Error)
	tooOld := createTestPost(t, db, author.ID, baseTime.Add(-2*time.Hour), 600)
	require.NoError(t, db.Model(tooOld).Update("likes_count", 50).Error)
	require.NoError(t, db.Model(tooOld).Update("expires_at", baseTime.Add(10*time.Hour)).Error)

	now := baseTime.Add(5 * time.Minute)
	since := now.Add(-time.Hour)
	posts, err := repo.Trending(ctx, since, now, 10)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, hot.ID, posts[0].ID, "most-liked post in window ranks first")
	assert.Equal(t, warm.ID, posts[1].ID)

	t.Run("LimitApplies", func(t *testing.T) {
		posts, err := repo.Trending(ctx, since, now, 1)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, hot.ID, posts[0].ID)
	})
}
