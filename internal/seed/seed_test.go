package seed

import (
	"testing"
	"time"

	"pulse/internal/database"
	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}

func TestLoadPersonas(t *testing.T) {
	t.Run("FromFixtureFile", func(t *testing.T) {
		personas, err := LoadPersonas("testdata/personas.yaml")
		require.NoError(t, err)
		require.Len(t, personas, 2)

		assert.Equal(t, "ada", personas[0].Username)
		assert.Equal(t, []string{"grace"}, personas[0].Follows)
		assert.Len(t, personas[0].Posts, 2)
		assert.True(t, personas[1].IsPrivate)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadPersonas("testdata/nope.yaml")
		assert.Error(t, err)
	})
}

func TestRun(t *testing.T) {
	db := setupSeedTestDB(t)

	err := Run(db, Options{
		NumUsers:           6,
		NumPosts:           10,
		ShouldClean:        true,
		InitialLifeSeconds: 300,
		ExtensionSeconds:   60,
		PersonasPath:       "testdata/personas.yaml",
	})
	require.NoError(t, err)

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(6), userCount)

	var ada models.User
	require.NoError(t, db.Where("username = ?", "ada").First(&ada).Error)
	assert.Equal(t, "Ada L.", ada.DisplayName)

	var adaPosts int64
	require.NoError(t, db.Model(&models.Post{}).Where("author_id = ?", ada.ID).Count(&adaPosts).Error)
	assert.GreaterOrEqual(t, adaPosts, int64(2), "persona posts plus a share of the random ones")

	var postCount int64
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.GreaterOrEqual(t, postCount, int64(10))

	var followCount int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&followCount).Error)
	assert.Greater(t, followCount, int64(0))

	t.Run("PostsCarryAConsistentLifecycle", func(t *testing.T) {
		var posts []models.Post
		require.NoError(t, db.Find(&posts).Error)
		for _, post := range posts {
			expected := post.CreatedAt.Add(300 * time.Second)
			if post.LikesCount == 0 {
				assert.Equal(t, expected, post.ExpiresAt)
			} else {
				assert.False(t, post.ExpiresAt.Before(expected), "likes only ever extend the deadline")
			}
		}
	})
}

func TestClean(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Run(db, Options{NumUsers: 4, NumPosts: 5, InitialLifeSeconds: 300, ExtensionSeconds: 60}))
	require.NoError(t, Clean(db))

	for _, model := range []any{&models.User{}, &models.Post{}, &models.Follow{}, &models.Like{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	}
}
