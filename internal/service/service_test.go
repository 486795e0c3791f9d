package service

import (
	"context"
	"testing"
	"time"

	"pulse/internal/clock"
	"pulse/internal/database"
	"pulse/internal/lifecycle"
	"pulse/internal/models"
	"pulse/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// testEnv wires the full service stack onto an in-memory database with a
// frozen clock.
type testEnv struct {
	db  *gorm.DB
	clk *clock.Fake

	posts   repository.PostRepository
	follows repository.FollowRepository

	userService         *UserService
	postService         *PostService
	engagementService   *EngagementService
	feedService         *FeedService
	notificationService *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	clk := clock.NewFake(testStart)

	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	pollRepo := repository.NewPollRepository(db)
	hashtagRepo := repository.NewHashtagRepository(db)
	feedRepo := repository.NewFeedRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	engine := lifecycle.NewEngine(postRepo, clk, 300, 60)
	visibility := NewVisibilityPolicy(followRepo, clk)
	notificationService := NewNotificationService(notificationRepo, nil)

	return &testEnv{
		db:      db,
		clk:     clk,
		posts:   postRepo,
		follows: followRepo,

		userService: NewUserService(userRepo, followRepo, notificationService),
		postService: NewPostService(postRepo, pollRepo, hashtagRepo, userRepo,
			followRepo, engine, visibility, notificationService, clk),
		engagementService: NewEngagementService(postRepo, engagementRepo, commentRepo,
			pollRepo, userRepo, engine, visibility, notificationService),
		feedService:         NewFeedService(feedRepo, followRepo, clk, time.Hour, 10),
		notificationService: notificationService,
	}
}

func (e *testEnv) createUser(t *testing.T, username string, private bool) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsPrivate:    private,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createPost(t *testing.T, authorID uint, text string) *models.Post {
	t.Helper()
	post, err := e.postService.CreatePost(context.Background(), CreatePostInput{
		AuthorID: authorID,
		PostType: models.PostTypeText,
		Text:     text,
	})
	require.NoError(t, err)
	return post
}

func (e *testEnv) acceptedFollow(t *testing.T, followerID, followeeID uint) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		Status:     models.FollowStatusAccepted,
	}).Error)
}

func (e *testEnv) markExpired(t *testing.T, postID uint) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(map[string]any{"is_expired": true, "life_seconds_remaining": 0}).Error)
}
