// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"pulse/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!demo"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:        gofakeit.Email(),
		PasswordHash: string(hash),
		DisplayName:  gofakeit.Name(),
		Bio:          gofakeit.Sentence(10),
		IsPrivate:    f.rand.Intn(5) == 0,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post without persisting it. The post starts with
// a random remaining life so a freshly seeded database has posts at every
// stage of their countdown.
func (f *Factory) BuildPost(author *models.User, initialLife int, overrides ...func(*models.Post)) *models.Post {
	now := time.Now()
	age := time.Duration(f.rand.Intn(initialLife)) * time.Second
	createdAt := now.Add(-age)

	post := &models.Post{
		AuthorID:                author.ID,
		PostType:                models.PostTypeText,
		Text:                    gofakeit.Sentence(f.rand.Intn(12) + 3),
		CreatedAt:               createdAt,
		InitialLifeSeconds:      initialLife,
		ExpiresAt:               createdAt.Add(time.Duration(initialLife) * time.Second),
		LifeSecondsRemaining:    initialLife - int(age.Seconds()),
		TotalLifeSecondsReached: initialLife,
	}
	if f.rand.Intn(4) == 0 {
		post.PostType = models.PostTypePhoto
		post.ContentURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateFollow persists an accepted follow edge.
func (f *Factory) CreateFollow(followerID, followeeID uint) error {
	follow := &models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		Status:     models.FollowStatusAccepted,
	}
	return f.db.Create(follow).Error
}

// CreateLike persists a like and applies its extension bookkeeping the way
// a live like would.
func (f *Factory) CreateLike(post *models.Post, userID uint, extensionSeconds int) error {
	like := &models.Like{PostID: post.ID, UserID: userID}
	if err := f.db.Create(like).Error; err != nil {
		return err
	}

	post.ExpiresAt = post.ExpiresAt.Add(time.Duration(extensionSeconds) * time.Second)
	post.LikesCount++
	post.TotalLifeSecondsReached += extensionSeconds
	return f.db.Model(post).Updates(map[string]interface{}{
		"expires_at":                 post.ExpiresAt,
		"likes_count":                post.LikesCount,
		"total_life_seconds_reached": post.TotalLifeSecondsReached,
	}).Error
}
