package service

import (
	"context"
	"strings"

	"pulse/internal/cache"
	"pulse/internal/clock"
	"pulse/internal/lifecycle"
	"pulse/internal/models"
	"pulse/internal/repository"
)

const maxInitialLifeSeconds = 24 * 60 * 60

// PostService implements post creation, retrieval and author controls.
type PostService struct {
	posts      repository.PostRepository
	polls      repository.PollRepository
	hashtags   repository.HashtagRepository
	users      repository.UserRepository
	follows    repository.FollowRepository
	engine     *lifecycle.Engine
	visibility *VisibilityPolicy
	notify     *NotificationService
	clock      clock.Clock
}

// NewPostService creates a post service.
func NewPostService(
	posts repository.PostRepository,
	polls repository.PollRepository,
	hashtags repository.HashtagRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	engine *lifecycle.Engine,
	visibility *VisibilityPolicy,
	notify *NotificationService,
	clk clock.Clock,
) *PostService {
	return &PostService{
		posts:      posts,
		polls:      polls,
		hashtags:   hashtags,
		users:      users,
		follows:    follows,
		engine:     engine,
		visibility: visibility,
		notify:     notify,
		clock:      clk,
	}
}

// CreatePostInput carries a new post request.
type CreatePostInput struct {
	AuthorID uint
	PostType string
	Text     string
	// ContentURL points at already-uploaded media for photo and video posts.
	ContentURL string
	// InitialLifeSeconds overrides the configured default when positive.
	InitialLifeSeconds int
	PollQuestion       string
	PollOptions        []string
}

// CreatePost validates and stores a new post with its lifecycle stamped.
func (s *PostService) CreatePost(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	text := strings.TrimSpace(input.Text)

	postType := input.PostType
	if postType == "" {
		postType = models.PostTypeText
	}
	switch postType {
	case models.PostTypeText:
		if text == "" {
			return nil, models.NewValidationError("Post text is required")
		}
	case models.PostTypePhoto, models.PostTypeVideo:
		if input.ContentURL == "" {
			return nil, models.NewValidationError("Content URL is required for media posts")
		}
	case models.PostTypePoll:
		if strings.TrimSpace(input.PollQuestion) == "" {
			return nil, models.NewValidationError("Poll question is required")
		}
		if len(input.PollOptions) < 2 || len(input.PollOptions) > 10 {
			return nil, models.NewValidationError("Polls require between 2 and 10 options")
		}
	default:
		return nil, models.NewValidationError("Invalid post type")
	}
	if len(text) > 1000 {
		return nil, models.NewValidationError("Post text must be at most 1000 characters")
	}
	if input.InitialLifeSeconds < 0 || input.InitialLifeSeconds > maxInitialLifeSeconds {
		return nil, models.NewValidationError("Invalid initial life")
	}

	post := &models.Post{
		AuthorID:           input.AuthorID,
		PostType:           postType,
		Text:               text,
		ContentURL:         input.ContentURL,
		InitialLifeSeconds: input.InitialLifeSeconds,
	}
	s.engine.InitLifecycle(post)

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	if postType == models.PostTypePoll {
		if _, err := s.polls.Create(ctx, post.ID, strings.TrimSpace(input.PollQuestion), input.PollOptions); err != nil {
			return nil, err
		}
	}

	if tags := extractHashtags(text); len(tags) > 0 {
		if err := s.hashtags.TagPost(ctx, post.ID, tags); err != nil {
			return nil, err
		}
	}

	postID := post.ID
	notifyMentions(ctx, s.users, s.notify, text, input.AuthorID, &postID)

	return s.posts.GetByID(ctx, post.ID)
}

// GetPost returns the post if the viewer may see it. Denials of any kind
// surface as not-found.
func (s *PostService) GetPost(ctx context.Context, viewerID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	decision, err := s.visibility.CanView(ctx, viewerID, post)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.NewNotFoundError("Post", postID)
	}
	s.refreshRemaining(post)
	if post.PostType == models.PostTypePoll && post.Poll == nil {
		if poll, err := s.polls.GetByPostID(ctx, postID); err == nil {
			post.Poll = poll
		}
	}
	return post, nil
}

// GetUserPosts returns a user's posts for their profile page. The author
// sees everything including expired posts; other viewers see only live
// posts, and only if the profile is visible to them.
func (s *PostService) GetUserPosts(ctx context.Context, viewerID, authorID uint, limit, offset int) ([]*models.Post, error) {
	if viewerID != authorID {
		author, err := s.users.GetByID(ctx, authorID)
		if err != nil {
			return nil, err
		}
		if author.IsPrivate {
			if viewerID == 0 {
				return nil, models.NewNotFoundError("User", authorID)
			}
			following, err := s.follows.IsAcceptedFollower(ctx, viewerID, authorID)
			if err != nil {
				return nil, err
			}
			if !following {
				return nil, models.NewNotFoundError("User", authorID)
			}
		}
	}

	posts, err := s.posts.GetByAuthorID(ctx, authorID, limit, offset)
	if err != nil {
		return nil, err
	}

	if viewerID == authorID {
		for _, post := range posts {
			s.refreshRemaining(post)
		}
		return posts, nil
	}

	now := s.clock.Now()
	live := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if post.IsExpired || post.ExpiredAt(now) {
			continue
		}
		s.refreshRemaining(post)
		live = append(live, post)
	}
	return live, nil
}

// GetPostsByTag lists live posts of public authors carrying the tag. A
// leading # on the tag is accepted and stripped.
func (s *PostService) GetPostsByTag(ctx context.Context, tag string, limit, offset int) ([]*models.Post, error) {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return nil, models.NewValidationError("Tag is required")
	}

	posts, err := s.hashtags.PostsByTag(ctx, tag, s.clock.Now(), limit, offset)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		s.refreshRemaining(post)
	}
	return posts, nil
}

// DeletePost removes the author's own post. Expired posts stay deletable
// by their author.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return models.NewNotFoundError("Post", postID)
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

// SetPinned pins or unpins the author's own post on their profile.
func (s *PostService) SetPinned(ctx context.Context, userID, postID uint, pinned bool) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewNotFoundError("Post", postID)
	}
	post.IsPinned = pinned
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, postID)
	return post, nil
}

// SetCommentsDisabled toggles commenting on the author's own post.
func (s *PostService) SetCommentsDisabled(ctx context.Context, userID, postID uint, disabled bool) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewNotFoundError("Post", postID)
	}
	post.CommentsDisabled = disabled
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, postID)
	return post, nil
}

// refreshRemaining recomputes the derived countdown field for responses.
func (s *PostService) refreshRemaining(post *models.Post) {
	if post.IsExpired {
		post.LifeSecondsRemaining = 0
		return
	}
	remaining := int(post.ExpiresAt.Sub(s.clock.Now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	post.LifeSecondsRemaining = remaining
}
