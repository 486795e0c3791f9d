package service

import (
	"context"
	"strings"

	"pulse/internal/cache"
	"pulse/internal/lifecycle"
	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

// EngagementService implements likes, comments, reposts and poll votes,
// including the life extension a like grants.
type EngagementService struct {
	posts      repository.PostRepository
	engagement repository.EngagementRepository
	comments   repository.CommentRepository
	polls      repository.PollRepository
	users      repository.UserRepository
	engine     *lifecycle.Engine
	visibility *VisibilityPolicy
	notify     *NotificationService
}

// NewEngagementService creates an engagement service.
func NewEngagementService(
	posts repository.PostRepository,
	engagement repository.EngagementRepository,
	comments repository.CommentRepository,
	polls repository.PollRepository,
	users repository.UserRepository,
	engine *lifecycle.Engine,
	visibility *VisibilityPolicy,
	notify *NotificationService,
) *EngagementService {
	return &EngagementService{
		posts:      posts,
		engagement: engagement,
		comments:   comments,
		polls:      polls,
		users:      users,
		engine:     engine,
		visibility: visibility,
		notify:     notify,
	}
}

// ToggleLike likes the post if the user has not liked it, unlikes it
// otherwise. A new like extends the post's life; an unlike decrements the
// counter but never claws the extension back. Returns the post and whether
// the user now likes it.
func (s *EngagementService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, bool, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, false, err
	}
	decision, err := s.visibility.CanMutate(ctx, userID, post)
	if err != nil {
		return nil, false, err
	}
	if !decision.Allowed {
		return nil, false, DenialError(decision, postID)
	}

	liked, err := s.engagement.HasLiked(ctx, postID, userID)
	if err != nil {
		return nil, false, err
	}

	if liked {
		deleted, err := s.engagement.DeleteLike(ctx, postID, userID)
		if err != nil {
			return nil, false, err
		}
		if deleted {
			if err := s.engagement.DecrementLikes(ctx, postID); err != nil {
				return nil, false, err
			}
			post.LikesCount--
			if post.LikesCount < 0 {
				post.LikesCount = 0
			}
		}
		cache.InvalidatePost(ctx, postID)
		return post, false, nil
	}

	created, err := s.engagement.GetOrCreateLike(ctx, postID, userID)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// concurrent like already landed
		return post, true, nil
	}

	if _, err := s.engine.ExtendOnLike(ctx, post); err != nil {
		// The extension was rejected, typically because the sweeper claimed
		// the post first. Remove the like row so the counter stays honest.
		if _, rollbackErr := s.engagement.DeleteLike(ctx, postID, userID); rollbackErr != nil {
			observability.Logger.ErrorContext(ctx, "failed to roll back like",
				"post_id", postID, "user_id", userID, "error", rollbackErr)
		}
		return nil, false, err
	}

	if err := s.engagement.MarkReacted(ctx, userID, postID); err != nil {
		observability.Logger.WarnContext(ctx, "failed to record interaction",
			"post_id", postID, "user_id", userID, "error", err)
	}
	cache.InvalidatePost(ctx, postID)

	if post.AuthorID != userID {
		actor := userID
		if err := s.notify.Notify(ctx, post.AuthorID, models.NotificationLike, &actor, &postID, nil); err != nil {
			observability.Logger.WarnContext(ctx, "failed to send like notification",
				"post_id", postID, "error", err)
		}
	}

	return post, true, nil
}

// CreateCommentInput carries a new comment request.
type CreateCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

// CreateComment adds a comment to an unexpired post the user can see.
func (s *EngagementService) CreateComment(ctx context.Context, input CreateCommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(text) > 500 {
		return nil, models.NewValidationError("Comment text must be at most 500 characters")
	}

	post, err := s.posts.GetByID(ctx, input.PostID)
	if err != nil {
		return nil, err
	}
	decision, err := s.visibility.CanMutate(ctx, input.UserID, post)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, DenialError(decision, input.PostID)
	}
	if post.CommentsDisabled {
		return nil, models.NewValidationError("Comments are disabled on this post")
	}

	comment := &models.Comment{
		PostID: input.PostID,
		UserID: input.UserID,
		Text:   text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.engagement.IncrementComments(ctx, input.PostID); err != nil {
		return nil, err
	}
	if err := s.engagement.MarkReacted(ctx, input.UserID, input.PostID); err != nil {
		observability.Logger.WarnContext(ctx, "failed to record interaction",
			"post_id", input.PostID, "user_id", input.UserID, "error", err)
	}
	cache.InvalidatePost(ctx, input.PostID)

	if post.AuthorID != input.UserID {
		actor := input.UserID
		postID := input.PostID
		if err := s.notify.Notify(ctx, post.AuthorID, models.NotificationComment, &actor, &postID, map[string]any{
			"comment_id": comment.ID,
		}); err != nil {
			observability.Logger.WarnContext(ctx, "failed to send comment notification",
				"post_id", input.PostID, "error", err)
		}
	}
	postID := input.PostID
	notifyMentions(ctx, s.users, s.notify, text, input.UserID, &postID)

	return s.comments.GetByID(ctx, comment.ID)
}

// GetComments returns a post's comments if the viewer can see the post.
func (s *EngagementService) GetComments(ctx context.Context, viewerID, postID uint, limit, offset int) ([]models.Comment, error) {
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
	return s.comments.GetByPostID(ctx, postID, limit, offset)
}

// DeleteComment removes a comment. Allowed for the comment's author and
// for the post's author.
func (s *EngagementService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		post, err := s.posts.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post.AuthorID != userID {
			return models.NewNotFoundError("Comment", commentID)
		}
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

// ToggleRepost reposts the post if the user has not reposted it, removes
// the repost otherwise. Reposting does not extend the post's life. Returns
// whether the user now reposts it.
func (s *EngagementService) ToggleRepost(ctx context.Context, userID, postID uint) (bool, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return false, err
	}
	decision, err := s.visibility.CanMutate(ctx, userID, post)
	if err != nil {
		return false, err
	}
	if !decision.Allowed {
		return false, DenialError(decision, postID)
	}
	if post.Author.IsPrivate {
		return false, models.NewValidationError("Posts from private accounts cannot be reposted")
	}

	created, err := s.engagement.GetOrCreateRepost(ctx, postID, userID)
	if err != nil {
		return false, err
	}
	if created {
		if err := s.engagement.IncrementReposts(ctx, postID); err != nil {
			return false, err
		}
		if err := s.engagement.MarkReacted(ctx, userID, postID); err != nil {
			observability.Logger.WarnContext(ctx, "failed to record interaction",
				"post_id", postID, "user_id", userID, "error", err)
		}
		cache.InvalidatePost(ctx, postID)
		if post.AuthorID != userID {
			actor := userID
			if err := s.notify.Notify(ctx, post.AuthorID, models.NotificationRepost, &actor, &postID, nil); err != nil {
				observability.Logger.WarnContext(ctx, "failed to send repost notification",
					"post_id", postID, "error", err)
			}
		}
		return true, nil
	}

	deleted, err := s.engagement.DeleteRepost(ctx, postID, userID)
	if err != nil {
		return false, err
	}
	if deleted {
		if err := s.engagement.DecrementReposts(ctx, postID); err != nil {
			return false, err
		}
		cache.InvalidatePost(ctx, postID)
	}
	return false, nil
}

// VotePoll records the user's vote on a post's poll.
func (s *EngagementService) VotePoll(ctx context.Context, userID, postID, optionID uint) (*models.Poll, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	decision, err := s.visibility.CanMutate(ctx, userID, post)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, DenialError(decision, postID)
	}
	if post.PostType != models.PostTypePoll {
		return nil, models.NewValidationError("Post does not have a poll")
	}

	poll, err := s.polls.GetByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	valid := false
	for _, option := range poll.Options {
		if option.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, models.NewValidationError("Invalid poll option")
	}

	if err := s.polls.Vote(ctx, userID, poll.ID, optionID); err != nil {
		return nil, err
	}
	if err := s.engagement.MarkReacted(ctx, userID, postID); err != nil {
		observability.Logger.WarnContext(ctx, "failed to record interaction",
			"post_id", postID, "user_id", userID, "error", err)
	}
	return s.polls.GetByPostID(ctx, postID)
}
