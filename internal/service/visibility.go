// Package service implements business rules on top of the repositories.
package service

import (
	"context"

	"pulse/internal/clock"
	"pulse/internal/models"
	"pulse/internal/repository"
)

// Deny reasons returned by the visibility policy. The HTTP layer collapses
// all of them into a uniform not-found so callers cannot distinguish
// expired from private.
const (
	DenyExpired = "expired"
	DenyPrivate = "private"
)

// Decision is the outcome of a visibility check.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// VisibilityPolicy is the access gate combining expiry and privacy rules.
type VisibilityPolicy struct {
	follows repository.FollowRepository
	clock   clock.Clock
}

// NewVisibilityPolicy creates a visibility policy.
func NewVisibilityPolicy(follows repository.FollowRepository, clk clock.Clock) *VisibilityPolicy {
	return &VisibilityPolicy{follows: follows, clock: clk}
}

// CanView decides whether the viewer may see the post. The post's Author
// must be preloaded. viewerID 0 means anonymous.
//
// A post counts as expired for reading once its deadline passes, even
// before the sweeper flags it; only the author keeps read access then.
func (v *VisibilityPolicy) CanView(ctx context.Context, viewerID uint, post *models.Post) (Decision, error) {
	if (post.IsExpired || post.ExpiredAt(v.clock.Now())) && viewerID != post.AuthorID {
		return deny(DenyExpired), nil
	}

	if post.Author.IsPrivate && viewerID != post.AuthorID {
		if viewerID == 0 {
			return deny(DenyPrivate), nil
		}
		following, err := v.follows.IsAcceptedFollower(ctx, viewerID, post.AuthorID)
		if err != nil {
			return deny(DenyPrivate), err
		}
		if !following {
			return deny(DenyPrivate), nil
		}
	}

	return allow, nil
}

// CanMutate decides whether the viewer may like/comment/repost/vote on the
// post. Write access requires view access and an unexpired post; the
// expiry clause is absolute, the author cannot engage with their own
// expired post either.
//
// Deliberately only the is_expired flag gates writes here: between the
// deadline passing and the sweeper claiming the post, a like may still land
// and extend the post. The engine's compare-and-set resolves that race.
func (v *VisibilityPolicy) CanMutate(ctx context.Context, viewerID uint, post *models.Post) (Decision, error) {
	if post.IsExpired {
		return deny(DenyExpired), nil
	}

	if post.Author.IsPrivate && viewerID != post.AuthorID {
		if viewerID == 0 {
			return deny(DenyPrivate), nil
		}
		following, err := v.follows.IsAcceptedFollower(ctx, viewerID, post.AuthorID)
		if err != nil {
			return deny(DenyPrivate), err
		}
		if !following {
			return deny(DenyPrivate), nil
		}
	}

	return allow, nil
}

// DenialError converts a deny decision into the user-facing error: expiry
// denials on writes surface as PostExpired, everything else as the uniform
// not-found.
func DenialError(d Decision, postID uint) error {
	if d.Allowed {
		return nil
	}
	if d.Reason == DenyExpired {
		return models.NewPostExpiredError(postID)
	}
	return models.NewNotFoundError("Post", postID)
}
