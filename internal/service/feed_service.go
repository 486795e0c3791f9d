package service

import (
	"context"
	"sort"
	"time"

	"pulse/internal/cache"
	"pulse/internal/clock"
	"pulse/internal/models"
	"pulse/internal/repository"
)

// Feed modes.
const (
	FeedFollowing = "following"
	FeedForYou    = "for_you"
)

// FeedService composes the home feeds and the trending list. Feeds are
// read-only projections over live posts; expired posts never appear.
type FeedService struct {
	feed    repository.FeedRepository
	follows repository.FollowRepository
	clock   clock.Clock

	recommendedLimit int
	trendingWindow   time.Duration
	trendingLimit    int
}

// NewFeedService creates a feed service.
func NewFeedService(feed repository.FeedRepository, follows repository.FollowRepository, clk clock.Clock, trendingWindow time.Duration, trendingLimit int) *FeedService {
	return &FeedService{
		feed:             feed,
		follows:          follows,
		clock:            clk,
		recommendedLimit: 20,
		trendingWindow:   trendingWindow,
		trendingLimit:    trendingLimit,
	}
}

// Following returns live posts from the viewer and their accepted
// followees, plus originals their followees reposted, newest first.
func (s *FeedService) Following(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	followees, err := s.follows.AcceptedFolloweeIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	authors := append([]uint{viewerID}, followees...)
	posts, err := s.feed.PostsByAuthors(ctx, authors, now, limit+offset, 0)
	if err != nil {
		return nil, err
	}

	if len(followees) > 0 {
		reposted, err := s.feed.RepostedOriginals(ctx, followees, now, limit+offset)
		if err != nil {
			return nil, err
		}
		posts = mergePosts(posts, reposted)
	}

	sortNewestFirst(posts)
	return paginate(posts, limit, offset), nil
}

// ForYou returns the following feed enriched with up to 20 recommended
// posts from public or followed authors the viewer has not engaged with.
func (s *FeedService) ForYou(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	followees, err := s.follows.AcceptedFolloweeIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	authors := append([]uint{viewerID}, followees...)
	posts, err := s.feed.PostsByAuthors(ctx, authors, now, limit+offset, 0)
	if err != nil {
		return nil, err
	}

	if len(followees) > 0 {
		reposted, err := s.feed.RepostedOriginals(ctx, followees, now, limit+offset)
		if err != nil {
			return nil, err
		}
		posts = mergePosts(posts, reposted)
	}

	recommended, err := s.feed.Recommended(ctx, viewerID, followees, now, s.recommendedLimit)
	if err != nil {
		return nil, err
	}
	posts = mergePosts(posts, recommended)

	sortNewestFirst(posts)
	return paginate(posts, limit, offset), nil
}

// Compose dispatches to the feed named by mode.
func (s *FeedService) Compose(ctx context.Context, viewerID uint, mode string, limit, offset int) ([]*models.Post, error) {
	switch mode {
	case FeedFollowing, "":
		return s.Following(ctx, viewerID, limit, offset)
	case FeedForYou:
		return s.ForYou(ctx, viewerID, limit, offset)
	default:
		return nil, models.NewValidationError("Invalid feed mode")
	}
}

// Trending returns the most-liked live posts created in the recent window.
// The result is shared by all viewers and cached briefly in Redis.
func (s *FeedService) Trending(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, cache.TrendingKey, &posts, cache.TrendingTTL, func() error {
		now := s.clock.Now()
		fetched, err := s.feed.Trending(ctx, now.Add(-s.trendingWindow), now, s.trendingLimit)
		if err != nil {
			return err
		}
		posts = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// mergePosts appends extra posts that are not already present, keyed by ID.
func mergePosts(base, extra []*models.Post) []*models.Post {
	seen := make(map[uint]bool, len(base))
	for _, post := range base {
		seen[post.ID] = true
	}
	for _, post := range extra {
		if !seen[post.ID] {
			seen[post.ID] = true
			base = append(base, post)
		}
	}
	return base
}

func sortNewestFirst(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func paginate(posts []*models.Post, limit, offset int) []*models.Post {
	if offset >= len(posts) {
		return []*models.Post{}
	}
	posts = posts[offset:]
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}
