package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/me/feed?mode=following|for_you
func (s *Server) GetFeed(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 20)
	mode := c.Query("mode")

	posts, err := s.feedService.Compose(c.Context(), userID, mode, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetTrending handles GET /api/posts/trending
func (s *Server) GetTrending(c *fiber.Ctx) error {
	posts, err := s.feedService.Trending(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}
