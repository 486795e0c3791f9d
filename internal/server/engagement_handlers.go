package server

import (
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	post, liked, err := s.engagementService.ToggleLike(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"liked":                  liked,
		"likes_count":            post.LikesCount,
		"expires_at":             post.ExpiresAt,
		"life_seconds_remaining": post.LifeSecondsRemaining,
	})
}

// ToggleRepost handles POST /api/posts/:id/repost
func (s *Server) ToggleRepost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	reposted, err := s.engagementService.ToggleRepost(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reposted": reposted})
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.engagementService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID: userID,
		PostID: postID,
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 50)

	comments, err := s.engagementService.GetComments(c.Context(), currentUserID(c), postID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	if err := s.engagementService.DeleteComment(c.Context(), userID, commentID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VotePoll handles POST /api/posts/:id/poll/vote
func (s *Server) VotePoll(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	var req struct {
		OptionID uint `json:"option_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.OptionID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	poll, err := s.engagementService.VotePoll(c.Context(), userID, postID, req.OptionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(poll)
}
