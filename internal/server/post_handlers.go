package server

import (
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		PostType           string   `json:"post_type"`
		Text               string   `json:"text"`
		ContentURL         string   `json:"content_url"`
		InitialLifeSeconds int      `json:"initial_life_seconds"`
		PollQuestion       string   `json:"poll_question"`
		PollOptions        []string `json:"poll_options"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		AuthorID:           userID,
		PostType:           req.PostType,
		Text:               req.Text,
		ContentURL:         req.ContentURL,
		InitialLifeSeconds: req.InitialLifeSeconds,
		PollQuestion:       req.PollQuestion,
		PollOptions:        req.PollOptions,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetPostsByTag handles GET /api/posts/tagged/:tag
func (s *Server) GetPostsByTag(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	posts, err := s.postService.GetPostsByTag(c.Context(), c.Params("tag"), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id", "user ID")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	posts, err := s.postService.GetUserPosts(c.Context(), currentUserID(c), authorID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), userID, postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PinPost handles PUT /api/posts/:id/pin
func (s *Server) PinPost(c *fiber.Ctx) error {
	return s.setPinned(c, true)
}

// UnpinPost handles DELETE /api/posts/:id/pin
func (s *Server) UnpinPost(c *fiber.Ctx) error {
	return s.setPinned(c, false)
}

func (s *Server) setPinned(c *fiber.Ctx, pinned bool) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	post, err := s.postService.SetPinned(c.Context(), userID, postID, pinned)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// SetCommentsDisabled handles PUT /api/posts/:id/comments-disabled
func (s *Server) SetCommentsDisabled(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.SetCommentsDisabled(c.Context(), userID, postID, req.Disabled)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
