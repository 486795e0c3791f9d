package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/follows/:userId
func (s *Server) FollowUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	followeeID, err := s.parseID(c, "userId", "user ID")
	if err != nil {
		return nil
	}

	follow, err := s.userService.Follow(c.Context(), userID, followeeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles DELETE /api/follows/:userId
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	followeeID, err := s.parseID(c, "userId", "user ID")
	if err != nil {
		return nil
	}

	if err := s.userService.Unfollow(c.Context(), userID, followeeID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowRequests handles GET /api/follows/requests
func (s *Server) GetFollowRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	requests, err := s.userService.PendingRequests(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// AcceptFollowRequest handles POST /api/follows/requests/:userId/accept
func (s *Server) AcceptFollowRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	followerID, err := s.parseID(c, "userId", "user ID")
	if err != nil {
		return nil
	}

	if err := s.userService.AcceptFollow(c.Context(), userID, followerID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RejectFollowRequest handles POST /api/follows/requests/:userId/reject
func (s *Server) RejectFollowRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	followerID, err := s.parseID(c, "userId", "user ID")
	if err != nil {
		return nil
	}

	if err := s.userService.RejectFollow(c.Context(), userID, followerID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
