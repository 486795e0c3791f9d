package server

import (
	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 50)

	items, err := s.notificationService.List(c.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": items})
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	count, err := s.notificationService.UnreadCount(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread_count": count})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id", "ID")
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkRead(c.Context(), id, userID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.notificationService.MarkAllRead(c.Context(), userID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetNotificationPreferences handles GET /api/notifications/preferences
func (s *Server) GetNotificationPreferences(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	prefs, err := s.notificationService.Preferences(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(prefs)
}

// UpdateNotificationPreferences handles PUT /api/notifications/preferences
func (s *Server) UpdateNotificationPreferences(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	prefs, err := s.notificationService.Preferences(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		NotifyLikes              *bool `json:"notify_likes"`
		NotifyComments           *bool `json:"notify_comments"`
		NotifyMentions           *bool `json:"notify_mentions"`
		NotifyFollows            *bool `json:"notify_follows"`
		NotifyMessages           *bool `json:"notify_messages"`
		NotifyReposts            *bool `json:"notify_reposts"`
		NotifyExpire             *bool `json:"notify_expire"`
		NotifyPostExpiring       *bool `json:"notify_post_expiring"`
		ExpiringThresholdSeconds *int  `json:"expiring_threshold_seconds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.NotifyLikes != nil {
		prefs.NotifyLikes = *req.NotifyLikes
	}
	if req.NotifyComments != nil {
		prefs.NotifyComments = *req.NotifyComments
	}
	if req.NotifyMentions != nil {
		prefs.NotifyMentions = *req.NotifyMentions
	}
	if req.NotifyFollows != nil {
		prefs.NotifyFollows = *req.NotifyFollows
	}
	if req.NotifyMessages != nil {
		prefs.NotifyMessages = *req.NotifyMessages
	}
	if req.NotifyReposts != nil {
		prefs.NotifyReposts = *req.NotifyReposts
	}
	if req.NotifyExpire != nil {
		prefs.NotifyExpire = *req.NotifyExpire
	}
	if req.NotifyPostExpiring != nil {
		prefs.NotifyPostExpiring = *req.NotifyPostExpiring
	}
	if req.ExpiringThresholdSeconds != nil {
		if *req.ExpiringThresholdSeconds < 0 || *req.ExpiringThresholdSeconds > models.MaxExpiringThresholdSeconds {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("expiring_threshold_seconds must be between 0 and 300"))
		}
		prefs.ExpiringThresholdSeconds = *req.ExpiringThresholdSeconds
	}

	prefs.UserID = userID
	if err := s.notificationService.UpdatePreferences(c.Context(), &prefs); err != nil {
		return respondError(c, err)
	}
	return c.JSON(prefs)
}
