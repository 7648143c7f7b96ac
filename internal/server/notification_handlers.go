package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// GetMyNotifications handles GET /api/notifications/me.
// @Summary List my in-app notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.SystemNotification
// @Security BearerAuth
// @Router /notifications/me [get]
func (s *Server) GetMyNotifications(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	notices, err := s.notificationRepo.ListByRecipient(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(notices)
}

// MarkNotificationRead handles POST /api/notifications/:id/read.
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationRepo.MarkRead(ctx, id, userID, time.Now().UTC()); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}
