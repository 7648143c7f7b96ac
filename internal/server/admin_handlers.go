package server

import (
	"reservo/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ModerationDecisionBody is the optional payload for admin decisions.
type ModerationDecisionBody struct {
	Reason   string `json:"reason,omitempty"`
	Response string `json:"response,omitempty"`
}

// ApprovalResponse is the payload returned when a request is approved. When
// the reinstatement cascade fails the approval still stands; Warning carries
// the degradation so the admin UI can surface it.
type ApprovalResponse struct {
	Request  *models.ModerationRequest `json:"request"`
	Business *models.Business          `json:"business,omitempty"`
	Warning  string                    `json:"warning,omitempty"`
}

func parseDecisionBody(c *fiber.Ctx) (ModerationDecisionBody, bool) {
	var body ModerationDecisionBody
	if len(c.Body()) == 0 {
		return body, true
	}
	if err := c.BodyParser(&body); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return body, false
	}
	return body, true
}

// GetAdminBusinesses handles GET /api/admin/businesses.
// @Summary List businesses for review
// @Description Businesses in any status, optionally filtered by ?status=.
// @Tags admin
// @Produce json
// @Param status query string false "pending|approved|rejected|suspended"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Business
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/businesses [get]
func (s *Server) GetAdminBusinesses(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	page := parsePagination(c, 20)

	var status *models.BusinessStatus
	if raw := c.Query("status"); raw != "" {
		st := models.BusinessStatus(raw)
		switch st {
		case models.BusinessStatusPending, models.BusinessStatusApproved,
			models.BusinessStatusRejected, models.BusinessStatusSuspended:
			status = &st
		default:
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid status filter"))
		}
	}

	businesses, err := s.lifecycle.ListForAdmin(ctx, actor, status, page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(businesses)
}

// ApproveBusiness handles POST /api/admin/businesses/:id/approve.
// @Summary Approve a pending business
// @Tags admin
// @Produce json
// @Param id path int true "Business ID"
// @Success 200 {object} models.Business
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/businesses/{id}/approve [post]
func (s *Server) ApproveBusiness(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	business, err := s.lifecycle.ApproveBusiness(ctx, actor, id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(business)
}

// ForceApproveBusiness handles POST /api/admin/businesses/:id/force-approve.
// @Summary Approve a business from any state
// @Description Feature-flagged override that approves a rejected or suspended
// @Description business directly, closing out any pending appeal.
// @Tags admin
// @Produce json
// @Param id path int true "Business ID"
// @Success 200 {object} models.Business
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/businesses/{id}/force-approve [post]
func (s *Server) ForceApproveBusiness(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	business, err := s.lifecycle.ForceApproveBusiness(ctx, actor, id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(business)
}

// RejectBusiness handles POST /api/admin/businesses/:id/reject.
// @Summary Reject a pending business
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Business ID"
// @Param body body ModerationDecisionBody false "Optional reason"
// @Success 200 {object} models.Business
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/businesses/{id}/reject [post]
func (s *Server) RejectBusiness(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	body, ok := parseDecisionBody(c)
	if !ok {
		return nil
	}

	business, err := s.lifecycle.RejectBusiness(ctx, actor, id, body.Reason)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(business)
}

// SuspendBusiness handles POST /api/admin/businesses/:id/suspend.
// @Summary Suspend a business
// @Description Takes the business off the marketplace and writes the
// @Description suspension audit record in the same transaction.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Business ID"
// @Param body body ModerationDecisionBody true "Suspension reason (required)"
// @Success 200 {object} models.Business
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/businesses/{id}/suspend [post]
func (s *Server) SuspendBusiness(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	body, ok := parseDecisionBody(c)
	if !ok {
		return nil
	}

	business, err := s.lifecycle.SuspendBusiness(ctx, actor, id, body.Reason)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(business)
}

// UnsuspendBusiness handles POST /api/admin/businesses/:id/unsuspend.
// @Summary Reinstate a suspended business
// @Description Moves the business back to approved and closes out any pending
// @Description appeal.
// @Tags admin
// @Produce json
// @Param id path int true "Business ID"
// @Success 200 {object} models.Business
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/businesses/{id}/unsuspend [post]
func (s *Server) UnsuspendBusiness(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	business, err := s.lifecycle.UnsuspendBusiness(ctx, actor, id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(business)
}

// GetAdminRequests handles GET /api/admin/requests.
// @Summary Pending request queue
// @Description Pending moderation requests, newest first, optionally filtered
// @Description by ?type=.
// @Tags admin
// @Produce json
// @Param type query string false "Request type filter"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.ModerationRequest
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/requests [get]
func (s *Server) GetAdminRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	page := parsePagination(c, 20)

	var requestType *models.ModerationRequestType
	if raw := c.Query("type"); raw != "" {
		rt := models.ModerationRequestType(raw)
		requestType = &rt
	}

	requests, err := s.ledger.GetPendingRequests(ctx, actor, requestType, page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(requests)
}

// GetRequest handles GET /api/admin/requests/:id.
// @Summary Get a moderation request
// @Tags admin
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} models.ModerationRequest
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/requests/{id} [get]
func (s *Server) GetRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	request, err := s.ledger.GetRequestByID(ctx, actor, id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(request)
}

// ApproveRequest handles POST /api/admin/requests/:id/approve.
// @Summary Approve a moderation request
// @Description Resolves the request as approved. For unsuspension requests the
// @Description business is reinstated; if that follow-up fails the approval
// @Description still stands and the response carries a warning.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param body body ModerationDecisionBody false "Optional response to the owner"
// @Success 200 {object} ApprovalResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/requests/{id}/approve [post]
func (s *Server) ApproveRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	body, ok := parseDecisionBody(c)
	if !ok {
		return nil
	}

	result, err := s.ledger.ApproveRequest(ctx, actor, id, body.Response)
	if err != nil {
		return respondAppError(c, err)
	}

	resp := ApprovalResponse{Request: result.Request, Business: result.Business}
	if result.ReinstateErr != nil {
		resp.Warning = result.ReinstateErr.Error()
	}
	return c.JSON(resp)
}

// RejectRequest handles POST /api/admin/requests/:id/reject.
// @Summary Reject a moderation request
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param body body ModerationDecisionBody true "Response to the owner"
// @Success 200 {object} models.ModerationRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/requests/{id}/reject [post]
func (s *Server) RejectRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	body, ok := parseDecisionBody(c)
	if !ok {
		return nil
	}

	request, err := s.ledger.RejectRequest(ctx, actor, id, body.Response)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(request)
}
