package server

import (
	"reservo/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RegisterBusinessRequest is the payload for creating a business listing.
type RegisterBusinessRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UnsuspensionRequestBody is the payload for a reinstatement appeal.
type UnsuspensionRequestBody struct {
	Reason string `json:"reason"`
}

// GetBusinesses handles GET /api/businesses.
// @Summary Browse the public directory
// @Description List approved businesses, newest first.
// @Tags businesses
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Business
// @Router /businesses [get]
func (s *Server) GetBusinesses(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page := parsePagination(c, 20)

	businesses, err := s.lifecycle.ListPublic(ctx, page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(businesses)
}

// GetBusiness handles GET /api/businesses/:id.
// @Summary Get a business
// @Tags businesses
// @Produce json
// @Param id path int true "Business ID"
// @Success 200 {object} models.Business
// @Failure 404 {object} models.ErrorResponse
// @Router /businesses/{id} [get]
func (s *Server) GetBusiness(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	business, err := s.lifecycle.GetBusiness(ctx, id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(business)
}

// GetMyBusinesses handles GET /api/businesses/me.
// @Summary List my businesses
// @Description Every business owned by the caller, in any status.
// @Tags businesses
// @Produce json
// @Success 200 {array} models.Business
// @Security BearerAuth
// @Router /businesses/me [get]
func (s *Server) GetMyBusinesses(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	businesses, err := s.lifecycle.ListOwned(ctx, userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(businesses)
}

// RegisterBusiness handles POST /api/businesses.
// @Summary Register a business
// @Description Create a new listing in pending status, awaiting review.
// @Tags businesses
// @Accept json
// @Produce json
// @Param body body RegisterBusinessRequest true "Listing details"
// @Success 201 {object} models.Business
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /businesses [post]
func (s *Server) RegisterBusiness(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req RegisterBusinessRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	business, err := s.lifecycle.RegisterBusiness(ctx, userID, req.Name, req.Description)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(business)
}

// CreateUnsuspensionRequest handles POST /api/businesses/:id/unsuspension-request.
// @Summary Request reinstatement
// @Description File an appeal against a suspension. One pending appeal per
// @Description business; resolved appeals start a 24 hour cooldown.
// @Tags requests
// @Accept json
// @Produce json
// @Param id path int true "Business ID"
// @Param body body UnsuspensionRequestBody true "Appeal reason"
// @Success 201 {object} models.Business
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /businesses/{id}/unsuspension-request [post]
func (s *Server) CreateUnsuspensionRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	var req UnsuspensionRequestBody
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.ledger.CreateUnsuspensionRequest(ctx, actor, id, req.Reason); err != nil {
		return respondAppError(c, err)
	}

	// The existing client contract expects the business back, with the
	// mirror fields reflecting the freshly filed request.
	business, err := s.businessRepo.GetByID(ctx, id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(business)
}

// GetBusinessRequests handles GET /api/businesses/:id/requests.
// @Summary Moderation history of a business
// @Description Full ledger for one business, newest first. Owner or admin only.
// @Tags requests
// @Produce json
// @Param id path int true "Business ID"
// @Success 200 {array} models.ModerationRequest
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /businesses/{id}/requests [get]
func (s *Server) GetBusinessRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	requests, err := s.ledger.GetBusinessRequests(ctx, actor, id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(requests)
}
