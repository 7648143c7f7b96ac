package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reservo/internal/authz"
	"reservo/internal/models"
	"reservo/internal/observability"
	"reservo/internal/repository"
)

// unsuspensionCooldown is how long an owner must wait between unsuspension
// requests for the same business.
const unsuspensionCooldown = 24 * time.Hour

// maxReasonLength bounds free-text reasons and admin responses.
const maxReasonLength = 2000

// BusinessReinstater is the cascade target used when an approved unsuspension
// request has to flip the business itself back to approved.
type BusinessReinstater interface {
	ReinstateFromRequest(ctx context.Context, adminID, businessID uint) (*models.Business, error)
}

// ApprovalResult reports the outcome of approving a request. The approval
// itself is committed before the reinstatement cascade runs; when the cascade
// fails the request stays approved and ReinstateErr carries the follow-up
// work an operator has to do.
type ApprovalResult struct {
	Request      *models.ModerationRequest `json:"request"`
	Business     *models.Business          `json:"business,omitempty"`
	ReinstateErr error                     `json:"-"`
}

// LedgerService manages the append-only moderation request ledger: owners file
// unsuspension appeals into it, admins resolve them out of it.
type LedgerService struct {
	requestRepo  repository.ModerationRequestRepository
	businessRepo repository.BusinessRepository
	userRepo     repository.UserRepository
	notify       OwnerNotifier
	reinstater   BusinessReinstater
	audit        *observability.AuditLogger

	now func() time.Time
}

// NewLedgerService returns a new LedgerService.
func NewLedgerService(
	requestRepo repository.ModerationRequestRepository,
	businessRepo repository.BusinessRepository,
	userRepo repository.UserRepository,
	notify OwnerNotifier,
	reinstater BusinessReinstater,
) *LedgerService {
	return &LedgerService{
		requestRepo:  requestRepo,
		businessRepo: businessRepo,
		userRepo:     userRepo,
		notify:       notify,
		reinstater:   reinstater,
		audit:        observability.NewAuditLogger("ledger"),
		now:          time.Now,
	}
}

// CreateUnsuspensionRequest files an owner's appeal against a suspension.
// Preconditions run in order: the business must exist, belong to the actor,
// be suspended, carry a usable reason, and be outside the cooldown window.
func (s *LedgerService) CreateUnsuspensionRequest(ctx context.Context, actor authz.Actor, businessID uint, reason string) (*models.ModerationRequest, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	if !authz.Can(actor, business.OwnerID, authz.ActionAppeal) {
		return nil, models.NewForbiddenError("only the business owner can request reinstatement")
	}

	if business.Status != models.BusinessStatusSuspended {
		return nil, models.NewInvalidStateError(
			fmt.Sprintf("cannot request unsuspension for a business in status %q", business.Status))
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.NewValidationError("a reason for reinstatement is required")
	}
	if len(reason) > maxReasonLength {
		return nil, models.NewValidationError(
			fmt.Sprintf("reason must be at most %d characters", maxReasonLength))
	}

	now := s.now()
	latest, err := s.requestRepo.LatestUnsuspension(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		if remaining, limited := cooldownRemaining(latest, now); limited {
			s.audit.LogDenied(ctx, actor.ID, "create_unsuspension_request", "cooldown active")
			return nil, models.NewRateLimitedError(remaining)
		}
	}

	request, err := models.NewUnsuspensionRequest(business, business.Owner, reason, now)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.requestRepo.CreatePending(ctx, request); err != nil {
		if errors.Is(err, repository.ErrPendingRequestExists) {
			// Lost a race with another writer; the database index is the
			// final arbiter of the one-pending rule.
			remaining := int(unsuspensionCooldown.Hours())
			if latest != nil {
				if r, limited := cooldownRemaining(latest, now); limited {
					remaining = r
				}
			}
			return nil, models.NewRateLimitedError(remaining)
		}
		return nil, err
	}

	observability.RecordRequestCreated(string(models.ModerationRequestTypeUnsuspension))
	s.audit.LogDecision(ctx, actor.ID, "create_unsuspension_request", map[string]interface{}{
		"business_id": businessID,
		"request_id":  request.ID,
	})

	if admins, adminErr := s.userRepo.ListAdmins(ctx); adminErr == nil {
		s.notify.NotifyAll(ctx, admins,
			"New unsuspension request",
			fmt.Sprintf("Business %q has asked to be reinstated: %s", business.Name, reason),
			map[string]interface{}{"business_id": businessID, "request_id": request.ID})
	}

	return request, nil
}

// cooldownRemaining reports whether the latest unsuspension request still
// blocks a new one, and if so for how many whole hours. A pending request
// always blocks; a resolved one blocks until the cooldown has elapsed since
// it was filed.
func cooldownRemaining(latest *models.ModerationRequest, now time.Time) (int, bool) {
	elapsed := now.Sub(latest.RequestedAt)
	if latest.Status != models.ModerationRequestStatusPending && elapsed >= unsuspensionCooldown {
		return 0, false
	}
	remaining := int(unsuspensionCooldown.Hours()) - int(elapsed.Hours())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// GetPendingRequests returns the admin review queue, newest first.
func (s *LedgerService) GetPendingRequests(ctx context.Context, actor authz.Actor, requestType *models.ModerationRequestType, limit, offset int) ([]models.ModerationRequest, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}
	return s.requestRepo.ListPending(ctx, requestType, limit, offset)
}

// GetBusinessRequests returns the full moderation history of one business,
// visible to admins and the owner.
func (s *LedgerService) GetBusinessRequests(ctx context.Context, actor authz.Actor, businessID uint) ([]models.ModerationRequest, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, business.OwnerID, authz.ActionViewRequests) {
		return nil, models.NewForbiddenError("you cannot view this business's moderation history")
	}
	return s.requestRepo.ListByBusiness(ctx, businessID)
}

// GetRequestByID returns one ledger entry, visible to admins and the owner of
// the business it concerns.
func (s *LedgerService) GetRequestByID(ctx context.Context, actor authz.Actor, requestID uint) (*models.ModerationRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	business, err := s.businessRepo.GetByID(ctx, request.BusinessID)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, business.OwnerID, authz.ActionViewRequests) {
		return nil, models.NewForbiddenError("you cannot view this request")
	}
	return request, nil
}

// ApproveRequest resolves a pending request as approved. For unsuspension
// requests the business is reinstated afterwards; if that cascade fails the
// approval stands and the error is reported in the result rather than rolling
// the decision back.
func (s *LedgerService) ApproveRequest(ctx context.Context, actor authz.Actor, requestID uint, response string) (*ApprovalResult, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}
	responsePtr, err := normalizeResponse(response)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.MarkResponded(ctx, requestID,
		models.ModerationRequestStatusApproved, actor.ID, responsePtr, s.now())
	if err != nil {
		return nil, err
	}

	observability.RecordRequestResolved(string(request.RequestType), string(models.ModerationRequestStatusApproved))
	s.audit.LogDecision(ctx, actor.ID, "approve_request", map[string]interface{}{
		"request_id":  requestID,
		"business_id": request.BusinessID,
	})

	result := &ApprovalResult{Request: request}

	if request.RequestType == models.ModerationRequestTypeUnsuspension {
		business, reinstateErr := s.reinstater.ReinstateFromRequest(ctx, actor.ID, request.BusinessID)
		if reinstateErr != nil {
			s.audit.LogError(ctx, "reinstate_after_approval", reinstateErr)
			result.ReinstateErr = models.NewDegradedError(
				"request approved but the business could not be reinstated", reinstateErr)
			return result, nil
		}
		result.Business = business
		s.notify.Notify(ctx, business.Owner,
			"Your reinstatement request was approved",
			fmt.Sprintf("Business %q is back on the marketplace.", business.Name),
			map[string]interface{}{"business_id": business.ID, "request_id": requestID})
	}

	return result, nil
}

// RejectRequest resolves a pending request as rejected and tells the owner.
func (s *LedgerService) RejectRequest(ctx context.Context, actor authz.Actor, requestID uint, response string) (*models.ModerationRequest, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}
	responsePtr, err := normalizeResponse(response)
	if err != nil {
		return nil, err
	}
	// A rejection without an explanation is useless to the owner.
	if responsePtr == nil {
		return nil, models.NewValidationError("Response is required when rejecting a request")
	}

	request, err := s.requestRepo.MarkResponded(ctx, requestID,
		models.ModerationRequestStatusRejected, actor.ID, responsePtr, s.now())
	if err != nil {
		return nil, err
	}

	observability.RecordRequestResolved(string(request.RequestType), string(models.ModerationRequestStatusRejected))
	s.audit.LogDecision(ctx, actor.ID, "reject_request", map[string]interface{}{
		"request_id":  requestID,
		"business_id": request.BusinessID,
	})

	if business, bizErr := s.businessRepo.GetByID(ctx, request.BusinessID); bizErr == nil {
		body := fmt.Sprintf("Your request for business %q was declined: %s", business.Name, *responsePtr)
		s.notify.Notify(ctx, business.Owner,
			"Your reinstatement request was declined", body,
			map[string]interface{}{"business_id": business.ID, "request_id": requestID})
	}

	return request, nil
}

func normalizeResponse(response string) (*string, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, nil
	}
	if len(response) > maxReasonLength {
		return nil, models.NewValidationError(
			fmt.Sprintf("response must be at most %d characters", maxReasonLength))
	}
	return &response, nil
}
