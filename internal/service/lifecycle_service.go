// Package service implements the business logic for the moderation workflow.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reservo/internal/authz"
	"reservo/internal/featureflags"
	"reservo/internal/models"
	"reservo/internal/observability"
	"reservo/internal/repository"
)

// OwnerNotifier delivers moderation outcomes to owners and admins. Delivery is
// best effort and never fails the calling operation.
type OwnerNotifier interface {
	Notify(ctx context.Context, recipient *models.User, subject, body string, meta map[string]interface{})
	NotifyAll(ctx context.Context, recipients []models.User, subject, body string, meta map[string]interface{})
}

// LifecycleService drives business status transitions: approval of new
// registrations, rejection, suspension and reinstatement.
type LifecycleService struct {
	businessRepo repository.BusinessRepository
	userRepo     repository.UserRepository
	notify       OwnerNotifier
	flags        *featureflags.Manager
	audit        *observability.AuditLogger

	now func() time.Time
}

// NewLifecycleService returns a new LifecycleService.
func NewLifecycleService(
	businessRepo repository.BusinessRepository,
	userRepo repository.UserRepository,
	notify OwnerNotifier,
	flags *featureflags.Manager,
) *LifecycleService {
	return &LifecycleService{
		businessRepo: businessRepo,
		userRepo:     userRepo,
		notify:       notify,
		flags:        flags,
		audit:        observability.NewAuditLogger("lifecycle"),
		now:          time.Now,
	}
}

// GetBusiness returns a single business with its owner loaded.
func (s *LifecycleService) GetBusiness(ctx context.Context, id uint) (*models.Business, error) {
	return s.businessRepo.GetByID(ctx, id)
}

// ListPublic returns approved businesses for the public directory.
func (s *LifecycleService) ListPublic(ctx context.Context, limit, offset int) ([]models.Business, error) {
	status := models.BusinessStatusApproved
	return s.businessRepo.List(ctx, &status, limit, offset)
}

// ListForAdmin returns businesses in any status, optionally filtered.
func (s *LifecycleService) ListForAdmin(ctx context.Context, actor authz.Actor, status *models.BusinessStatus, limit, offset int) ([]models.Business, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}
	return s.businessRepo.List(ctx, status, limit, offset)
}

// ListOwned returns every business belonging to the actor, whatever its status.
func (s *LifecycleService) ListOwned(ctx context.Context, ownerID uint) ([]models.Business, error) {
	return s.businessRepo.ListByOwner(ctx, ownerID)
}

// RegisterBusiness creates a new business in pending status and tells the
// admin group a review is waiting.
func (s *LifecycleService) RegisterBusiness(ctx context.Context, ownerID uint, name, description string) (*models.Business, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("business name is required")
	}
	if len(name) > 255 {
		return nil, models.NewValidationError("business name must be at most 255 characters")
	}

	business := &models.Business{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Status:      models.BusinessStatusPending,
	}
	if err := s.businessRepo.Create(ctx, business); err != nil {
		return nil, err
	}

	if admins, err := s.userRepo.ListAdmins(ctx); err == nil {
		s.notify.NotifyAll(ctx, admins,
			"New business awaiting review",
			fmt.Sprintf("Business %q was registered and is waiting for approval.", business.Name),
			map[string]interface{}{"business_id": business.ID})
	}

	return business, nil
}

// ApproveBusiness moves a pending business to approved. Only pending
// businesses qualify; anything else is an invalid-state error.
func (s *LifecycleService) ApproveBusiness(ctx context.Context, actor authz.Actor, businessID uint) (*models.Business, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}

	business, err := s.businessRepo.Approve(ctx, businessID)
	if err != nil {
		return nil, err
	}

	observability.RecordLifecycleTransition(string(models.BusinessStatusPending), string(models.BusinessStatusApproved))
	s.audit.LogDecision(ctx, actor.ID, "approve_business", map[string]interface{}{"business_id": businessID})

	s.notify.Notify(ctx, business.Owner,
		"Your business has been approved",
		fmt.Sprintf("Business %q is now live and visible to customers.", business.Name),
		map[string]interface{}{"business_id": business.ID})

	return business, nil
}

// ForceApproveBusiness approves a business from any non-approved state. The
// endpoint only exists when the force_approve flag is on for the acting admin.
func (s *LifecycleService) ForceApproveBusiness(ctx context.Context, actor authz.Actor, businessID uint) (*models.Business, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}
	if !s.flags.Enabled(featureflags.FlagForceApprove, actor.ID) {
		s.audit.LogDenied(ctx, actor.ID, "force_approve_business", "feature disabled")
		return nil, models.NewForbiddenError("force approval is not enabled")
	}

	business, err := s.businessRepo.ForceApprove(ctx, businessID, actor.ID, s.now())
	if err != nil {
		return nil, err
	}

	observability.RecordLifecycleTransition("any", string(models.BusinessStatusApproved))
	s.audit.LogDecision(ctx, actor.ID, "force_approve_business", map[string]interface{}{"business_id": businessID})

	s.notify.Notify(ctx, business.Owner,
		"Your business has been approved",
		fmt.Sprintf("Business %q is now live and visible to customers.", business.Name),
		map[string]interface{}{"business_id": business.ID})

	return business, nil
}

// RejectBusiness moves a pending business to rejected and tells the owner why.
func (s *LifecycleService) RejectBusiness(ctx context.Context, actor authz.Actor, businessID uint, reason string) (*models.Business, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}

	business, err := s.businessRepo.Reject(ctx, businessID)
	if err != nil {
		return nil, err
	}

	observability.RecordLifecycleTransition(string(models.BusinessStatusPending), string(models.BusinessStatusRejected))
	s.audit.LogDecision(ctx, actor.ID, "reject_business", map[string]interface{}{
		"business_id": businessID,
		"reason":      reason,
	})

	body := fmt.Sprintf("Business %q did not pass review.", business.Name)
	if reason = strings.TrimSpace(reason); reason != "" {
		body = fmt.Sprintf("Business %q did not pass review: %s", business.Name, reason)
	}
	s.notify.Notify(ctx, business.Owner,
		"Your business registration was rejected", body,
		map[string]interface{}{"business_id": business.ID})

	return business, nil
}

// SuspendBusiness takes a business off the marketplace. Any status except
// suspended is a valid starting point; a pending or rejected business can be
// suspended too so its owner cannot simply re-submit around a sanction. The
// suspension and its ledger record commit atomically.
func (s *LifecycleService) SuspendBusiness(ctx context.Context, actor authz.Actor, businessID uint, reason string) (*models.Business, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.NewValidationError("a suspension reason is required")
	}

	business, record, err := s.businessRepo.Suspend(ctx, businessID, actor.ID, reason, s.now())
	if err != nil {
		return nil, err
	}

	observability.RecordLifecycleTransition("any", string(models.BusinessStatusSuspended))
	s.audit.LogDecision(ctx, actor.ID, "suspend_business", map[string]interface{}{
		"business_id": businessID,
		"record_id":   record.ID,
		"reason":      reason,
	})

	s.notify.Notify(ctx, business.Owner,
		"Your business has been suspended",
		fmt.Sprintf("Business %q was suspended: %s. You may request reinstatement once the issue is resolved.", business.Name, reason),
		map[string]interface{}{"business_id": business.ID, "record_id": record.ID})

	return business, nil
}

// UnsuspendBusiness reinstates a suspended business directly, without an owner
// appeal. Any pending unsuspension request is closed out as part of the same
// transaction.
func (s *LifecycleService) UnsuspendBusiness(ctx context.Context, actor authz.Actor, businessID uint) (*models.Business, error) {
	if !authz.Can(actor, 0, authz.ActionModerate) {
		return nil, models.NewForbiddenError("admin access required")
	}

	business, err := s.ReinstateFromRequest(ctx, actor.ID, businessID)
	if err != nil {
		return nil, err
	}

	s.audit.LogDecision(ctx, actor.ID, "unsuspend_business", map[string]interface{}{"business_id": businessID})

	s.notify.Notify(ctx, business.Owner,
		"Your business has been reinstated",
		fmt.Sprintf("Business %q is back on the marketplace.", business.Name),
		map[string]interface{}{"business_id": business.ID})

	return business, nil
}

// ReinstateFromRequest flips a suspended business back to approved. It is the
// cascade target when an unsuspension request is approved; notification of the
// owner is left to the caller so the owner hears about the decision once.
func (s *LifecycleService) ReinstateFromRequest(ctx context.Context, adminID, businessID uint) (*models.Business, error) {
	business, err := s.businessRepo.Reinstate(ctx, businessID, adminID, s.now())
	if err != nil {
		return nil, err
	}
	observability.RecordLifecycleTransition(string(models.BusinessStatusSuspended), string(models.BusinessStatusApproved))
	return business, nil
}
