package repository

import (
	"context"
	"errors"
	"time"

	"reservo/internal/cache"
	"reservo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPendingRequestExists is returned when inserting a pending unsuspension
// request collides with one that is already open for the same business. The
// partial unique index on moderation_requests enforces this at the database
// level, so two racing owners cannot both get a pending row.
var ErrPendingRequestExists = errors.New("a pending unsuspension request already exists for this business")

// ModerationRequestRepository defines persistence operations for the
// append-only moderation ledger. Rows are never deleted; resolution happens by
// flipping a pending row to a terminal status exactly once.
type ModerationRequestRepository interface {
	CreatePending(ctx context.Context, request *models.ModerationRequest) error
	GetByID(ctx context.Context, id uint) (*models.ModerationRequest, error)
	LatestUnsuspension(ctx context.Context, businessID uint) (*models.ModerationRequest, error)
	ListPending(ctx context.Context, requestType *models.ModerationRequestType, limit, offset int) ([]models.ModerationRequest, error)
	ListByBusiness(ctx context.Context, businessID uint) ([]models.ModerationRequest, error)
	MarkResponded(ctx context.Context, id uint, status models.ModerationRequestStatus, respondedBy uint, response *string, at time.Time) (*models.ModerationRequest, error)
}

type moderationRequestRepository struct {
	db *gorm.DB
}

// NewModerationRequestRepository returns a new ModerationRequestRepository implementation.
func NewModerationRequestRepository(db *gorm.DB) ModerationRequestRepository {
	return &moderationRequestRepository{db: db}
}

// CreatePending inserts a pending request and, for unsuspension requests,
// mirrors the marker onto the business row in the same transaction.
func (r *moderationRequestRepository) CreatePending(ctx context.Context, request *models.ModerationRequest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrPendingRequestExists
			}
			return models.NewInternalError(err)
		}

		if request.RequestType != models.ModerationRequestTypeUnsuspension {
			return nil
		}

		if err := tx.Model(&models.Business{}).
			Where("id = ?", request.BusinessID).
			Updates(map[string]interface{}{
				"unsuspension_requested_at":   request.RequestedAt,
				"unsuspension_request_reason": request.Reason,
			}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateBusiness(ctx, request.BusinessID)
	return nil
}

func (r *moderationRequestRepository) GetByID(ctx context.Context, id uint) (*models.ModerationRequest, error) {
	var request models.ModerationRequest
	if err := r.db.WithContext(ctx).Preload("Responder").First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Moderation request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

// LatestUnsuspension returns the newest unsuspension request for a business
// regardless of status, or nil when the business never asked for one.
func (r *moderationRequestRepository) LatestUnsuspension(ctx context.Context, businessID uint) (*models.ModerationRequest, error) {
	var request models.ModerationRequest
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND request_type = ?", businessID, models.ModerationRequestTypeUnsuspension).
		Order("requested_at DESC").
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *moderationRequestRepository) ListPending(ctx context.Context, requestType *models.ModerationRequestType, limit, offset int) ([]models.ModerationRequest, error) {
	var requests []models.ModerationRequest
	q := r.db.WithContext(ctx).
		Where("status = ?", models.ModerationRequestStatusPending).
		Order("requested_at DESC").
		Limit(limit).
		Offset(offset)
	if requestType != nil {
		q = q.Where("request_type = ?", *requestType)
	}
	if err := q.Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *moderationRequestRepository) ListByBusiness(ctx context.Context, businessID uint) ([]models.ModerationRequest, error) {
	var requests []models.ModerationRequest
	if err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Preload("Responder").
		Order("requested_at DESC").
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

// MarkResponded resolves a pending request to a terminal status. The update is
// guarded on status = pending, so when two admins race only one decision
// lands; the loser gets a conflict carrying the winning outcome.
func (r *moderationRequestRepository) MarkResponded(ctx context.Context, id uint, status models.ModerationRequestStatus, respondedBy uint, response *string, at time.Time) (*models.ModerationRequest, error) {
	var resolved *models.ModerationRequest

	txErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.ModerationRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&request, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Moderation request", id)
			}
			return models.NewInternalError(err)
		}

		if request.Status != models.ModerationRequestStatusPending {
			return models.NewConflictError(
				"request has already been resolved as " + string(request.Status))
		}

		updates := map[string]interface{}{
			"status":         status,
			"responded_at":   at,
			"responded_by":   respondedBy,
			"admin_response": response,
		}
		if err := tx.Model(&request).Updates(updates).Error; err != nil {
			return models.NewInternalError(err)
		}

		request.Status = status
		request.RespondedAt = &at
		request.RespondedBy = &respondedBy
		request.AdminResponse = response
		resolved = &request
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return resolved, nil
}
