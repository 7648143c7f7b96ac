package service

import (
	"context"
	"time"

	"reservo/internal/models"
)

type businessRepoStub struct {
	createFn       func(context.Context, *models.Business) error
	getByIDFn      func(context.Context, uint) (*models.Business, error)
	listFn         func(context.Context, *models.BusinessStatus, int, int) ([]models.Business, error)
	listByOwnerFn  func(context.Context, uint) ([]models.Business, error)
	approveFn      func(context.Context, uint) (*models.Business, error)
	forceApproveFn func(context.Context, uint, uint, time.Time) (*models.Business, error)
	rejectFn       func(context.Context, uint) (*models.Business, error)
	suspendFn      func(context.Context, uint, uint, string, time.Time) (*models.Business, *models.ModerationRequest, error)
	reinstateFn    func(context.Context, uint, uint, time.Time) (*models.Business, error)
}

func (s *businessRepoStub) Create(ctx context.Context, b *models.Business) error {
	return s.createFn(ctx, b)
}
func (s *businessRepoStub) GetByID(ctx context.Context, id uint) (*models.Business, error) {
	return s.getByIDFn(ctx, id)
}
func (s *businessRepoStub) List(ctx context.Context, status *models.BusinessStatus, limit, offset int) ([]models.Business, error) {
	return s.listFn(ctx, status, limit, offset)
}
func (s *businessRepoStub) ListByOwner(ctx context.Context, ownerID uint) ([]models.Business, error) {
	return s.listByOwnerFn(ctx, ownerID)
}
func (s *businessRepoStub) Approve(ctx context.Context, id uint) (*models.Business, error) {
	return s.approveFn(ctx, id)
}
func (s *businessRepoStub) ForceApprove(ctx context.Context, id, adminID uint, at time.Time) (*models.Business, error) {
	return s.forceApproveFn(ctx, id, adminID, at)
}
func (s *businessRepoStub) Reject(ctx context.Context, id uint) (*models.Business, error) {
	return s.rejectFn(ctx, id)
}
func (s *businessRepoStub) Suspend(ctx context.Context, id, adminID uint, reason string, at time.Time) (*models.Business, *models.ModerationRequest, error) {
	return s.suspendFn(ctx, id, adminID, reason, at)
}
func (s *businessRepoStub) Reinstate(ctx context.Context, id, adminID uint, at time.Time) (*models.Business, error) {
	return s.reinstateFn(ctx, id, adminID, at)
}

type requestRepoStub struct {
	createPendingFn      func(context.Context, *models.ModerationRequest) error
	getByIDFn            func(context.Context, uint) (*models.ModerationRequest, error)
	latestUnsuspensionFn func(context.Context, uint) (*models.ModerationRequest, error)
	listPendingFn        func(context.Context, *models.ModerationRequestType, int, int) ([]models.ModerationRequest, error)
	listByBusinessFn     func(context.Context, uint) ([]models.ModerationRequest, error)
	markRespondedFn      func(context.Context, uint, models.ModerationRequestStatus, uint, *string, time.Time) (*models.ModerationRequest, error)
}

func (s *requestRepoStub) CreatePending(ctx context.Context, r *models.ModerationRequest) error {
	return s.createPendingFn(ctx, r)
}
func (s *requestRepoStub) GetByID(ctx context.Context, id uint) (*models.ModerationRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *requestRepoStub) LatestUnsuspension(ctx context.Context, businessID uint) (*models.ModerationRequest, error) {
	return s.latestUnsuspensionFn(ctx, businessID)
}
func (s *requestRepoStub) ListPending(ctx context.Context, t *models.ModerationRequestType, limit, offset int) ([]models.ModerationRequest, error) {
	return s.listPendingFn(ctx, t, limit, offset)
}
func (s *requestRepoStub) ListByBusiness(ctx context.Context, businessID uint) ([]models.ModerationRequest, error) {
	return s.listByBusinessFn(ctx, businessID)
}
func (s *requestRepoStub) MarkResponded(ctx context.Context, id uint, status models.ModerationRequestStatus, by uint, resp *string, at time.Time) (*models.ModerationRequest, error) {
	return s.markRespondedFn(ctx, id, status, by, resp, at)
}

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	listAdminsFn    func(context.Context) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error {
	return s.updateFn(ctx, u)
}
func (s *userRepoStub) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.listAdminsFn(ctx)
}

// notifierStub records every delivery so tests can assert on fan-out.
type notifierStub struct {
	direct    []string
	broadcast []string
}

func (s *notifierStub) Notify(_ context.Context, recipient *models.User, subject, _ string, _ map[string]interface{}) {
	if recipient == nil {
		return
	}
	s.direct = append(s.direct, subject)
}

func (s *notifierStub) NotifyAll(_ context.Context, recipients []models.User, subject, _ string, _ map[string]interface{}) {
	for range recipients {
		s.broadcast = append(s.broadcast, subject)
	}
}

type reinstaterStub struct {
	fn func(context.Context, uint, uint) (*models.Business, error)
}

func (s *reinstaterStub) ReinstateFromRequest(ctx context.Context, adminID, businessID uint) (*models.Business, error) {
	return s.fn(ctx, adminID, businessID)
}

func noopBusinessRepo() *businessRepoStub {
	return &businessRepoStub{
		createFn:  func(context.Context, *models.Business) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.Business, error) { return &models.Business{}, nil },
		listFn: func(context.Context, *models.BusinessStatus, int, int) ([]models.Business, error) {
			return nil, nil
		},
		listByOwnerFn: func(context.Context, uint) ([]models.Business, error) { return nil, nil },
		approveFn:     func(context.Context, uint) (*models.Business, error) { return &models.Business{}, nil },
		forceApproveFn: func(context.Context, uint, uint, time.Time) (*models.Business, error) {
			return &models.Business{}, nil
		},
		rejectFn: func(context.Context, uint) (*models.Business, error) { return &models.Business{}, nil },
		suspendFn: func(context.Context, uint, uint, string, time.Time) (*models.Business, *models.ModerationRequest, error) {
			return &models.Business{}, &models.ModerationRequest{}, nil
		},
		reinstateFn: func(context.Context, uint, uint, time.Time) (*models.Business, error) {
			return &models.Business{}, nil
		},
	}
}

func noopRequestRepo() *requestRepoStub {
	return &requestRepoStub{
		createPendingFn: func(context.Context, *models.ModerationRequest) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.ModerationRequest, error) {
			return &models.ModerationRequest{}, nil
		},
		latestUnsuspensionFn: func(context.Context, uint) (*models.ModerationRequest, error) { return nil, nil },
		listPendingFn: func(context.Context, *models.ModerationRequestType, int, int) ([]models.ModerationRequest, error) {
			return nil, nil
		},
		listByBusinessFn: func(context.Context, uint) ([]models.ModerationRequest, error) { return nil, nil },
		markRespondedFn: func(_ context.Context, id uint, status models.ModerationRequestStatus, by uint, resp *string, at time.Time) (*models.ModerationRequest, error) {
			return &models.ModerationRequest{ID: id, Status: status, RespondedBy: &by, AdminResponse: resp, RespondedAt: &at}, nil
		},
	}
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
		updateFn:        func(context.Context, *models.User) error { return nil },
		listAdminsFn:    func(context.Context) ([]models.User, error) { return nil, nil },
	}
}
