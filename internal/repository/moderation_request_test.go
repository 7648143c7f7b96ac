package repository

import (
	"context"
	"testing"
	"time"

	"reservo/internal/cache"
	"reservo/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationRequestRepository_CreatePending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewModerationRequestRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner")

	t.Run("mirrors the request onto the business row", func(t *testing.T) {
		business := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)

		request, err := models.NewUnsuspensionRequest(business, owner, "issue fixed", time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, repo.CreatePending(ctx, request))
		assert.NotZero(t, request.ID)

		var refreshed models.Business
		require.NoError(t, db.First(&refreshed, business.ID).Error)
		require.NotNil(t, refreshed.UnsuspensionRequestedAt)
		require.NotNil(t, refreshed.UnsuspensionRequestReason)
		assert.Equal(t, "issue fixed", *refreshed.UnsuspensionRequestReason)
	})

	t.Run("second pending request for the same business is refused", func(t *testing.T) {
		business := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)

		first, err := models.NewUnsuspensionRequest(business, owner, "first try", time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, repo.CreatePending(ctx, first))

		second, err := models.NewUnsuspensionRequest(business, owner, "second try", time.Now().UTC())
		require.NoError(t, err)
		err = repo.CreatePending(ctx, second)
		assert.ErrorIs(t, err, ErrPendingRequestExists)

		var count int64
		db.Model(&models.ModerationRequest{}).Where("business_id = ?", business.ID).Count(&count)
		assert.Equal(t, int64(1), count, "the losing insert must not leave a row behind")
	})

	t.Run("pending requests for different businesses coexist", func(t *testing.T) {
		b1 := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)
		b2 := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)

		r1, err := models.NewUnsuspensionRequest(b1, owner, "one", time.Now().UTC())
		require.NoError(t, err)
		r2, err := models.NewUnsuspensionRequest(b2, owner, "two", time.Now().UTC())
		require.NoError(t, err)

		assert.NoError(t, repo.CreatePending(ctx, r1))
		assert.NoError(t, repo.CreatePending(ctx, r2))
	})

	t.Run("a resolved request frees the slot", func(t *testing.T) {
		business := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)

		first, err := models.NewUnsuspensionRequest(business, owner, "first try", time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, repo.CreatePending(ctx, first))

		_, err = repo.MarkResponded(ctx, first.ID, models.ModerationRequestStatusRejected, 1, nil, time.Now().UTC())
		require.NoError(t, err)

		second, err := models.NewUnsuspensionRequest(business, owner, "second try", time.Now().UTC())
		require.NoError(t, err)
		assert.NoError(t, repo.CreatePending(ctx, second))
	})
}

func TestModerationRequestRepository_CreatePendingInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := setupTestDB(t)
	businesses := NewBusinessRepository(db)
	repo := NewModerationRequestRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner")
	business := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)

	// Prime the cache with the pre-appeal row.
	cached, err := businesses.GetByID(ctx, business.ID)
	require.NoError(t, err)
	require.Nil(t, cached.UnsuspensionRequestedAt)

	appeal, err := models.NewUnsuspensionRequest(business, owner, "issue fixed", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.CreatePending(ctx, appeal))

	fresh, err := businesses.GetByID(ctx, business.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.UnsuspensionRequestedAt,
		"mirror fields must be visible immediately after the appeal is filed")
}

func TestModerationRequestRepository_Queries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewModerationRequestRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner")
	business := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// An old rejected appeal, a suspension audit record, then a fresh pending
	// appeal. ListByBusiness should return them newest first.
	old, err := models.NewUnsuspensionRequest(business, owner, "too early", base.Add(-48*time.Hour))
	require.NoError(t, err)
	old.Status = models.ModerationRequestStatusRejected
	require.NoError(t, db.Create(old).Error)

	audit, err := models.NewSuspensionRecord(business, owner, 1, "fraud", base.Add(-24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, db.Create(audit).Error)

	pending, err := models.NewUnsuspensionRequest(business, owner, "issue fixed", base)
	require.NoError(t, err)
	require.NoError(t, repo.CreatePending(ctx, pending))

	t.Run("GetByID", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, pending.ID, fetched.ID)

		_, err = repo.GetByID(ctx, 9999)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})

	t.Run("LatestUnsuspension picks the newest", func(t *testing.T) {
		latest, err := repo.LatestUnsuspension(ctx, business.ID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, pending.ID, latest.ID)
	})

	t.Run("LatestUnsuspension is nil with no history", func(t *testing.T) {
		fresh := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)
		latest, err := repo.LatestUnsuspension(ctx, fresh.ID)
		assert.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("ListPending newest first with type filter", func(t *testing.T) {
		requestType := models.ModerationRequestTypeUnsuspension
		results, err := repo.ListPending(ctx, &requestType, 50, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, pending.ID, results[0].ID)
	})

	t.Run("ListByBusiness newest first includes audit records", func(t *testing.T) {
		results, err := repo.ListByBusiness(ctx, business.ID)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, pending.ID, results[0].ID)
		assert.Equal(t, audit.ID, results[1].ID)
		assert.Equal(t, old.ID, results[2].ID)
	})
}

func TestModerationRequestRepository_MarkResponded(t *testing.T) {
	db := setupTestDB(t)
	repo := NewModerationRequestRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner")

	newPending := func(t *testing.T) *models.ModerationRequest {
		t.Helper()
		business := createBusiness(t, db, owner.ID, models.BusinessStatusSuspended)
		request, err := models.NewUnsuspensionRequest(business, owner, "issue fixed", time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, repo.CreatePending(ctx, request))
		return request
	}

	t.Run("resolves exactly once", func(t *testing.T) {
		request := newPending(t)
		response := "welcome back"
		at := time.Now().UTC()

		resolved, err := repo.MarkResponded(ctx, request.ID, models.ModerationRequestStatusApproved, 1, &response, at)
		require.NoError(t, err)
		assert.Equal(t, models.ModerationRequestStatusApproved, resolved.Status)
		require.NotNil(t, resolved.RespondedBy)
		assert.Equal(t, uint(1), *resolved.RespondedBy)
		require.NotNil(t, resolved.AdminResponse)
		assert.Equal(t, response, *resolved.AdminResponse)
		assert.NotNil(t, resolved.RespondedAt)
	})

	t.Run("losing admin gets a conflict naming the outcome", func(t *testing.T) {
		request := newPending(t)

		_, err := repo.MarkResponded(ctx, request.ID, models.ModerationRequestStatusApproved, 1, nil, time.Now().UTC())
		require.NoError(t, err)

		_, err = repo.MarkResponded(ctx, request.ID, models.ModerationRequestStatusRejected, 2, nil, time.Now().UTC())
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CONFLICT", appErr.Code)
		assert.Contains(t, appErr.Message, "approved")

		// The winner's decision is untouched.
		fetched, err := repo.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ModerationRequestStatusApproved, fetched.Status)
		require.NotNil(t, fetched.RespondedBy)
		assert.Equal(t, uint(1), *fetched.RespondedBy)
	})

	t.Run("missing request", func(t *testing.T) {
		_, err := repo.MarkResponded(ctx, 9999, models.ModerationRequestStatusApproved, 1, nil, time.Now().UTC())
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}
