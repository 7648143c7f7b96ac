package repository

import (
	"context"
	"testing"
	"time"

	"reservo/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner")

	t.Run("Create and ListByRecipient", func(t *testing.T) {
		first := &models.SystemNotification{RecipientID: owner.ID, Subject: "First", Body: "body"}
		require.NoError(t, repo.Create(ctx, first))
		second := &models.SystemNotification{RecipientID: owner.ID, Subject: "Second", Body: "body"}
		require.NoError(t, repo.Create(ctx, second))

		listed, err := repo.ListByRecipient(ctx, owner.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, listed, 2)
	})

	t.Run("ListByRecipient scopes to the recipient", func(t *testing.T) {
		other := createOwner(t, db, "other")
		listed, err := repo.ListByRecipient(ctx, other.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("MarkRead", func(t *testing.T) {
		n := &models.SystemNotification{RecipientID: owner.ID, Subject: "Unread", Body: "body"}
		require.NoError(t, repo.Create(ctx, n))

		require.NoError(t, repo.MarkRead(ctx, n.ID, owner.ID, time.Now().UTC()))

		var fetched models.SystemNotification
		require.NoError(t, db.First(&fetched, n.ID).Error)
		assert.NotNil(t, fetched.ReadAt)

		// Marking twice is a no-op, not an error.
		assert.NoError(t, repo.MarkRead(ctx, n.ID, owner.ID, time.Now().UTC()))
	})

	t.Run("MarkRead for someone else's notification", func(t *testing.T) {
		n := &models.SystemNotification{RecipientID: owner.ID, Subject: "Private", Body: "body"}
		require.NoError(t, repo.Create(ctx, n))

		stranger := createOwner(t, db, "stranger")
		err := repo.MarkRead(ctx, n.ID, stranger.ID, time.Now().UTC())
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}
