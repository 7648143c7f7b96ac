package seed

import (
	"testing"

	"reservo/internal/database"
	"reservo/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func TestSeed(t *testing.T) {
	db := setupSeedDB(t)

	if err := Seed(db, Options{NumOwners: 4, NumBusinesses: 10}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("expected a seeded admin account: %v", err)
	}
	if !admin.IsAdmin {
		t.Error("admin account must have the admin flag")
	}

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount != 5 {
		t.Errorf("expected admin plus 4 owners, got %d users", userCount)
	}

	var businessCount int64
	db.Model(&models.Business{}).Count(&businessCount)
	if businessCount != 10 {
		t.Errorf("expected 10 businesses, got %d", businessCount)
	}

	// Every moderation state must be represented so admin screens have data.
	for _, status := range []models.BusinessStatus{
		models.BusinessStatusPending,
		models.BusinessStatusApproved,
		models.BusinessStatusRejected,
		models.BusinessStatusSuspended,
	} {
		var n int64
		db.Model(&models.Business{}).Where("status = ?", status).Count(&n)
		if n == 0 {
			t.Errorf("no businesses seeded with status %q", status)
		}
	}
}

func TestSeed_FilesAppealsWithMirror(t *testing.T) {
	db := setupSeedDB(t)

	if err := Seed(db, Options{NumOwners: 3, NumBusinesses: 10}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var appeals []models.ModerationRequest
	if err := db.Where("request_type = ? AND status = ?",
		models.ModerationRequestTypeUnsuspension, models.ModerationRequestStatusPending).
		Find(&appeals).Error; err != nil {
		t.Fatalf("query appeals: %v", err)
	}
	if len(appeals) == 0 {
		t.Fatal("expected at least one pending unsuspension appeal")
	}

	for _, appeal := range appeals {
		var business models.Business
		if err := db.First(&business, appeal.BusinessID).Error; err != nil {
			t.Fatalf("load business %d: %v", appeal.BusinessID, err)
		}
		if business.Status != models.BusinessStatusSuspended {
			t.Errorf("appeal %d targets a business in state %q", appeal.ID, business.Status)
		}
		if business.UnsuspensionRequestedAt == nil {
			t.Errorf("business %d is missing the pending-appeal mirror", business.ID)
		}
	}

	// Suspended businesses also carry the admin-side audit record.
	var audits int64
	db.Model(&models.ModerationRequest{}).
		Where("request_type = ?", models.ModerationRequestTypeSuspension).Count(&audits)
	if audits == 0 {
		t.Error("expected suspension audit records for suspended businesses")
	}
}
