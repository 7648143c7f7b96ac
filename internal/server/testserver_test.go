package server

import (
	"testing"

	"reservo/internal/config"
	"reservo/internal/database"
	"reservo/internal/featureflags"
	"reservo/internal/models"
	"reservo/internal/notifications"
	"reservo/internal/repository"
	"reservo/internal/service"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer wires a Server over in-memory SQLite. The prometheus
// middleware is left nil so repeated test setups do not re-register
// collectors.
func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	requestRepo := repository.NewModerationRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dispatcher := notifications.NewDispatcher(notifications.NewLogSender(), notificationRepo, nil)
	flags := featureflags.NewManager("force_approve=on")

	s := &Server{
		config:           &config.Config{JWTSecret: "test-secret"},
		db:               db,
		userRepo:         userRepo,
		businessRepo:     businessRepo,
		requestRepo:      requestRepo,
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		featureFlags:     flags,
	}
	s.lifecycle = service.NewLifecycleService(businessRepo, userRepo, dispatcher, flags)
	s.ledger = service.NewLedgerService(requestRepo, businessRepo, userRepo, dispatcher, s.lifecycle)

	return s, db
}

func seedUser(t *testing.T, db *gorm.DB, username string, admin bool) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@e.com", IsAdmin: admin}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func seedBusiness(t *testing.T, db *gorm.DB, ownerID uint, status models.BusinessStatus) *models.Business {
	t.Helper()
	business := &models.Business{Name: "Biz " + string(status), OwnerID: ownerID, Status: status}
	if err := db.Create(business).Error; err != nil {
		t.Fatalf("create business: %v", err)
	}
	return business
}
