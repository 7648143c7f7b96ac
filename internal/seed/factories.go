// Package seed provides helpers to create demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"reservo/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample account. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: string(hashed),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateAdmin persists a platform administrator account.
func (f *Factory) CreateAdmin(username string) (*models.User, error) {
	return f.CreateUser(func(u *models.User) {
		u.Username = username
		u.Email = fmt.Sprintf("%s@example.com", username)
		u.IsAdmin = true
	})
}

// CreateBusiness constructs and persists a business owned by the given
// user, in the given moderation standing. CreatedAt is spread over the
// past weeks so listings look lived-in.
func (f *Factory) CreateBusiness(owner *models.User, status models.BusinessStatus, overrides ...func(*models.Business)) (*models.Business, error) {
	business := &models.Business{
		Name:        gofakeit.Company(),
		Description: gofakeit.Paragraph(1, 2, 8, " "),
		OwnerID:     owner.ID,
		Status:      status,
	}

	daysBack := f.rng.Intn(maxAgeDays(f.opts))
	business.CreatedAt = time.Now().UTC().Add(
		-time.Duration(daysBack)*24*time.Hour - time.Duration(f.rng.Intn(24))*time.Hour)

	for _, override := range overrides {
		override(business)
	}

	if err := f.db.Create(business).Error; err != nil {
		return nil, fmt.Errorf("create business %s: %w", business.Name, err)
	}
	return business, nil
}

// CreatePendingAppeal files an unsuspension request for a suspended
// business and writes the pending-mirror columns on the business row,
// matching what the ledger does in production.
func (f *Factory) CreatePendingAppeal(business *models.Business, owner *models.User) (*models.ModerationRequest, error) {
	reason := gofakeit.Sentence(12)
	request, err := models.NewUnsuspensionRequest(business, owner, reason, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		return tx.Model(&models.Business{}).Where("id = ?", business.ID).Updates(map[string]any{
			"unsuspension_requested_at":   request.RequestedAt,
			"unsuspension_request_reason": request.Reason,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create appeal for business %d: %w", business.ID, err)
	}
	return request, nil
}

// CreateSuspensionRecord writes the resolved audit row that a real
// admin suspension would leave in the ledger.
func (f *Factory) CreateSuspensionRecord(business *models.Business, owner *models.User, adminID uint) (*models.ModerationRequest, error) {
	record, err := models.NewSuspensionRecord(business, owner, adminID, gofakeit.Sentence(8), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := f.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("create suspension record: %w", err)
	}
	return record, nil
}

// CreateNotification persists an in-app notification for the recipient.
func (f *Factory) CreateNotification(recipientID uint, subject, body string) (*models.SystemNotification, error) {
	notice := &models.SystemNotification{RecipientID: recipientID, Subject: subject, Body: body}
	if err := f.db.Create(notice).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return notice, nil
}

func maxAgeDays(opts Options) int {
	if opts.MaxAgeDays > 0 {
		return opts.MaxAgeDays
	}
	return 90
}

func logProgress(kind string, n int) {
	if n > 0 && n%50 == 0 {
		log.Printf("Created %d %s...", n, kind)
	}
}
