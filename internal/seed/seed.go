package seed

import (
	"fmt"
	"log"

	"reservo/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumOwners     int
	NumBusinesses int
	// MaxAgeDays spreads generated created_at timestamps over the past
	// N days. Defaults to 90.
	MaxAgeDays  int
	ShouldClean bool
}

// Seed populates the database with demo marketplace data: an admin
// account, business owners, businesses in every moderation state, and a
// couple of in-flight unsuspension appeals for the admin queue.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d owners and %d businesses...", opts.NumOwners, opts.NumBusinesses)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	factory := NewFactory(db, opts)

	admin, err := factory.CreateAdmin("admin")
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Printf("✓ Admin account ready (username: %s, password: password123)", admin.Username)

	owners, err := createOwners(factory, opts.NumOwners)
	if err != nil {
		return fmt.Errorf("failed to create owners: %w", err)
	}
	log.Printf("✓ %d owner accounts created", len(owners))

	businesses, err := createBusinesses(factory, owners, opts.NumBusinesses)
	if err != nil {
		return fmt.Errorf("failed to create businesses: %w", err)
	}
	log.Printf("✓ %d businesses created", len(businesses))

	appeals, err := createAppeals(factory, admin, businesses, owners)
	if err != nil {
		return fmt.Errorf("failed to create unsuspension appeals: %w", err)
	}
	log.Printf("✓ %d pending unsuspension appeals filed", appeals)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE system_notifications, moderation_requests, businesses, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createOwners(factory *Factory, count int) ([]*models.User, error) {
	owners := make([]*models.User, 0, count)

	// A fixed login for manual testing alongside the generated ones.
	demo, err := factory.CreateUser(func(u *models.User) {
		u.Username = "demo-owner"
		u.Email = "demo-owner@example.com"
	})
	if err != nil {
		return nil, err
	}
	owners = append(owners, demo)

	for i := len(owners); i < count; i++ {
		owner, err := factory.CreateUser()
		if err != nil {
			log.Printf("Skipping owner: %v", err)
			continue
		}
		owners = append(owners, owner)
		logProgress("owners", i)
	}
	return owners, nil
}

// createBusinesses spreads businesses across the four moderation
// states so every admin screen has something to show. Roughly half end
// up approved; the rest split between pending, rejected, and suspended.
func createBusinesses(factory *Factory, owners []*models.User, count int) ([]*models.Business, error) {
	statuses := []models.BusinessStatus{
		models.BusinessStatusApproved,
		models.BusinessStatusApproved,
		models.BusinessStatusPending,
		models.BusinessStatusRejected,
		models.BusinessStatusSuspended,
	}

	businesses := make([]*models.Business, 0, count)
	for i := 0; i < count; i++ {
		owner := owners[i%len(owners)]
		business, err := factory.CreateBusiness(owner, statuses[i%len(statuses)])
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, business)
		logProgress("businesses", i)
	}
	return businesses, nil
}

// createAppeals files a pending unsuspension request for every other
// suspended business, along with the suspension audit record an admin
// action would have left behind.
func createAppeals(factory *Factory, admin *models.User, businesses []*models.Business, owners []*models.User) (int, error) {
	filed := 0
	suspendedSeen := 0

	for _, business := range businesses {
		if business.Status != models.BusinessStatusSuspended {
			continue
		}
		owner := ownerOf(business, owners)
		if owner == nil {
			continue
		}

		if _, err := factory.CreateSuspensionRecord(business, owner, admin.ID); err != nil {
			return filed, err
		}
		if _, err := factory.CreateNotification(owner.ID, "Business suspended",
			fmt.Sprintf("Your business %q has been suspended.", business.Name)); err != nil {
			return filed, err
		}

		suspendedSeen++
		if suspendedSeen%2 != 0 {
			continue
		}
		if _, err := factory.CreatePendingAppeal(business, owner); err != nil {
			return filed, err
		}
		filed++
	}
	return filed, nil
}

func ownerOf(business *models.Business, owners []*models.User) *models.User {
	for _, owner := range owners {
		if owner.ID == business.OwnerID {
			return owner
		}
	}
	return nil
}
