package models

import "time"

// BusinessStatus defines the moderation standing of a business.
type BusinessStatus string

const (
	// BusinessStatusPending indicates a business is awaiting platform review.
	BusinessStatusPending BusinessStatus = "pending"
	// BusinessStatusApproved indicates a business is live on the marketplace.
	BusinessStatusApproved BusinessStatus = "approved"
	// BusinessStatusRejected indicates a business registration was declined.
	BusinessStatusRejected BusinessStatus = "rejected"
	// BusinessStatusSuspended indicates a business is disabled by moderation.
	BusinessStatusSuspended BusinessStatus = "suspended"
)

// Business represents a registered business on the booking marketplace.
//
// The two Unsuspension* fields mirror the business's latest pending
// unsuspension request. They exist for cheap listing queries only; the
// moderation_requests ledger is authoritative. They are written and
// cleared in the same transaction as the ledger row they mirror.
type Business struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:120;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Status      BusinessStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	UnsuspensionRequestedAt   *time.Time `json:"unsuspension_requested_at,omitempty"`
	UnsuspensionRequestReason *string    `gorm:"type:text" json:"unsuspension_request_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Business) TableName() string {
	return "businesses"
}

// IsSuspended reports whether the business is currently suspended.
func (b *Business) IsSuspended() bool {
	return b.Status == BusinessStatusSuspended
}
