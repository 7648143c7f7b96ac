package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ModerationRequestType classifies entries in the moderation ledger.
type ModerationRequestType string

const (
	// ModerationRequestTypeSuspension is an admin-initiated suspension audit record.
	ModerationRequestTypeSuspension ModerationRequestType = "suspension"
	// ModerationRequestTypeUnsuspension is an owner-submitted reinstatement appeal.
	ModerationRequestTypeUnsuspension ModerationRequestType = "unsuspension"
	// ModerationRequestTypeVerification is an owner-submitted verification request.
	ModerationRequestTypeVerification ModerationRequestType = "verification"
	// ModerationRequestTypeAppeal is a generic owner appeal.
	ModerationRequestTypeAppeal ModerationRequestType = "appeal"
	// ModerationRequestTypeFeatureRequest is an owner feature request.
	ModerationRequestTypeFeatureRequest ModerationRequestType = "feature_request"
	// ModerationRequestTypeOther covers anything else.
	ModerationRequestTypeOther ModerationRequestType = "other"
)

// ModerationRequestStatus defines lifecycle states for ledger entries.
// Once a request leaves pending it is terminal and immutable.
type ModerationRequestStatus string

const (
	// ModerationRequestStatusPending indicates the request is awaiting admin review.
	ModerationRequestStatusPending ModerationRequestStatus = "pending"
	// ModerationRequestStatusApproved indicates the request was accepted.
	ModerationRequestStatusApproved ModerationRequestStatus = "approved"
	// ModerationRequestStatusRejected indicates the request was denied.
	ModerationRequestStatusRejected ModerationRequestStatus = "rejected"
	// ModerationRequestStatusCancelled is reserved for owner-initiated withdrawal.
	ModerationRequestStatusCancelled ModerationRequestStatus = "cancelled"
)

// RequestMetadata is the denormalized snapshot stored on each ledger
// row. It captures the business and owner as they were at request time
// so the audit trail survives later edits.
type RequestMetadata struct {
	BusinessName string `json:"business_name"`
	OwnerID      uint   `json:"owner_id"`
	OwnerEmail   string `json:"owner_email"`
}

// ModerationRequest is one row of the append-mostly moderation ledger:
// either a suspension audit record or an owner-submitted request.
type ModerationRequest struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	BusinessID  uint                  `gorm:"not null;index" json:"business_id"`
	Business    *Business             `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	RequestType ModerationRequestType `gorm:"type:varchar(20);not null;index" json:"request_type"`
	Status      ModerationRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	Reason        *string    `gorm:"type:text" json:"reason,omitempty"`
	AdminResponse *string    `gorm:"type:text" json:"admin_response,omitempty"`
	RequestedAt   time.Time  `gorm:"not null" json:"requested_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	RespondedBy   *uint      `json:"responded_by,omitempty"`
	Responder     *User      `gorm:"foreignKey:RespondedBy" json:"responder,omitempty"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (ModerationRequest) TableName() string {
	return "moderation_requests"
}

// IsTerminal reports whether the request has left the pending state.
func (r *ModerationRequest) IsTerminal() bool {
	return r.Status != ModerationRequestStatusPending
}

// Snapshot decodes the stored metadata snapshot.
func (r *ModerationRequest) Snapshot() (*RequestMetadata, error) {
	if len(r.Metadata) == 0 {
		return nil, nil
	}
	var meta RequestMetadata
	if err := json.Unmarshal(r.Metadata, &meta); err != nil {
		return nil, fmt.Errorf("decode request metadata: %w", err)
	}
	return &meta, nil
}

// NewUnsuspensionRequest builds a pending reinstatement appeal with the
// metadata snapshot taken from the business and its owner.
func NewUnsuspensionRequest(business *Business, owner *User, reason string, now time.Time) (*ModerationRequest, error) {
	meta, err := encodeMetadata(business, owner)
	if err != nil {
		return nil, err
	}
	return &ModerationRequest{
		BusinessID:  business.ID,
		RequestType: ModerationRequestTypeUnsuspension,
		Status:      ModerationRequestStatusPending,
		Reason:      &reason,
		RequestedAt: now,
		Metadata:    meta,
	}, nil
}

// NewSuspensionRecord builds the already-approved audit record written
// when an admin suspends a business. It is an audit fact, not a
// workflow item, so it is born terminal with the acting admin recorded
// as responder.
func NewSuspensionRecord(business *Business, owner *User, adminID uint, reason string, now time.Time) (*ModerationRequest, error) {
	meta, err := encodeMetadata(business, owner)
	if err != nil {
		return nil, err
	}
	summary := fmt.Sprintf("Business %q suspended by admin %d: %s", business.Name, adminID, reason)
	return &ModerationRequest{
		BusinessID:    business.ID,
		RequestType:   ModerationRequestTypeSuspension,
		Status:        ModerationRequestStatusApproved,
		Reason:        &reason,
		AdminResponse: &summary,
		RequestedAt:   now,
		RespondedAt:   &now,
		RespondedBy:   &adminID,
		Metadata:      meta,
	}, nil
}

func encodeMetadata(business *Business, owner *User) (datatypes.JSON, error) {
	meta := RequestMetadata{
		BusinessName: business.Name,
		OwnerID:      business.OwnerID,
	}
	if owner != nil {
		meta.OwnerEmail = owner.Email
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode request metadata: %w", err)
	}
	return datatypes.JSON(raw), nil
}
