package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemNotification is a persisted in-app notification. Rows are
// written by the notification dispatcher after a lifecycle or ledger
// mutation commits, and also published on the recipient's Redis channel
// for connected clients.
type SystemNotification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RecipientID uint           `gorm:"not null;index" json:"recipient_id"`
	Subject     string         `gorm:"size:200;not null" json:"subject"`
	Body        string         `gorm:"type:text;not null" json:"body"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (SystemNotification) TableName() string {
	return "system_notifications"
}
