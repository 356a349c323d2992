// internal/models/notification.go
package models

import "time"

// Notification is an in-app message for a participant about a registry event
// that concerns them (a license minted to them, an offer naming them, a sale
// of a license they held or created).
type Notification struct {
	BaseModel
	RecipientAddress string             `json:"recipient_address" gorm:"size:42;not null;index"`
	Type             string             `json:"type" gorm:"type:varchar(50);not null;index"`
	Title            string             `json:"title" gorm:"size:255;not null"`
	Message          string             `json:"message" gorm:"type:text;not null"`
	Data             JSONB              `json:"data" gorm:"type:jsonb"`
	Status           NotificationStatus `json:"status" gorm:"type:varchar(20);default:'unread';index"`
	ReadAt           *time.Time         `json:"read_at"`
}
