// internal/models/event.go
package models

import "github.com/lib/pq"

// Event is one journal row per committed registry event, written in commit
// order. Sequence is the serial position assigned by the registry service.
type Event struct {
	BaseModel
	Sequence  uint64         `json:"sequence" gorm:"uniqueIndex;not null"`
	Name      string         `json:"name" gorm:"size:50;not null;index"`
	LicenseID *int64         `json:"license_id,omitempty" gorm:"index"`
	TypeID    *int64         `json:"license_type_id,omitempty" gorm:"index"`
	Addresses pq.StringArray `json:"addresses" gorm:"type:text[]"`
	Data      JSONB          `json:"data" gorm:"type:jsonb"`
}

// AuditLog records every mutating API request, successful or not.
type AuditLog struct {
	BaseModel
	CallerAddress string `json:"caller_address" gorm:"size:42;index"`
	Action        string `json:"action" gorm:"size:100;not null;index"`
	ResourceType  string `json:"resource_type" gorm:"size:50;not null;index"`
	IPAddress     string `json:"ip_address" gorm:"size:45"`
	UserAgent     string `json:"user_agent" gorm:"type:text"`
	RequestData   JSONB  `json:"request_data" gorm:"type:jsonb"`
	StatusCode    int    `json:"status_code"`
}
