// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the key client-side so inserts also work on databases
// without gen_random_uuid(), such as the sqlite used in tests.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}
}

// BigInt stores an arbitrary-precision integer as NUMERIC(78,0), wide enough
// for any 256-bit amount. JSON encoding is a decimal string so clients never
// lose precision to float parsing.
type BigInt struct {
	big.Int
}

func NewBigInt(i *big.Int) BigInt {
	b := BigInt{}
	if i != nil {
		b.Set(i)
	}
	return b
}

func (BigInt) GormDataType() string {
	return "numeric(78,0)"
}

func (b BigInt) Value() (driver.Value, error) {
	return b.String(), nil
}

func (b *BigInt) Scan(value interface{}) error {
	if value == nil {
		b.SetInt64(0)
		return nil
	}

	switch v := value.(type) {
	case int64:
		b.SetInt64(v)
		return nil
	case []byte:
		return b.setString(string(v))
	case string:
		return b.setString(v)
	default:
		return fmt.Errorf("cannot scan %T into BigInt", value)
	}
}

func (b *BigInt) setString(s string) error {
	if _, ok := b.SetString(strings.TrimSpace(s), 10); !ok {
		return fmt.Errorf("invalid numeric value %q", s)
	}
	return nil
}

func (b BigInt) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(b.String())), nil
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		b.SetInt64(0)
		return nil
	}
	return b.setString(s)
}

// Enums
type ParticipantRole string

const (
	RoleParticipant ParticipantRole = "participant"
	RoleAdmin       ParticipantRole = "admin"
)

type ParticipantStatus string

const (
	ParticipantStatusActive    ParticipantStatus = "active"
	ParticipantStatusSuspended ParticipantStatus = "suspended"
)

type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
	DepositStatusFailed    DepositStatus = "failed"
)

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)
