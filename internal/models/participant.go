// internal/models/participant.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Participant is an authenticated API caller. Its Address is the identity
// the registry core sees; everything else is account plumbing.
type Participant struct {
	BaseModel
	Username     string            `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string            `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string            `json:"-" gorm:"size:255;not null"`
	Address      string            `json:"address" gorm:"uniqueIndex;size:42;not null"`
	Role         ParticipantRole   `json:"role" gorm:"type:varchar(20);default:'participant'"`
	Status       ParticipantStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	ProfileData  JSONB             `json:"profile_data" gorm:"type:jsonb"`
	LastLoginAt  *time.Time        `json:"last_login_at"`
}

func (p *Participant) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hashedPassword)
	return nil
}

func (p *Participant) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password))
}
