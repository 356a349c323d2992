// internal/models/account.go
package models

import "time"

// Account is a fund balance keyed by address. The registry settles paid
// transfers against these rows inside a single database transaction.
type Account struct {
	BaseModel
	Address string `json:"address" gorm:"uniqueIndex;size:42;not null"`
	Balance BigInt `json:"balance" gorm:"not null"`
}

// Deposit tracks a Stripe-funded top-up of an account. The balance is only
// credited once the payment intent reaches succeeded.
type Deposit struct {
	BaseModel
	Address         string        `json:"address" gorm:"size:42;not null;index"`
	AmountCents     int64         `json:"amount_cents" gorm:"not null"`
	CreditedAmount  BigInt        `json:"credited_amount"`
	Currency        string        `json:"currency" gorm:"size:10;default:'usd'"`
	PaymentIntentID string        `json:"payment_intent_id" gorm:"size:255;uniqueIndex"`
	Status          DepositStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CompletedAt     *time.Time    `json:"completed_at"`
}
