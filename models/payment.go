package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentRowPending   = "pending"
	PaymentRowSucceeded = "succeeded"
)

// Payment is one hosted checkout session in the payments ledger.
type Payment struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID    string    `gorm:"type:varchar(32);index;not null"`
	CustomerID   string    `gorm:"type:varchar(64);index;not null"`
	SessionID    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Amount       int64     `gorm:"not null"` // minor units
	Currency     string    `gorm:"type:varchar(10);not null"`
	Status       string    `gorm:"type:varchar(20);not null"`
	CheckoutURL  *string   `gorm:"type:varchar(1024)"`
	EventPayload *string   `gorm:"type:jsonb"`
	SucceededAt  *time.Time
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}
