package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment is a persisted payment record. Amount is always strictly positive,
// CreatedAt is never modified after insert, and only Status (plus UpdatedAt)
// changes afterwards.
type Payment struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	PayerID       uuid.UUID         `json:"payerId" gorm:"type:uuid;not null;index"`
	PaymentSource PaymentSource     `json:"paymentSource" gorm:"type:text;not null"`
	Amount        decimal.Decimal   `json:"amount" gorm:"type:numeric(12,2);not null"`
	Status        PaymentStatus     `json:"status" gorm:"type:text;not null"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt     time.Time         `json:"createdAt" gorm:"not null"`
	UpdatedAt     time.Time         `json:"updatedAt" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

type PaymentSource string

const (
	SourcePix        PaymentSource = "PIX"
	SourceCreditCard PaymentSource = "CREDIT_CARD"
	SourceDebitCard  PaymentSource = "DEBIT_CARD"
)

func (s PaymentSource) Valid() bool {
	switch s {
	case SourcePix, SourceCreditCard, SourceDebitCard:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	StatusPending PaymentStatus = "PENDING"
	StatusPaid    PaymentStatus = "PAID"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid:
		return true
	default:
		return false
	}
}
