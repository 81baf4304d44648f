package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	PayerID  string
	Source   string
	Amount   decimal.Decimal
	Metadata map[string]any
}

type UpdatePaymentRequest struct {
	ID     string
	Status string
}

type GetPaymentRequest struct {
	ID string
}

type ListByPayerRequest struct {
	PayerID string
}

type Service interface {
	Create(context.Context, CreatePaymentRequest) (Payment, error)
	UpdateStatus(context.Context, UpdatePaymentRequest) (Payment, error)
	GetByID(context.Context, GetPaymentRequest) (Payment, error)
	List(context.Context) ([]Payment, error)
	ListByPayer(context.Context, ListByPayerRequest) ([]Payment, error)
}

var (
	ErrInvalidPayer      = errors.New("invalid_payer_id")
	ErrInvalidSource     = errors.New("invalid_payment_source")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("payment_not_found")
	ErrDailyLimitReached = errors.New("daily_limit_exceeded")
	ErrPayerBusy         = errors.New("payer_busy")
)

// LimitExceededError names the payment source that tripped the daily limit.
type LimitExceededError struct {
	Source PaymentSource
}

func (e *LimitExceededError) Error() string {
	return "daily payment limit exceeded for source: " + string(e.Source)
}

func (e *LimitExceededError) Is(target error) bool {
	return target == ErrDailyLimitReached
}
