package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]*Payment, error)
	FindByPayer(ctx context.Context, db *gorm.DB, payerID uuid.UUID) ([]*Payment, error)
	// SumAmountByPayer aggregates the payer's amounts with created_at in
	// [start, end). An empty window sums to zero.
	SumAmountByPayer(ctx context.Context, db *gorm.DB, payerID uuid.UUID, start, end time.Time) (decimal.Decimal, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status PaymentStatus, updatedAt time.Time) error
}
