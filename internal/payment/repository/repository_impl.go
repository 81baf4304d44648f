package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/payline/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, payer_id, payment_source, amount, status, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.PayerID,
		payment.PaymentSource,
		payment.Amount,
		payment.Status,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, payer_id, payment_source, amount, status, metadata, created_at, updated_at
		 FROM payments WHERE id = ?`,
		id,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Order("created_at, id").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) FindByPayer(ctx context.Context, db *gorm.DB, payerID uuid.UUID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("payer_id = ?", payerID).
		Order("created_at, id").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) SumAmountByPayer(ctx context.Context, db *gorm.DB, payerID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM payments
		 WHERE payer_id = ? AND created_at >= ? AND created_at < ?`,
		payerID,
		start,
		end,
	).Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.PaymentStatus, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	).Error
}