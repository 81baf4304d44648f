package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/payline/internal/clock"
	"github.com/smallbiznis/payline/internal/config"
	"github.com/smallbiznis/payline/internal/payment/domain"
	"github.com/smallbiznis/payline/internal/payment/limit"
	paymentrepo "github.com/smallbiznis/payline/internal/payment/repository"
	paymentservice "github.com/smallbiznis/payline/internal/payment/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func setupService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC))
	svc := paymentservice.New(paymentservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clk,
		Limits: config.StaticLimitsHolder(limit.DefaultCeiling),
		Repo:   paymentrepo.Provide(),
	})
	return svc, clk
}

func createReq(payerID string, amount string) domain.CreatePaymentRequest {
	return domain.CreatePaymentRequest{
		PayerID: payerID,
		Source:  "PIX",
		Amount:  decimal.RequireFromString(amount),
	}
}

func TestCreateStartsPending(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupService(t)
	payerID := uuid.NewString()

	payment, err := svc.Create(ctx, domain.CreatePaymentRequest{
		PayerID:  payerID,
		Source:   "credit_card",
		Amount:   decimal.RequireFromString("100.50"),
		Metadata: map[string]any{"order_ref": "ord_42"},
	})
	require.NoError(t, err)

	assert.NotZero(t, payment.ID)
	assert.Equal(t, payerID, payment.PayerID.String())
	assert.Equal(t, domain.SourceCreditCard, payment.PaymentSource)
	assert.Equal(t, domain.StatusPending, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("100.50")))
	assert.True(t, payment.CreatedAt.Equal(clk.Now()))
	assert.True(t, payment.UpdatedAt.Equal(clk.Now()))

	got, err := svc.GetByID(ctx, domain.GetPaymentRequest{ID: payment.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Create(ctx, createReq("not-a-uuid", "10"))
	assert.ErrorIs(t, err, domain.ErrInvalidPayer)

	_, err = svc.Create(ctx, createReq(uuid.Nil.String(), "10"))
	assert.ErrorIs(t, err, domain.ErrInvalidPayer)

	_, err = svc.Create(ctx, domain.CreatePaymentRequest{
		PayerID: uuid.NewString(),
		Source:  "BOLETO",
		Amount:  decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSource)

	_, err = svc.Create(ctx, createReq(uuid.NewString(), "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Create(ctx, createReq(uuid.NewString(), "-5.00"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCreateEnforcesDailyCeiling(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	payerID := uuid.NewString()

	_, err := svc.Create(ctx, createReq(payerID, "1999.00"))
	require.NoError(t, err)

	// 1999.00 + 1.00 lands exactly on the ceiling and is accepted.
	_, err = svc.Create(ctx, createReq(payerID, "1.00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq(payerID, "0.01"))
	assert.ErrorIs(t, err, domain.ErrDailyLimitReached)
	assert.EqualError(t, err, "daily payment limit exceeded for source: PIX")
}

func TestDailyCeilingIsPerPayer(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	payerA := uuid.NewString()
	payerB := uuid.NewString()

	_, err := svc.Create(ctx, createReq(payerA, "2000.00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq(payerA, "0.01"))
	assert.ErrorIs(t, err, domain.ErrDailyLimitReached)

	_, err = svc.Create(ctx, createReq(payerB, "2000.00"))
	assert.NoError(t, err)
}

func TestDailyCeilingResetsAtMidnight(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupService(t)
	payerID := uuid.NewString()

	_, err := svc.Create(ctx, createReq(payerID, "2000.00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq(payerID, "10.00"))
	assert.ErrorIs(t, err, domain.ErrDailyLimitReached)

	// Cross into the next calendar day. Yesterday's spend no longer counts.
	clk.Advance(24 * time.Hour)

	_, err = svc.Create(ctx, createReq(payerID, "2000.00"))
	assert.NoError(t, err)
}

func TestRejectedPaymentsDoNotConsumeBudget(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	payerID := uuid.NewString()

	_, err := svc.Create(ctx, createReq(payerID, "1500.00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq(payerID, "600.00"))
	require.ErrorIs(t, err, domain.ErrDailyLimitReached)

	// The rejected 600.00 must not have been persisted.
	_, err = svc.Create(ctx, createReq(payerID, "500.00"))
	assert.NoError(t, err)

	items, err := svc.ListByPayer(ctx, domain.ListByPayerRequest{PayerID: payerID})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupService(t)
	payerID := uuid.NewString()

	created, err := svc.Create(ctx, createReq(payerID, "250.00"))
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)

	updated, err := svc.UpdateStatus(ctx, domain.UpdatePaymentRequest{
		ID:     created.ID.String(),
		Status: "paid",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, domain.StatusPaid, updated.Status)
	assert.Equal(t, created.PayerID, updated.PayerID)
	assert.True(t, updated.Amount.Equal(created.Amount))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err := svc.GetByID(ctx, domain.GetPaymentRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status)
}

func TestUpdateStatusValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.UpdateStatus(ctx, domain.UpdatePaymentRequest{ID: "999999", Status: "PAID"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, domain.UpdatePaymentRequest{ID: "abc", Status: "PAID"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	created, err := svc.Create(ctx, createReq(uuid.NewString(), "10.00"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, domain.UpdatePaymentRequest{ID: created.ID.String(), Status: "CANCELLED"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestGetByIDNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.GetByID(ctx, domain.GetPaymentRequest{ID: "123456789"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(ctx, domain.GetPaymentRequest{ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListByPayerFilters(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupService(t)

	payerA := uuid.NewString()
	payerB := uuid.NewString()

	first, err := svc.Create(ctx, createReq(payerA, "10.00"))
	require.NoError(t, err)

	clk.Advance(time.Second)

	second, err := svc.Create(ctx, createReq(payerA, "20.00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq(payerB, "30.00"))
	require.NoError(t, err)

	items, err := svc.ListByPayer(ctx, domain.ListByPayerRequest{PayerID: payerA})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := svc.ListByPayer(ctx, domain.ListByPayerRequest{PayerID: uuid.NewString()})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListByPayer(ctx, domain.ListByPayerRequest{PayerID: "broken"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayer)
}
