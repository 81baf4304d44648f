package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/payline/internal/clock"
	"github.com/smallbiznis/payline/internal/config"
	obsmetrics "github.com/smallbiznis/payline/internal/observability/metrics"
	"github.com/smallbiznis/payline/internal/payerlock"
	"github.com/smallbiznis/payline/internal/payment/domain"
	"github.com/smallbiznis/payline/internal/payment/limit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Limits     *config.LimitsHolder
	Repo       domain.Repository
	Locker     *payerlock.Locker   `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	limits     *config.LimitsHolder
	repo       domain.Repository
	locker     *payerlock.Locker
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		limits:     p.Limits,
		repo:       p.Repo,
		locker:     p.Locker,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePaymentRequest) (domain.Payment, error) {
	payerID, err := uuid.Parse(strings.TrimSpace(req.PayerID))
	if err != nil || payerID == uuid.Nil {
		return domain.Payment{}, domain.ErrInvalidPayer
	}

	source := domain.PaymentSource(strings.ToUpper(strings.TrimSpace(req.Source)))
	if !source.Valid() {
		return domain.Payment{}, domain.ErrInvalidSource
	}

	// The daily sum and the insert are separate statements. The advisory
	// lock, when configured, keeps concurrent creations for the same payer
	// from both passing the limit check.
	if s.locker != nil {
		token, lockErr := s.locker.Acquire(ctx, payerID)
		if lockErr != nil {
			s.log.Warn("payer lock not acquired",
				zap.String("payer_id", payerID.String()),
				zap.Error(lockErr),
			)
			return domain.Payment{}, domain.ErrPayerBusy
		}
		// Release even when the client disconnects mid-transaction.
		releaseCtx := context.WithoutCancel(ctx)
		defer func() {
			_ = s.locker.Release(releaseCtx, payerID, token)
		}()
	}

	now := s.clock.Now()
	start, end := dayWindow(now)

	metadata := datatypes.JSONMap(req.Metadata)
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}

	var payment domain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dailyTotal, sumErr := s.repo.SumAmountByPayer(ctx, tx, payerID, start, end)
		if sumErr != nil {
			return sumErr
		}

		within, evalErr := limit.Evaluate(dailyTotal, req.Amount, s.limits.DailyCeiling())
		if evalErr != nil {
			return evalErr
		}
		if !within {
			return &domain.LimitExceededError{Source: source}
		}

		payment = domain.Payment{
			ID:            s.genID.Generate(),
			PayerID:       payerID,
			PaymentSource: source,
			Amount:        req.Amount,
			Status:        domain.StatusPending,
			Metadata:      metadata,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return s.repo.Insert(ctx, tx, &payment)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDailyLimitReached) {
			s.log.Info("payment rejected by daily limit",
				zap.String("payer_id", payerID.String()),
				zap.String("source", string(source)),
			)
			s.obsMetrics.RecordLimitRejection(ctx, string(source))
		}
		return domain.Payment{}, err
	}

	s.log.Info("payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("payer_id", payerID.String()),
		zap.String("source", string(source)),
	)
	s.obsMetrics.RecordPaymentCreated(ctx, string(source))

	return payment, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdatePaymentRequest) (domain.Payment, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Payment{}, err
	}

	status := domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return domain.Payment{}, domain.ErrInvalidStatus
	}

	var updated domain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, findErr := s.repo.FindByID(ctx, tx, id)
		if findErr != nil {
			return findErr
		}
		if item == nil {
			return domain.ErrNotFound
		}

		now := s.clock.Now()
		if updErr := s.repo.UpdateStatus(ctx, tx, id, status, now); updErr != nil {
			return updErr
		}

		item.Status = status
		item.UpdatedAt = now
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}

	s.log.Info("payment status updated",
		zap.String("payment_id", id.String()),
		zap.String("status", string(status)),
	)
	s.obsMetrics.RecordStatusUpdate(ctx, string(status))

	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetPaymentRequest) (domain.Payment, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Payment{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if item == nil {
		return domain.Payment{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Payment, error) {
	items, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return collect(items), nil
}

func (s *Service) ListByPayer(ctx context.Context, req domain.ListByPayerRequest) ([]domain.Payment, error) {
	payerID, err := uuid.Parse(strings.TrimSpace(req.PayerID))
	if err != nil || payerID == uuid.Nil {
		return nil, domain.ErrInvalidPayer
	}

	items, err := s.repo.FindByPayer(ctx, s.db, payerID)
	if err != nil {
		return nil, err
	}
	return collect(items), nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// dayWindow returns the [00:00, 24:00) calendar-day window containing now,
// in now's location.
func dayWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func collect(items []*domain.Payment) []domain.Payment {
	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}
	return payments
}
