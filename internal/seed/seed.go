package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/payline/internal/payment/domain"
	pkgdb "github.com/smallbiznis/payline/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDemoPayment inserts the sample PENDING payment used by local and
// demo environments. It is a no-op once any payment exists.
func EnsureDemoPayment(db *gorm.DB, genID *snowflake.Node) error {
	var count int64
	if err := db.Model(&domain.Payment{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		ID:            genID.Generate(),
		PayerID:       uuid.New(),
		PaymentSource: domain.SourcePix,
		Amount:        decimal.RequireFromString("100.50"),
		Status:        domain.StatusPending,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(&payment).Error; err != nil {
		// Another replica may have seeded first.
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}
	return nil
}
