package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/payline/internal/config"
	"github.com/smallbiznis/payline/internal/payment/domain"
	"github.com/smallbiznis/payline/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql dev setups run on the model schema directly
			if err := conn.AutoMigrate(&domain.Payment{}); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData && !cfg.IsProduction() {
			return seed.EnsureDemoPayment(conn, genID)
		}
		return nil
	}),
)
