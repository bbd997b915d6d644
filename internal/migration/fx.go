package migration

import (
	"github.com/sitescope/sitescope/internal/config"
	freescandomain "github.com/sitescope/sitescope/internal/freescan/domain"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	paymentdomain "github.com/sitescope/sitescope/internal/payment/domain"
	promodomain "github.com/sitescope/sitescope/internal/promo/domain"
	subscriptiondomain "github.com/sitescope/sitescope/internal/subscription/domain"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// sqlite and mysql (dev/self-hosted) build the schema from the
		// models directly.
		return conn.AutoMigrate(
			&userdomain.User{},
			&ledgerdomain.CreditEntry{},
			&promodomain.PromoCode{},
			&promodomain.PromoRedemption{},
			&subscriptiondomain.UserSubscription{},
			&paymentdomain.Transaction{},
			&freescandomain.Usage{},
		)
	}),
)
