package db

import (
	"github.com/melitools/melisync/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var db *gorm.DB

// Init installs the shared handle and migrates every table the
// application owns. Callers treat a returned error as fatal.
func Init(d *gorm.DB) error {
	db = d
	err := db.AutoMigrate(
		&model.QueueTask{},
		&model.Account{},
		&model.FixedPrice{},
		&model.ModifiedAd{},
		&model.CompatibilityProfile{},
		&model.CompetitorAd{},
		&model.PricingRule{},
	)
	return errors.WithStack(err)
}
