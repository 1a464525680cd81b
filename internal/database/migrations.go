package database

import (
	"github.com/surimakeskilled/carrental/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Bike{},
		&models.RentalRequest{},
		&models.Rental{},
		&models.Purchase{},
	)
	if err != nil {
		return err
	}

	// Status vocabularies are enforced at the database level so a bad write
	// can never leave a row outside the state machines.
	if db.Migrator().HasTable(&models.Bike{}) {
		db.Exec(`ALTER TABLE bikes DROP CONSTRAINT IF EXISTS bikes_listing_type_check`)
		db.Exec(`ALTER TABLE bikes ADD CONSTRAINT bikes_listing_type_check CHECK (listing_type IN ('rent', 'sale'))`)
	}

	if db.Migrator().HasTable(&models.RentalRequest{}) {
		db.Exec(`ALTER TABLE rental_requests DROP CONSTRAINT IF EXISTS rental_requests_status_check`)
		db.Exec(`ALTER TABLE rental_requests ADD CONSTRAINT rental_requests_status_check CHECK (status IN ('pending', 'approved', 'rejected'))`)
	}

	if db.Migrator().HasTable(&models.Rental{}) {
		db.Exec(`ALTER TABLE rentals DROP CONSTRAINT IF EXISTS rentals_status_check`)
		db.Exec(`ALTER TABLE rentals ADD CONSTRAINT rentals_status_check CHECK (status IN ('pending', 'active', 'completed', 'cancelled'))`)
	}

	if db.Migrator().HasTable(&models.Purchase{}) {
		db.Exec(`ALTER TABLE purchases DROP CONSTRAINT IF EXISTS purchases_status_check`)
		db.Exec(`ALTER TABLE purchases ADD CONSTRAINT purchases_status_check CHECK (status IN ('pending', 'accepted', 'rejected', 'cancelled'))`)
	}

	return nil
}
