package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/surimakeskilled/carrental/internal/models"
	"github.com/surimakeskilled/carrental/internal/notify"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeNotifier records dispatched events for assertions.
type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Notify(_ context.Context, event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) byKind(kind notify.EventKind) []notify.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Event
	for _, e := range f.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

var testDBSeq int64

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeNotifier) {
	t.Helper()
	dsn := fmt.Sprintf("file:lifecycle%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Bike{},
		&models.RentalRequest{},
		&models.Rental{},
		&models.Purchase{},
	))

	notifier := &fakeNotifier{}
	return New(db, notifier), db, notifier
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Mobile:       "9876543210",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedRentBike(t *testing.T, db *gorm.DB, ownerID uint, pricePerDay string) *models.Bike {
	t.Helper()
	price := dec(pricePerDay)
	bike := models.Bike{
		Brand:       "Honda",
		BikeModel:   "CBR 150",
		Year:        2019,
		EngineCC:    150,
		KMDriven:    12000,
		Mileage:     35,
		Condition:   "Good",
		Description: "well maintained",
		ListingType: models.ListingTypeRent,
		PricePerDay: &price,
		IsAvailable: true,
		OwnerID:     ownerID,
	}
	require.NoError(t, db.Create(&bike).Error)
	return &bike
}

func seedSaleBike(t *testing.T, db *gorm.DB, ownerID uint, salePrice string) *models.Bike {
	t.Helper()
	price := dec(salePrice)
	bike := models.Bike{
		Brand:       "Royal Enfield",
		BikeModel:   "Classic 350",
		Year:        2020,
		EngineCC:    349,
		KMDriven:    8000,
		Mileage:     30,
		Condition:   "Excellent",
		Description: "single owner",
		ListingType: models.ListingTypeSale,
		SalePrice:   &price,
		IsAvailable: true,
		OwnerID:     ownerID,
	}
	require.NoError(t, db.Create(&bike).Error)
	return &bike
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func reloadBike(t *testing.T, db *gorm.DB, id uint) *models.Bike {
	t.Helper()
	var bike models.Bike
	require.NoError(t, db.First(&bike, id).Error)
	return &bike
}
