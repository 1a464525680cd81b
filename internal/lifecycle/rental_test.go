package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surimakeskilled/carrental/internal/models"
	"github.com/surimakeskilled/carrental/internal/notify"
)

func TestCreateRentalRequestValidatesDates(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	bike := seedRentBike(t, db, owner.ID, "500")

	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"end before start", "2026-03-10", "2026-03-05"},
		{"end equals start", "2026-03-10", "2026-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
				BikeID:    bike.ID,
				StartDate: date(t, tt.start),
				EndDate:   date(t, tt.end),
			})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.RentalRequest{}).Count(&count).Error)
	assert.Zero(t, count, "rejected input must not persist a request")
}

func TestCreateRentalRequestOwnBike(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	bike := seedRentBike(t, db, owner.ID, "500")

	_, err := svc.CreateRentalRequest(context.Background(), owner.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateRentalRequestWrongListingType(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	bike := seedSaleBike(t, db, owner.ID, "85000")

	_, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateRentalRequestUnavailableBike(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	bike := seedRentBike(t, db, owner.ID, "500")
	require.NoError(t, db.Model(bike).Update("is_available", false).Error)

	_, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestCreateRentalRequestNotifiesOwner(t *testing.T) {
	svc, db, notifier := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	bike := seedRentBike(t, db, owner.ID, "500")

	request, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
		Message:   "weekend trip",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, request.Status)

	events := notifier.byKind(notify.EventRentalRequestCreated)
	require.Len(t, events, 1)
	assert.Equal(t, owner.ID, events[0].RecipientID)
	assert.Equal(t, renter.Username, events[0].ActorName)
	assert.Equal(t, "Honda CBR 150 (2019)", events[0].BikeLabel)
}

func TestApproveRentalRequest(t *testing.T) {
	svc, db, notifier := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	bike := seedRentBike(t, db, owner.ID, "500")

	request, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	require.NoError(t, err)

	rental, err := svc.ApproveRentalRequest(context.Background(), owner.ID, request.ID)
	require.NoError(t, err)

	// 4 whole days at 500/day.
	assert.True(t, dec("2000").Equal(rental.TotalPrice), "got %s", rental.TotalPrice)
	assert.Equal(t, models.RentalStatusActive, rental.Status)
	assert.Equal(t, owner.ID, rental.OwnerID)
	assert.False(t, reloadBike(t, db, bike.ID).IsAvailable)

	var got models.RentalRequest
	require.NoError(t, db.First(&got, request.ID).Error)
	assert.Equal(t, models.RequestStatusApproved, got.Status)

	events := notifier.byKind(notify.EventRentalRequestApproved)
	require.Len(t, events, 1)
	assert.Equal(t, renter.ID, events[0].RecipientID)
	assert.Equal(t, "₹2000.00", events[0].Price)
}

func TestApproveRentalRequestRequiresOwner(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	stranger := seedUser(t, db, "stranger")
	bike := seedRentBike(t, db, owner.ID, "500")

	request, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	require.NoError(t, err)

	_, err = svc.ApproveRentalRequest(context.Background(), stranger.ID, request.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, reloadBike(t, db, bike.ID).IsAvailable)
}

func TestApproveRentalRequestTwice(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	bike := seedRentBike(t, db, owner.ID, "500")

	request, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	require.NoError(t, err)

	_, err = svc.ApproveRentalRequest(context.Background(), owner.ID, request.ID)
	require.NoError(t, err)

	_, err = svc.ApproveRentalRequest(context.Background(), owner.ID, request.ID)
	assert.ErrorIs(t, err, ErrStateConflict)

	var rentals int64
	require.NoError(t, db.Model(&models.Rental{}).Count(&rentals).Error)
	assert.EqualValues(t, 1, rentals)
}

func TestApproveTwoRequestsForSameBike(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	first := seedUser(t, db, "first")
	second := seedUser(t, db, "second")
	bike := seedRentBike(t, db, owner.ID, "500")

	reqA, err := svc.CreateRentalRequest(context.Background(), first.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	require.NoError(t, err)
	reqB, err := svc.CreateRentalRequest(context.Background(), second.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-02"),
		EndDate:   date(t, "2026-03-06"),
	})
	require.NoError(t, err)

	_, err = svc.ApproveRentalRequest(context.Background(), owner.ID, reqA.ID)
	require.NoError(t, err)

	// The second approval loses the availability claim; the whole
	// transaction rolls back, so the losing request stays pending.
	_, err = svc.ApproveRentalRequest(context.Background(), owner.ID, reqB.ID)
	assert.ErrorIs(t, err, ErrStateConflict)

	var got models.RentalRequest
	require.NoError(t, db.First(&got, reqB.ID).Error)
	assert.Equal(t, models.RequestStatusPending, got.Status)

	var rentals int64
	require.NoError(t, db.Model(&models.Rental{}).Count(&rentals).Error)
	assert.EqualValues(t, 1, rentals)
}

func TestRejectRentalRequest(t *testing.T) {
	svc, db, notifier := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	bike := seedRentBike(t, db, owner.ID, "500")

	request, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	require.NoError(t, err)

	got, err := svc.RejectRentalRequest(context.Background(), owner.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, got.Status)
	assert.True(t, reloadBike(t, db, bike.ID).IsAvailable)

	var rentals int64
	require.NoError(t, db.Model(&models.Rental{}).Count(&rentals).Error)
	assert.Zero(t, rentals)

	events := notifier.byKind(notify.EventRentalRequestRejected)
	require.Len(t, events, 1)
	assert.Equal(t, renter.ID, events[0].RecipientID)

	_, err = svc.ApproveRentalRequest(context.Background(), owner.ID, request.ID)
	assert.ErrorIs(t, err, ErrStateConflict, "a rejected request cannot be approved later")
}

func TestCompleteRental(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	bike := seedRentBike(t, db, owner.ID, "500")

	request, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	require.NoError(t, err)
	rental, err := svc.ApproveRentalRequest(context.Background(), owner.ID, request.ID)
	require.NoError(t, err)

	_, err = svc.CompleteRental(context.Background(), renter.ID, rental.ID)
	assert.ErrorIs(t, err, ErrUnauthorized, "only the owner completes a rental")

	got, err := svc.CompleteRental(context.Background(), owner.ID, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusCompleted, got.Status)
	assert.True(t, reloadBike(t, db, bike.ID).IsAvailable)

	_, err = svc.CompleteRental(context.Background(), owner.ID, rental.ID)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestCancelRental(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	renter := seedUser(t, db, "renter")
	stranger := seedUser(t, db, "stranger")
	bike := seedRentBike(t, db, owner.ID, "500")

	request, err := svc.CreateRentalRequest(context.Background(), renter.ID, CreateRentalRequestInput{
		BikeID:    bike.ID,
		StartDate: date(t, "2026-03-01"),
		EndDate:   date(t, "2026-03-05"),
	})
	require.NoError(t, err)
	rental, err := svc.ApproveRentalRequest(context.Background(), owner.ID, request.ID)
	require.NoError(t, err)

	_, err = svc.CancelRental(context.Background(), stranger.ID, rental.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := svc.CancelRental(context.Background(), renter.ID, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusCancelled, got.Status)
	assert.True(t, reloadBike(t, db, bike.ID).IsAvailable)

	_, err = svc.CancelRental(context.Background(), renter.ID, rental.ID)
	assert.ErrorIs(t, err, ErrStateConflict, "a cancelled rental is terminal")
}
