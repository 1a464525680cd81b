package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surimakeskilled/carrental/internal/models"
	"github.com/surimakeskilled/carrental/internal/notify"
)

func TestCreatePurchaseRequest(t *testing.T) {
	svc, db, notifier := newTestService(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	bike := seedSaleBike(t, db, seller.ID, "85000")

	purchase, err := svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{
		BikeID:  bike.ID,
		Message: "is the price negotiable?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusPending, purchase.Status)
	assert.Equal(t, seller.ID, purchase.SellerID)
	assert.True(t, dec("85000").Equal(purchase.Price))

	events := notifier.byKind(notify.EventPurchaseRequestCreated)
	require.Len(t, events, 1)
	assert.Equal(t, seller.ID, events[0].RecipientID)
	assert.Equal(t, buyer.Username, events[0].ActorName)
}

func TestCreatePurchaseRequestValidation(t *testing.T) {
	svc, db, _ := newTestService(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	saleBike := seedSaleBike(t, db, seller.ID, "85000")
	rentBike := seedRentBike(t, db, seller.ID, "500")

	_, err := svc.CreatePurchaseRequest(context.Background(), seller.ID, CreatePurchaseRequestInput{BikeID: saleBike.ID})
	assert.ErrorIs(t, err, ErrValidation, "owner cannot buy own bike")

	_, err = svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: rentBike.ID})
	assert.ErrorIs(t, err, ErrValidation, "rent listing is not purchasable")

	_, err = svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: 9999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePurchaseRequestDuplicatePending(t *testing.T) {
	svc, db, _ := newTestService(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	bike := seedSaleBike(t, db, seller.ID, "85000")

	_, err := svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)

	_, err = svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	assert.ErrorIs(t, err, ErrStateConflict)

	// The rejected attempt must roll back completely.
	var count int64
	require.NoError(t, db.Model(&models.Purchase{}).Where("buyer_id = ?", buyer.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Resolving the pending request reopens the door for the same buyer.
	var existing models.Purchase
	require.NoError(t, db.Where("buyer_id = ?", buyer.ID).First(&existing).Error)
	_, err = svc.RejectPurchase(context.Background(), seller.ID, existing.ID)
	require.NoError(t, err)

	_, err = svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)
}

func TestPurchasePriceIsSnapshotted(t *testing.T) {
	svc, db, _ := newTestService(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	bike := seedSaleBike(t, db, seller.ID, "85000")

	purchase, err := svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)

	// Seller raises the price while the request is open.
	require.NoError(t, db.Model(&models.Bike{}).Where("id = ?", bike.ID).Update("sale_price", dec("95000")).Error)

	accepted, err := svc.AcceptPurchase(context.Background(), seller.ID, purchase.ID)
	require.NoError(t, err)
	assert.True(t, dec("85000").Equal(accepted.Price), "accepted price must be the creation-time snapshot")
}

func TestAcceptPurchaseCascadeRejects(t *testing.T) {
	svc, db, notifier := newTestService(t)
	seller := seedUser(t, db, "seller")
	winner := seedUser(t, db, "winner")
	loser1 := seedUser(t, db, "loser1")
	loser2 := seedUser(t, db, "loser2")
	bike := seedSaleBike(t, db, seller.ID, "85000")

	win, err := svc.CreatePurchaseRequest(context.Background(), winner.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)
	lose1, err := svc.CreatePurchaseRequest(context.Background(), loser1.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)
	lose2, err := svc.CreatePurchaseRequest(context.Background(), loser2.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)

	accepted, err := svc.AcceptPurchase(context.Background(), seller.ID, win.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusAccepted, accepted.Status)
	assert.False(t, reloadBike(t, db, bike.ID).IsAvailable)

	for _, id := range []uint{lose1.ID, lose2.ID} {
		var got models.Purchase
		require.NoError(t, db.First(&got, id).Error)
		assert.Equal(t, models.PurchaseStatusRejected, got.Status)
	}

	acceptedEvents := notifier.byKind(notify.EventPurchaseAccepted)
	require.Len(t, acceptedEvents, 2, "buyer and seller are both informed")
	recipients := map[uint]bool{}
	for _, e := range acceptedEvents {
		recipients[e.RecipientID] = true
	}
	assert.True(t, recipients[winner.ID])
	assert.True(t, recipients[seller.ID])

	autoRejected := notifier.byKind(notify.EventPurchaseAutoRejected)
	require.Len(t, autoRejected, 2)
}

func TestAcceptPurchaseRequiresSeller(t *testing.T) {
	svc, db, _ := newTestService(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	bike := seedSaleBike(t, db, seller.ID, "85000")

	purchase, err := svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)

	_, err = svc.AcceptPurchase(context.Background(), buyer.ID, purchase.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, reloadBike(t, db, bike.ID).IsAvailable)
}

func TestAcceptPurchaseTwice(t *testing.T) {
	svc, db, _ := newTestService(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	bike := seedSaleBike(t, db, seller.ID, "85000")

	purchase, err := svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)

	_, err = svc.AcceptPurchase(context.Background(), seller.ID, purchase.ID)
	require.NoError(t, err)

	_, err = svc.AcceptPurchase(context.Background(), seller.ID, purchase.ID)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestRejectPurchase(t *testing.T) {
	svc, db, notifier := newTestService(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	bike := seedSaleBike(t, db, seller.ID, "85000")

	purchase, err := svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)

	got, err := svc.RejectPurchase(context.Background(), seller.ID, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusRejected, got.Status)
	assert.True(t, reloadBike(t, db, bike.ID).IsAvailable)

	events := notifier.byKind(notify.EventPurchaseRejected)
	require.Len(t, events, 1)
	assert.Equal(t, buyer.ID, events[0].RecipientID)

	_, err = svc.AcceptPurchase(context.Background(), seller.ID, purchase.ID)
	assert.ErrorIs(t, err, ErrStateConflict, "a rejected purchase cannot be accepted later")
}

func TestCancelPurchase(t *testing.T) {
	svc, db, _ := newTestService(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	stranger := seedUser(t, db, "stranger")
	bike := seedSaleBike(t, db, seller.ID, "85000")

	purchase, err := svc.CreatePurchaseRequest(context.Background(), buyer.ID, CreatePurchaseRequestInput{BikeID: bike.ID})
	require.NoError(t, err)

	_, err = svc.CancelPurchase(context.Background(), buyer.ID, purchase.ID)
	assert.ErrorIs(t, err, ErrStateConflict, "only accepted purchases can be cancelled")

	_, err = svc.AcceptPurchase(context.Background(), seller.ID, purchase.ID)
	require.NoError(t, err)

	_, err = svc.CancelPurchase(context.Background(), stranger.ID, purchase.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := svc.CancelPurchase(context.Background(), buyer.ID, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCancelled, got.Status)
	assert.True(t, reloadBike(t, db, bike.ID).IsAvailable)
}
