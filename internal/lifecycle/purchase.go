package lifecycle

import (
	"context"
	"fmt"

	"github.com/surimakeskilled/carrental/internal/models"
	"github.com/surimakeskilled/carrental/internal/notify"
	"gorm.io/gorm"
)

// CreatePurchaseRequestInput is the typed input for CreatePurchaseRequest.
type CreatePurchaseRequestInput struct {
	BikeID  uint
	Message string
}

// CreatePurchaseRequest records a buyer's offer on a bike listed for sale.
// The sale price is snapshotted onto the purchase here, so a later price
// edit by the seller cannot change what an open request is for. The
// duplicate-pending check and the insert share one transaction so two
// requests racing each other cannot both slip past the guard.
func (s *Service) CreatePurchaseRequest(ctx context.Context, buyerID uint, in CreatePurchaseRequestInput) (*models.Purchase, error) {
	var purchase models.Purchase
	var events []notify.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bike models.Bike
		if err := tx.Preload("Owner").First(&bike, in.BikeID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load bike: %w", err))
		}
		if bike.OwnerID == buyerID {
			return fmt.Errorf("%w: you cannot purchase your own bike", ErrValidation)
		}
		if bike.ListingType != models.ListingTypeSale {
			return fmt.Errorf("%w: this bike is not listed for sale", ErrValidation)
		}
		if bike.SalePrice == nil {
			return fmt.Errorf("%w: bike has no sale price", ErrValidation)
		}
		if !bike.IsAvailable {
			return fmt.Errorf("%w: this bike is no longer available", ErrStateConflict)
		}

		var pending int64
		err := tx.Model(&models.Purchase{}).
			Where("bike_id = ? AND buyer_id = ? AND status = ?", in.BikeID, buyerID, models.PurchaseStatusPending).
			Count(&pending).Error
		if err != nil {
			return fmt.Errorf("check pending purchases: %w", err)
		}
		if pending > 0 {
			return fmt.Errorf("%w: you already have a pending request for this bike", ErrStateConflict)
		}

		var buyer models.User
		if err := tx.First(&buyer, buyerID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load buyer: %w", err))
		}

		purchase = models.Purchase{
			BikeID:   in.BikeID,
			BuyerID:  buyerID,
			SellerID: bike.OwnerID,
			Price:    *bike.SalePrice,
			Message:  in.Message,
			Status:   models.PurchaseStatusPending,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return fmt.Errorf("create purchase request: %w", err)
		}

		if bike.Owner != nil {
			events = append(events, notify.Event{
				Kind:           notify.EventPurchaseRequestCreated,
				RecipientID:    bike.OwnerID,
				RecipientEmail: bike.Owner.Email,
				RecipientName:  bike.Owner.Username,
				ActorName:      buyer.Username,
				BikeLabel:      bike.Label(),
				Price:          fmtPrice(purchase.Price),
				Contact:        contactOf(&buyer),
				Message:        in.Message,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)
	return &purchase, nil
}

// AcceptPurchase accepts one pending purchase, claims the bike and rejects
// every other pending purchase for it — all in a single transaction. A lost
// availability claim aborts the accept entirely; two buyers can never win.
func (s *Service) AcceptPurchase(ctx context.Context, callerID, purchaseID uint) (*models.Purchase, error) {
	var purchase models.Purchase
	var events []notify.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Bike").Preload("Buyer").First(&purchase, purchaseID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load purchase: %w", err))
		}
		if purchase.Bike == nil || purchase.Bike.OwnerID != callerID {
			return fmt.Errorf("%w: only the bike owner can accept purchase requests", ErrUnauthorized)
		}

		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND status = ?", purchase.ID, models.PurchaseStatusPending).
			Update("status", models.PurchaseStatusAccepted)
		if res.Error != nil {
			return fmt.Errorf("accept purchase: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request has already been processed", ErrStateConflict)
		}
		purchase.Status = models.PurchaseStatusAccepted

		if err := claimBike(tx, purchase.BikeID); err != nil {
			return err
		}

		// Cascade rejection of the losing pending requests, same transaction.
		var losers []models.Purchase
		err := tx.Preload("Buyer").
			Where("bike_id = ? AND id <> ? AND status = ?", purchase.BikeID, purchase.ID, models.PurchaseStatusPending).
			Find(&losers).Error
		if err != nil {
			return fmt.Errorf("load competing purchases: %w", err)
		}
		if len(losers) > 0 {
			res := tx.Model(&models.Purchase{}).
				Where("bike_id = ? AND id <> ? AND status = ?", purchase.BikeID, purchase.ID, models.PurchaseStatusPending).
				Update("status", models.PurchaseStatusRejected)
			if res.Error != nil {
				return fmt.Errorf("auto-reject competing purchases: %w", res.Error)
			}
		}

		var seller models.User
		if err := tx.First(&seller, purchase.Bike.OwnerID).Error; err != nil {
			return fmt.Errorf("load seller: %w", err)
		}

		if purchase.Buyer != nil {
			events = append(events, notify.Event{
				Kind:           notify.EventPurchaseAccepted,
				RecipientID:    purchase.BuyerID,
				RecipientEmail: purchase.Buyer.Email,
				RecipientName:  purchase.Buyer.Username,
				ActorName:      seller.Username,
				BikeLabel:      purchase.Bike.Label(),
				Price:          fmtPrice(purchase.Price),
				Contact:        contactOf(&seller),
			})
			events = append(events, notify.Event{
				Kind:           notify.EventPurchaseAccepted,
				RecipientID:    seller.ID,
				RecipientEmail: seller.Email,
				RecipientName:  seller.Username,
				ActorName:      purchase.Buyer.Username,
				BikeLabel:      purchase.Bike.Label(),
				Price:          fmtPrice(purchase.Price),
				Contact:        contactOf(purchase.Buyer),
			})
		}
		for _, loser := range losers {
			if loser.Buyer == nil {
				continue
			}
			events = append(events, notify.Event{
				Kind:           notify.EventPurchaseAutoRejected,
				RecipientID:    loser.BuyerID,
				RecipientEmail: loser.Buyer.Email,
				RecipientName:  loser.Buyer.Username,
				BikeLabel:      purchase.Bike.Label(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)
	return &purchase, nil
}

// RejectPurchase resolves a pending purchase without touching the bike.
func (s *Service) RejectPurchase(ctx context.Context, callerID, purchaseID uint) (*models.Purchase, error) {
	var purchase models.Purchase
	var events []notify.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Bike").Preload("Buyer").First(&purchase, purchaseID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load purchase: %w", err))
		}
		if purchase.Bike == nil || purchase.Bike.OwnerID != callerID {
			return fmt.Errorf("%w: only the bike owner can reject purchase requests", ErrUnauthorized)
		}

		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND status = ?", purchase.ID, models.PurchaseStatusPending).
			Update("status", models.PurchaseStatusRejected)
		if res.Error != nil {
			return fmt.Errorf("reject purchase: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request has already been processed", ErrStateConflict)
		}
		purchase.Status = models.PurchaseStatusRejected

		if purchase.Buyer != nil {
			events = append(events, notify.Event{
				Kind:           notify.EventPurchaseRejected,
				RecipientID:    purchase.BuyerID,
				RecipientEmail: purchase.Buyer.Email,
				RecipientName:  purchase.Buyer.Username,
				BikeLabel:      purchase.Bike.Label(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)
	return &purchase, nil
}

// CancelPurchase backs out of an accepted sale and releases the bike.
// Either party may cancel. This transition is an extension over the core
// machine, which otherwise leaves an accepted sale holding the bike forever.
func (s *Service) CancelPurchase(ctx context.Context, callerID, purchaseID uint) (*models.Purchase, error) {
	var purchase models.Purchase

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&purchase, purchaseID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load purchase: %w", err))
		}
		if purchase.BuyerID != callerID && purchase.SellerID != callerID {
			return fmt.Errorf("%w: only the buyer or the seller can cancel a purchase", ErrUnauthorized)
		}

		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND status = ?", purchase.ID, models.PurchaseStatusAccepted).
			Update("status", models.PurchaseStatusCancelled)
		if res.Error != nil {
			return fmt.Errorf("cancel purchase: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: only accepted purchases can be cancelled", ErrStateConflict)
		}
		purchase.Status = models.PurchaseStatusCancelled

		return releaseBike(tx, purchase.BikeID)
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}
