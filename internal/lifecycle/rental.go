package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surimakeskilled/carrental/internal/models"
	"github.com/surimakeskilled/carrental/internal/notify"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// CreateRentalRequestInput is the typed input for CreateRentalRequest.
type CreateRentalRequestInput struct {
	BikeID    uint
	StartDate time.Time
	EndDate   time.Time
	Message   string
}

// wholeDays returns the number of whole days between start and end.
func wholeDays(start, end time.Time) int64 {
	return int64(end.Sub(start).Hours() / 24)
}

// CreateRentalRequest records a renter's proposal to rent a bike.
// The date range is validated here, not at approval time.
func (s *Service) CreateRentalRequest(ctx context.Context, renterID uint, in CreateRentalRequestInput) (*models.RentalRequest, error) {
	if !in.StartDate.Before(in.EndDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}

	var bike models.Bike
	if err := s.db.WithContext(ctx).Preload("Owner").First(&bike, in.BikeID).Error; err != nil {
		return nil, notFoundOr(err, fmt.Errorf("load bike: %w", err))
	}
	if bike.OwnerID == renterID {
		return nil, fmt.Errorf("%w: you cannot request to rent your own bike", ErrValidation)
	}
	if bike.ListingType != models.ListingTypeRent {
		return nil, fmt.Errorf("%w: this bike is not listed for rent", ErrValidation)
	}
	if !bike.IsAvailable {
		return nil, fmt.Errorf("%w: this bike is not available", ErrStateConflict)
	}

	var renter models.User
	if err := s.db.WithContext(ctx).First(&renter, renterID).Error; err != nil {
		return nil, notFoundOr(err, fmt.Errorf("load renter: %w", err))
	}

	request := models.RentalRequest{
		BikeID:    in.BikeID,
		RenterID:  renterID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Message:   in.Message,
		Status:    models.RequestStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, fmt.Errorf("create rental request: %w", err)
	}

	if bike.Owner != nil {
		s.dispatch(ctx, []notify.Event{{
			Kind:           notify.EventRentalRequestCreated,
			RecipientID:    bike.OwnerID,
			RecipientEmail: bike.Owner.Email,
			RecipientName:  bike.Owner.Username,
			ActorName:      renter.Username,
			BikeLabel:      bike.Label(),
			StartDate:      in.StartDate.Format(dateLayout),
			EndDate:        in.EndDate.Format(dateLayout),
			Message:        in.Message,
		}})
	}
	return &request, nil
}

// ApproveRentalRequest promotes a pending request into an active rental.
// The request flip, the availability claim and the rental creation are one
// atomic unit; a second approval for the same bike loses the claim and the
// whole transaction rolls back.
func (s *Service) ApproveRentalRequest(ctx context.Context, callerID, requestID uint) (*models.Rental, error) {
	var rental *models.Rental
	var events []notify.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.RentalRequest
		if err := tx.Preload("Bike").Preload("Renter").First(&request, requestID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load rental request: %w", err))
		}
		if request.Bike == nil || request.Bike.OwnerID != callerID {
			return fmt.Errorf("%w: only the bike owner can approve requests", ErrUnauthorized)
		}
		if request.Bike.PricePerDay == nil {
			return fmt.Errorf("%w: bike has no rental price", ErrValidation)
		}

		res := tx.Model(&models.RentalRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestStatusPending).
			Update("status", models.RequestStatusApproved)
		if res.Error != nil {
			return fmt.Errorf("approve rental request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request has already been processed", ErrStateConflict)
		}

		if err := claimBike(tx, request.BikeID); err != nil {
			return err
		}

		days := wholeDays(request.StartDate, request.EndDate)
		totalPrice := request.Bike.PricePerDay.Mul(decimal.NewFromInt(days))

		rental = &models.Rental{
			BikeID:     request.BikeID,
			RenterID:   request.RenterID,
			OwnerID:    request.Bike.OwnerID,
			StartDate:  request.StartDate,
			EndDate:    request.EndDate,
			TotalPrice: totalPrice,
			Status:     models.RentalStatusActive,
		}
		if err := tx.Create(rental).Error; err != nil {
			return fmt.Errorf("create rental: %w", err)
		}

		var owner models.User
		if err := tx.First(&owner, request.Bike.OwnerID).Error; err != nil {
			return fmt.Errorf("load owner: %w", err)
		}
		if request.Renter != nil {
			events = append(events, notify.Event{
				Kind:           notify.EventRentalRequestApproved,
				RecipientID:    request.RenterID,
				RecipientEmail: request.Renter.Email,
				RecipientName:  request.Renter.Username,
				ActorName:      owner.Username,
				BikeLabel:      request.Bike.Label(),
				Price:          fmtPrice(totalPrice),
				Contact:        contactOf(&owner),
				StartDate:      request.StartDate.Format(dateLayout),
				EndDate:        request.EndDate.Format(dateLayout),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)
	return rental, nil
}

// RejectRentalRequest resolves a pending request without touching the bike.
func (s *Service) RejectRentalRequest(ctx context.Context, callerID, requestID uint) (*models.RentalRequest, error) {
	var request models.RentalRequest
	var events []notify.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Bike").Preload("Renter").First(&request, requestID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load rental request: %w", err))
		}
		if request.Bike == nil || request.Bike.OwnerID != callerID {
			return fmt.Errorf("%w: only the bike owner can reject requests", ErrUnauthorized)
		}

		res := tx.Model(&models.RentalRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestStatusPending).
			Update("status", models.RequestStatusRejected)
		if res.Error != nil {
			return fmt.Errorf("reject rental request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request has already been processed", ErrStateConflict)
		}
		request.Status = models.RequestStatusRejected

		if request.Renter != nil {
			events = append(events, notify.Event{
				Kind:           notify.EventRentalRequestRejected,
				RecipientID:    request.RenterID,
				RecipientEmail: request.Renter.Email,
				RecipientName:  request.Renter.Username,
				BikeLabel:      request.Bike.Label(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)
	return &request, nil
}

// CompleteRental marks an active rental completed and releases the bike.
func (s *Service) CompleteRental(ctx context.Context, callerID, rentalID uint) (*models.Rental, error) {
	var rental models.Rental

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rental, rentalID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load rental: %w", err))
		}
		if rental.OwnerID != callerID {
			return fmt.Errorf("%w: only the bike owner can complete a rental", ErrUnauthorized)
		}

		res := tx.Model(&models.Rental{}).
			Where("id = ? AND status = ?", rental.ID, models.RentalStatusActive).
			Update("status", models.RentalStatusCompleted)
		if res.Error != nil {
			return fmt.Errorf("complete rental: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: only active rentals can be marked as complete", ErrStateConflict)
		}
		rental.Status = models.RentalStatusCompleted

		return releaseBike(tx, rental.BikeID)
	})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// CancelRental cancels a pending or active rental and releases the bike.
// Either party may cancel; terminal rentals cannot be cancelled, otherwise
// a finished claim could release an availability owned by a newer rental.
func (s *Service) CancelRental(ctx context.Context, callerID, rentalID uint) (*models.Rental, error) {
	var rental models.Rental

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rental, rentalID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load rental: %w", err))
		}
		if rental.OwnerID != callerID && rental.RenterID != callerID {
			return fmt.Errorf("%w: only the owner or the renter can cancel a rental", ErrUnauthorized)
		}

		res := tx.Model(&models.Rental{}).
			Where("id = ? AND status IN (?)", rental.ID, []string{models.RentalStatusPending, models.RentalStatusActive}).
			Update("status", models.RentalStatusCancelled)
		if res.Error != nil {
			return fmt.Errorf("cancel rental: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: rental cannot be cancelled", ErrStateConflict)
		}
		rental.Status = models.RentalStatusCancelled

		return releaseBike(tx, rental.BikeID)
	})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}
