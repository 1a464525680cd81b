package lifecycle

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/surimakeskilled/carrental/internal/models"
	"gorm.io/gorm"
)

// BikeInput carries the owner-editable fields of a bike listing.
type BikeInput struct {
	Brand       string
	BikeModel   string
	Year        int
	EngineCC    int
	KMDriven    int
	Mileage     float64
	Condition   string
	Description string
	ListingType string
	PricePerDay *decimal.Decimal
	SalePrice   *decimal.Decimal
	ImageURL1   string
	ImageURL2   string
	ImageURL3   string
}

func validateBikeInput(in BikeInput) error {
	if in.Brand == "" || in.BikeModel == "" {
		return fmt.Errorf("%w: brand and model are required", ErrValidation)
	}
	if in.Year <= 0 {
		return fmt.Errorf("%w: year is required", ErrValidation)
	}
	switch in.ListingType {
	case models.ListingTypeRent:
		if in.PricePerDay == nil || in.PricePerDay.Sign() <= 0 {
			return fmt.Errorf("%w: a positive price per day is required for rent listings", ErrValidation)
		}
	case models.ListingTypeSale:
		if in.SalePrice == nil || in.SalePrice.Sign() <= 0 {
			return fmt.Errorf("%w: a positive sale price is required for sale listings", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: listing type must be rent or sale", ErrValidation)
	}
	return nil
}

// CreateBike lists a new bike owned by the caller. A rent listing carries a
// daily price, a sale listing a sale price; the irrelevant price is dropped.
func (s *Service) CreateBike(ctx context.Context, ownerID uint, in BikeInput) (*models.Bike, error) {
	if err := validateBikeInput(in); err != nil {
		return nil, err
	}

	bike := models.Bike{
		Brand:       in.Brand,
		BikeModel:   in.BikeModel,
		Year:        in.Year,
		EngineCC:    in.EngineCC,
		KMDriven:    in.KMDriven,
		Mileage:     in.Mileage,
		Condition:   in.Condition,
		Description: in.Description,
		ListingType: in.ListingType,
		IsAvailable: true,
		OwnerID:     ownerID,
		ImageURL1:   in.ImageURL1,
		ImageURL2:   in.ImageURL2,
		ImageURL3:   in.ImageURL3,
	}
	switch in.ListingType {
	case models.ListingTypeRent:
		bike.PricePerDay = in.PricePerDay
	case models.ListingTypeSale:
		bike.SalePrice = in.SalePrice
	}

	if err := s.db.WithContext(ctx).Create(&bike).Error; err != nil {
		return nil, fmt.Errorf("create bike: %w", err)
	}
	return &bike, nil
}

// UpdateBike edits a listing the caller owns. The availability flag is
// owned by the lifecycle engine and is never written here, so an edit can
// never race an approval into a double booking.
func (s *Service) UpdateBike(ctx context.Context, callerID, bikeID uint, in BikeInput) (*models.Bike, error) {
	if err := validateBikeInput(in); err != nil {
		return nil, err
	}

	var bike models.Bike
	if err := s.db.WithContext(ctx).First(&bike, bikeID).Error; err != nil {
		return nil, notFoundOr(err, fmt.Errorf("load bike: %w", err))
	}
	if bike.OwnerID != callerID {
		return nil, fmt.Errorf("%w: only the owner can edit this bike", ErrUnauthorized)
	}

	bike.Brand = in.Brand
	bike.BikeModel = in.BikeModel
	bike.Year = in.Year
	bike.EngineCC = in.EngineCC
	bike.KMDriven = in.KMDriven
	bike.Mileage = in.Mileage
	bike.Condition = in.Condition
	bike.Description = in.Description
	bike.ListingType = in.ListingType
	bike.PricePerDay = nil
	bike.SalePrice = nil
	switch in.ListingType {
	case models.ListingTypeRent:
		bike.PricePerDay = in.PricePerDay
	case models.ListingTypeSale:
		bike.SalePrice = in.SalePrice
	}
	if in.ImageURL1 != "" {
		bike.ImageURL1 = in.ImageURL1
	}
	if in.ImageURL2 != "" {
		bike.ImageURL2 = in.ImageURL2
	}
	if in.ImageURL3 != "" {
		bike.ImageURL3 = in.ImageURL3
	}

	err := s.db.WithContext(ctx).Model(&bike).Select(
		"brand", "bike_model", "year", "engine_cc", "km_driven", "mileage",
		"condition", "description", "listing_type", "price_per_day", "sale_price",
		"image_url1", "image_url2", "image_url3",
	).Updates(&bike).Error
	if err != nil {
		return nil, fmt.Errorf("update bike: %w", err)
	}
	return &bike, nil
}

// DeleteBike removes a listing and its request/history rows. Deletion is
// refused while the bike is held by an active rental or an accepted
// purchase; the claim must be completed or cancelled first.
func (s *Service) DeleteBike(ctx context.Context, callerID, bikeID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bike models.Bike
		if err := tx.First(&bike, bikeID).Error; err != nil {
			return notFoundOr(err, fmt.Errorf("load bike: %w", err))
		}
		if bike.OwnerID != callerID {
			return fmt.Errorf("%w: only the owner can delete this bike", ErrUnauthorized)
		}

		var held int64
		err := tx.Model(&models.Rental{}).
			Where("bike_id = ? AND status = ?", bikeID, models.RentalStatusActive).
			Count(&held).Error
		if err != nil {
			return fmt.Errorf("check active rentals: %w", err)
		}
		if held == 0 {
			err = tx.Model(&models.Purchase{}).
				Where("bike_id = ? AND status = ?", bikeID, models.PurchaseStatusAccepted).
				Count(&held).Error
			if err != nil {
				return fmt.Errorf("check accepted purchases: %w", err)
			}
		}
		if held > 0 {
			return fmt.Errorf("%w: bike has an active rental or accepted purchase", ErrStateConflict)
		}

		if err := tx.Where("bike_id = ?", bikeID).Delete(&models.RentalRequest{}).Error; err != nil {
			return fmt.Errorf("delete rental requests: %w", err)
		}
		if err := tx.Where("bike_id = ?", bikeID).Delete(&models.Rental{}).Error; err != nil {
			return fmt.Errorf("delete rentals: %w", err)
		}
		if err := tx.Where("bike_id = ?", bikeID).Delete(&models.Purchase{}).Error; err != nil {
			return fmt.Errorf("delete purchases: %w", err)
		}
		if err := tx.Delete(&bike).Error; err != nil {
			return fmt.Errorf("delete bike: %w", err)
		}
		return nil
	})
}
