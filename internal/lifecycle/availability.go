package lifecycle

import (
	"fmt"

	"github.com/surimakeskilled/carrental/internal/models"
	"gorm.io/gorm"
)

// claimBike marks the bike unavailable on behalf of exactly one winning
// rental or purchase. The guarded update is a compare-and-set: it succeeds
// only if the bike is currently available, so of several concurrent
// approvals/acceptances for the same bike at most one can win. It must run
// inside the same transaction as the state transition that consumes it.
func claimBike(tx *gorm.DB, bikeID uint) error {
	res := tx.Model(&models.Bike{}).
		Where("id = ? AND is_available = ?", bikeID, true).
		Update("is_available", false)
	if res.Error != nil {
		return fmt.Errorf("claim bike %d: %w", bikeID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: bike is no longer available", ErrStateConflict)
	}
	return nil
}

// releaseBike unconditionally marks the bike available again. Used when the
// single active claim ends (completion or cancellation).
func releaseBike(tx *gorm.DB, bikeID uint) error {
	res := tx.Model(&models.Bike{}).
		Where("id = ?", bikeID).
		Update("is_available", true)
	if res.Error != nil {
		return fmt.Errorf("release bike %d: %w", bikeID, res.Error)
	}
	return nil
}
