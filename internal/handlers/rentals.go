package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/surimakeskilled/carrental/internal/lifecycle"
	"github.com/surimakeskilled/carrental/internal/models"
	"gorm.io/gorm"
)

type CreateRentalRequestInput struct {
	BikeID    uint   `json:"bikeId" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	Message   string `json:"message"`
}

const dateLayout = "2006-01-02"

// CreateRentalRequest submits a rental request for a bike
func CreateRentalRequest(svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input CreateRentalRequestInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		startDate, err := time.Parse(dateLayout, input.StartDate)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid start date, expected YYYY-MM-DD"})
			return
		}
		endDate, err := time.Parse(dateLayout, input.EndDate)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid end date, expected YYYY-MM-DD"})
			return
		}

		request, err := svc.CreateRentalRequest(c.Request.Context(), userId, lifecycle.CreateRentalRequestInput{
			BikeID:    input.BikeID,
			StartDate: startDate,
			EndDate:   endDate,
			Message:   input.Message,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, request)
	}
}

func requestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// ApproveRentalRequest approves a pending request and starts the rental
func ApproveRentalRequest(db *gorm.DB, svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id, ok := requestID(c)
		if !ok {
			return
		}

		rental, err := svc.ApproveRentalRequest(c.Request.Context(), userId, id)
		if err != nil {
			respondError(c, err)
			return
		}

		syncMirror(db, rental.BikeID)
		c.JSON(200, rental)
	}
}

// RejectRentalRequest rejects a pending request
func RejectRentalRequest(svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id, ok := requestID(c)
		if !ok {
			return
		}

		request, err := svc.RejectRentalRequest(c.Request.Context(), userId, id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, request)
	}
}

// CompleteRental marks an active rental as completed
func CompleteRental(db *gorm.DB, svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id, ok := requestID(c)
		if !ok {
			return
		}

		rental, err := svc.CompleteRental(c.Request.Context(), userId, id)
		if err != nil {
			respondError(c, err)
			return
		}

		syncMirror(db, rental.BikeID)
		c.JSON(200, rental)
	}
}

// CancelRental cancels a pending or active rental
func CancelRental(db *gorm.DB, svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id, ok := requestID(c)
		if !ok {
			return
		}

		rental, err := svc.CancelRental(c.Request.Context(), userId, id)
		if err != nil {
			respondError(c, err)
			return
		}

		syncMirror(db, rental.BikeID)
		c.JSON(200, rental)
	}
}

// GetRentalRequests lists rental requests relevant to the caller: the ones
// they sent and the ones on their bikes.
func GetRentalRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var sent []models.RentalRequest
		if err := db.Preload("Bike").Preload("Bike.Owner").
			Where("renter_id = ?", userId).
			Order("created_at DESC").
			Find(&sent).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rental requests"})
			return
		}

		var received []models.RentalRequest
		if err := db.Preload("Bike").Preload("Renter").
			Joins("JOIN bikes ON bikes.id = rental_requests.bike_id").
			Where("bikes.owner_id = ?", userId).
			Order("rental_requests.created_at DESC").
			Find(&received).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rental requests"})
			return
		}

		c.JSON(200, gin.H{"sent": sent, "received": received})
	}
}

// GetMyRentals lists rentals where the caller is renter or owner
func GetMyRentals(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var rentals []models.Rental
		if err := db.Preload("Bike").Preload("Renter").Preload("Owner").
			Where("renter_id = ? OR owner_id = ?", userId, userId).
			Order("created_at DESC").
			Find(&rentals).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rentals"})
			return
		}

		c.JSON(200, rentals)
	}
}
