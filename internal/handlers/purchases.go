package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/surimakeskilled/carrental/internal/lifecycle"
	"github.com/surimakeskilled/carrental/internal/models"
	"gorm.io/gorm"
)

type CreatePurchaseRequestInput struct {
	BikeID  uint   `json:"bikeId" binding:"required"`
	Message string `json:"message"`
}

// CreatePurchaseRequest submits a purchase request for a bike listed for sale
func CreatePurchaseRequest(svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input CreatePurchaseRequestInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		purchase, err := svc.CreatePurchaseRequest(c.Request.Context(), userId, lifecycle.CreatePurchaseRequestInput{
			BikeID:  input.BikeID,
			Message: input.Message,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, purchase)
	}
}

// AcceptPurchase accepts a pending purchase request; competing pending
// requests for the same bike are rejected in the same transaction.
func AcceptPurchase(db *gorm.DB, svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id, ok := requestID(c)
		if !ok {
			return
		}

		purchase, err := svc.AcceptPurchase(c.Request.Context(), userId, id)
		if err != nil {
			respondError(c, err)
			return
		}

		syncMirror(db, purchase.BikeID)
		c.JSON(200, purchase)
	}
}

// RejectPurchase rejects a pending purchase request
func RejectPurchase(svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id, ok := requestID(c)
		if !ok {
			return
		}

		purchase, err := svc.RejectPurchase(c.Request.Context(), userId, id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, purchase)
	}
}

// CancelPurchase cancels an accepted purchase and relists the bike
func CancelPurchase(db *gorm.DB, svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id, ok := requestID(c)
		if !ok {
			return
		}

		purchase, err := svc.CancelPurchase(c.Request.Context(), userId, id)
		if err != nil {
			respondError(c, err)
			return
		}

		syncMirror(db, purchase.BikeID)
		c.JSON(200, purchase)
	}
}

// GetMyPurchases lists the purchase requests the caller sent and the ones
// received on their listings.
func GetMyPurchases(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var sent []models.Purchase
		if err := db.Preload("Bike").Preload("Seller").
			Where("buyer_id = ?", userId).
			Order("created_at DESC").
			Find(&sent).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch purchases"})
			return
		}

		var received []models.Purchase
		if err := db.Preload("Bike").Preload("Buyer").
			Where("seller_id = ?", userId).
			Order("created_at DESC").
			Find(&received).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch purchases"})
			return
		}

		c.JSON(200, gin.H{"sent": sent, "received": received})
	}
}
