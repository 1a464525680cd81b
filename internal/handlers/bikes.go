package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/surimakeskilled/carrental/internal/lifecycle"
	"github.com/surimakeskilled/carrental/internal/models"
	"github.com/surimakeskilled/carrental/internal/pricemodel"
	"github.com/surimakeskilled/carrental/internal/services"
	"github.com/surimakeskilled/carrental/pkg/utils"
	"gorm.io/gorm"
)

// syncMirror refreshes the bike's search document. Mirror failures are
// logged and never surfaced; the database stays authoritative.
func syncMirror(db *gorm.DB, bikeID uint) {
	var bike models.Bike
	if err := db.Preload("Owner").First(&bike, bikeID).Error; err != nil {
		return
	}
	if err := services.UpsertBike(context.Background(), &bike); err != nil {
		utils.Warn("failed to update search mirror", map[string]any{
			"bikeId": bikeID,
			"error":  err.Error(),
		})
	}
}

func dropFromMirror(bikeID uint) {
	if err := services.RemoveBike(context.Background(), bikeID); err != nil {
		utils.Warn("failed to remove bike from search mirror", map[string]any{
			"bikeId": bikeID,
			"error":  err.Error(),
		})
	}
}

// bikeInputFromForm reads the multipart form fields of a bike listing.
func bikeInputFromForm(c *gin.Context) (lifecycle.BikeInput, error) {
	year, _ := strconv.Atoi(c.PostForm("year"))
	engineCC, _ := strconv.Atoi(c.PostForm("engineCc"))
	kmDriven, _ := strconv.Atoi(c.PostForm("kmDriven"))
	mileage, _ := strconv.ParseFloat(c.PostForm("mileage"), 64)

	in := lifecycle.BikeInput{
		Brand:       c.PostForm("brand"),
		BikeModel:   c.PostForm("model"),
		Year:        year,
		EngineCC:    engineCC,
		KMDriven:    kmDriven,
		Mileage:     mileage,
		Condition:   c.PostForm("condition"),
		Description: c.PostForm("description"),
		ListingType: c.PostForm("listingType"),
	}
	if v := c.PostForm("pricePerDay"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return in, err
		}
		in.PricePerDay = &price
	}
	if v := c.PostForm("salePrice"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return in, err
		}
		in.SalePrice = &price
	}
	return in, nil
}

// uploadBikeImages stores up to three images from the form and returns
// their public URLs in slot order.
func uploadBikeImages(c *gin.Context) ([3]string, error) {
	var urls [3]string
	for i, field := range []string{"image1", "image2", "image3"} {
		file, err := c.FormFile(field)
		if err != nil {
			continue // slot not provided
		}
		if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
			return urls, fmt.Errorf("%s is not an image", file.Filename)
		}
		path, err := services.UploadImage(file, "bikes")
		if err != nil {
			return urls, err
		}
		urls[i] = services.GetImageURL(path)
	}
	return urls, nil
}

// CreateBike creates a new bike listing with optional images
func CreateBike(db *gorm.DB, svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		in, err := bikeInputFromForm(c)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid price: " + err.Error()})
			return
		}

		urls, err := uploadBikeImages(c)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload image: " + err.Error()})
			return
		}
		in.ImageURL1, in.ImageURL2, in.ImageURL3 = urls[0], urls[1], urls[2]

		bike, err := svc.CreateBike(c.Request.Context(), userId, in)
		if err != nil {
			respondError(c, err)
			return
		}

		syncMirror(db, bike.ID)
		c.JSON(201, bike)
	}
}

// GetAvailableBikes lists available bikes, newest first, with optional
// listing type filter.
func GetAvailableBikes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bikes []models.Bike
		query := db.Preload("Owner").
			Where("is_available = ?", true).
			Order("created_at DESC")

		if listingType := c.Query("listingType"); listingType != "" {
			query = query.Where("listing_type = ?", listingType)
		}

		if err := query.Find(&bikes).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bikes"})
			return
		}

		c.JSON(200, bikes)
	}
}

// GetBike returns one bike by id with a summary of open activity on it
func GetBike(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bike models.Bike
		if err := db.Preload("Owner").First(&bike, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Bike not found"})
			return
		}

		var pendingRequests, pendingPurchases, activeRentals int64
		db.Model(&models.RentalRequest{}).
			Where("bike_id = ? AND status = ?", bike.ID, models.RequestStatusPending).
			Count(&pendingRequests)
		db.Model(&models.Purchase{}).
			Where("bike_id = ? AND status = ?", bike.ID, models.PurchaseStatusPending).
			Count(&pendingPurchases)
		db.Model(&models.Rental{}).
			Where("bike_id = ? AND status = ?", bike.ID, models.RentalStatusActive).
			Count(&activeRentals)

		c.JSON(200, gin.H{
			"bike":             bike,
			"pendingRequests":  pendingRequests,
			"pendingPurchases": pendingPurchases,
			"activeRentals":    activeRentals,
		})
	}
}

// GetMyBikes lists the authenticated user's own listings
func GetMyBikes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var bikes []models.Bike
		if err := db.Where("owner_id = ?", userId).Order("created_at DESC").Find(&bikes).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bikes"})
			return
		}
		c.JSON(200, bikes)
	}
}

// UpdateBike edits one of the caller's listings
func UpdateBike(db *gorm.DB, svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		bikeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid bike id"})
			return
		}

		in, err := bikeInputFromForm(c)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid price: " + err.Error()})
			return
		}

		urls, err := uploadBikeImages(c)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload image: " + err.Error()})
			return
		}
		in.ImageURL1, in.ImageURL2, in.ImageURL3 = urls[0], urls[1], urls[2]

		bike, err := svc.UpdateBike(c.Request.Context(), userId, uint(bikeID), in)
		if err != nil {
			respondError(c, err)
			return
		}

		syncMirror(db, bike.ID)
		c.JSON(200, bike)
	}
}

// DeleteBike deletes one of the caller's listings and its history
func DeleteBike(svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		bikeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid bike id"})
			return
		}

		if err := svc.DeleteBike(c.Request.Context(), userId, uint(bikeID)); err != nil {
			respondError(c, err)
			return
		}

		dropFromMirror(uint(bikeID))
		c.JSON(200, gin.H{"message": "Bike deleted successfully"})
	}
}

// SearchBikes queries the Redis search mirror; if the mirror is down the
// search falls back to the database.
func SearchBikes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := services.SearchParams{
			Brand: c.Query("brand"),
			Model: c.Query("model"),
		}
		if v := c.Query("year"); v != "" {
			year, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid year"})
				return
			}
			params.Year = year
		}
		if v := c.Query("priceLow"); v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid priceLow"})
				return
			}
			params.PriceLow = &price
		}
		if v := c.Query("priceHigh"); v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid priceHigh"})
				return
			}
			params.PriceHigh = &price
		}

		docs, err := services.SearchBikes(c.Request.Context(), params)
		if err != nil {
			utils.Warn("search mirror unavailable, falling back to database", map[string]any{
				"error": err.Error(),
			})
			searchBikesFromDB(c, db, params)
			return
		}

		c.JSON(200, gin.H{"count": len(docs), "bikes": docs})
	}
}

func searchBikesFromDB(c *gin.Context, db *gorm.DB, params services.SearchParams) {
	var bikes []models.Bike
	query := db.Preload("Owner").Where("is_available = ?", true)

	if params.Brand != "" {
		query = query.Where("LOWER(brand) LIKE LOWER(?)", "%"+params.Brand+"%")
	}
	if params.Model != "" {
		query = query.Where("LOWER(bike_model) LIKE LOWER(?)", "%"+params.Model+"%")
	}
	if params.Year != 0 {
		query = query.Where("year = ?", params.Year)
	}
	if params.PriceLow != nil {
		query = query.Where("(listing_type = 'rent' AND price_per_day >= ?) OR (listing_type = 'sale' AND sale_price >= ?)",
			params.PriceLow, params.PriceLow)
	}
	if params.PriceHigh != nil {
		query = query.Where("(listing_type = 'rent' AND price_per_day <= ?) OR (listing_type = 'sale' AND sale_price <= ?)",
			params.PriceHigh, params.PriceHigh)
	}

	if err := query.Find(&bikes).Error; err != nil {
		c.JSON(500, gin.H{"error": "Failed to search bikes"})
		return
	}

	docs := make([]services.BikeDoc, 0, len(bikes))
	for i := range bikes {
		docs = append(docs, services.NewBikeDoc(&bikes[i]))
	}
	c.JSON(200, gin.H{"count": len(docs), "bikes": docs})
}

// AnalyzeBike estimates a fair price for a sale listing and stores the
// suggestion on the bike.
func AnalyzeBike(db *gorm.DB, model *pricemodel.Model) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bike models.Bike
		if err := db.First(&bike, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Bike not found"})
			return
		}

		estimate, err := model.Estimate(pricemodel.Input{
			Brand:     bike.Brand,
			BikeModel: bike.BikeModel,
			Year:      bike.Year,
			EngineCC:  bike.EngineCC,
			KMDriven:  bike.KMDriven,
			Mileage:   bike.Mileage,
			Condition: bike.Condition,
		})
		if err != nil {
			c.JSON(422, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		updates := map[string]any{
			"suggested_price":        estimate,
			"last_price_calculation": now,
		}
		if err := db.Model(&bike).Updates(updates).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to store price suggestion"})
			return
		}

		resp := gin.H{
			"estimatedPrice": estimate,
			"parameters": gin.H{
				"brand":     bike.Brand,
				"model":     bike.BikeModel,
				"year":      bike.Year,
				"engineCc":  bike.EngineCC,
				"kmDriven":  bike.KMDriven,
				"mileage":   bike.Mileage,
				"condition": bike.Condition,
			},
		}
		if bike.SalePrice != nil {
			resp["actualPrice"] = bike.SalePrice
		}
		c.JSON(200, resp)
	}
}
