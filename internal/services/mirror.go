package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/surimakeskilled/carrental/internal/models"
)

// The search mirror is a derived, best-effort projection of the bike
// catalogue kept in Redis. The relational store stays authoritative;
// mirror writes that fail are logged by callers and never fail a request,
// and the mirror can always be rebuilt from the database.

var RedisClient *redis.Client

const bikeIndexKey = "bikes:index"

// InitMirror initializes the Redis client backing the search mirror.
func InitMirror() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// BikeDoc is the denormalized search document for one bike.
type BikeDoc struct {
	ID             uint             `json:"id"`
	Brand          string           `json:"brand"`
	Model          string           `json:"model"`
	Year           int              `json:"year"`
	EngineCC       int              `json:"engineCc"`
	KMDriven       int              `json:"kmDriven"`
	Mileage        float64          `json:"mileage"`
	Condition      string           `json:"condition"`
	Description    string           `json:"description"`
	ListingType    string           `json:"listingType"`
	PricePerDay    *decimal.Decimal `json:"pricePerDay,omitempty"`
	SalePrice      *decimal.Decimal `json:"salePrice,omitempty"`
	IsAvailable    bool             `json:"isAvailable"`
	OwnerID        uint             `json:"ownerId"`
	OwnerUsername  string           `json:"ownerUsername,omitempty"`
	Images         []string         `json:"images"`
	SearchKeywords []string         `json:"searchKeywords"`
	UpdatedAt      int64            `json:"updatedAt"`
}

func bikeKey(id uint) string {
	return fmt.Sprintf("bike:%d", id)
}

// NewBikeDoc projects a bike (with owner preloaded, if any) into its
// search document.
func NewBikeDoc(bike *models.Bike) BikeDoc {
	doc := BikeDoc{
		ID:          bike.ID,
		Brand:       bike.Brand,
		Model:       bike.BikeModel,
		Year:        bike.Year,
		EngineCC:    bike.EngineCC,
		KMDriven:    bike.KMDriven,
		Mileage:     bike.Mileage,
		Condition:   bike.Condition,
		Description: bike.Description,
		ListingType: bike.ListingType,
		PricePerDay: bike.PricePerDay,
		SalePrice:   bike.SalePrice,
		IsAvailable: bike.IsAvailable,
		OwnerID:     bike.OwnerID,
		Images:      bike.Images(),
		SearchKeywords: []string{
			strings.ToLower(bike.Brand),
			strings.ToLower(bike.BikeModel),
			fmt.Sprintf("%d", bike.Year),
			strings.ToLower(bike.Condition),
		},
		UpdatedAt: time.Now().Unix(),
	}
	if bike.Owner != nil {
		doc.OwnerUsername = bike.Owner.Username
	}
	return doc
}

// UpsertBike writes the bike's search document and indexes it.
func UpsertBike(ctx context.Context, bike *models.Bike) error {
	if RedisClient == nil {
		return nil
	}
	doc := NewBikeDoc(bike)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	pipe := RedisClient.TxPipeline()
	pipe.Set(ctx, bikeKey(bike.ID), data, 0)
	pipe.SAdd(ctx, bikeIndexKey, bike.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// RemoveBike drops a deleted bike from the mirror.
func RemoveBike(ctx context.Context, bikeID uint) error {
	if RedisClient == nil {
		return nil
	}
	pipe := RedisClient.TxPipeline()
	pipe.Del(ctx, bikeKey(bikeID))
	pipe.SRem(ctx, bikeIndexKey, bikeID)
	_, err := pipe.Exec(ctx)
	return err
}

// SearchParams are the optional filters of a catalogue search.
type SearchParams struct {
	Brand     string
	Model     string
	Year      int
	PriceLow  *decimal.Decimal
	PriceHigh *decimal.Decimal
}

func (p SearchParams) matches(doc BikeDoc) bool {
	if !doc.IsAvailable {
		return false
	}
	if p.Brand != "" && !strings.Contains(strings.ToLower(doc.Brand), strings.ToLower(p.Brand)) {
		return false
	}
	if p.Model != "" && !strings.Contains(strings.ToLower(doc.Model), strings.ToLower(p.Model)) {
		return false
	}
	if p.Year != 0 && doc.Year != p.Year {
		return false
	}
	if p.PriceLow != nil || p.PriceHigh != nil {
		var price *decimal.Decimal
		switch doc.ListingType {
		case models.ListingTypeRent:
			price = doc.PricePerDay
		case models.ListingTypeSale:
			price = doc.SalePrice
		}
		if price == nil {
			return false
		}
		if p.PriceLow != nil && price.LessThan(*p.PriceLow) {
			return false
		}
		if p.PriceHigh != nil && price.GreaterThan(*p.PriceHigh) {
			return false
		}
	}
	return true
}

// SearchBikes scans the mirror and returns the documents matching params.
// Only available bikes are returned.
func SearchBikes(ctx context.Context, params SearchParams) ([]BikeDoc, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("search mirror is not configured")
	}

	ids, err := RedisClient.SMembers(ctx, bikeIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read bike index: %v", err)
	}

	results := make([]BikeDoc, 0, len(ids))
	for _, id := range ids {
		data, err := RedisClient.Get(ctx, "bike:"+id).Result()
		if err == redis.Nil {
			continue // index entry without a document; skip
		}
		if err != nil {
			return nil, fmt.Errorf("read bike document: %v", err)
		}
		var doc BikeDoc
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			continue
		}
		if params.matches(doc) {
			results = append(results, doc)
		}
	}
	return results, nil
}
