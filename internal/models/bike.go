package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListingType constants
const (
	ListingTypeRent = "rent"
	ListingTypeSale = "sale"
)

// Bike represents a motorcycle listed for rent or sale
type Bike struct {
	gorm.Model
	Brand       string  `json:"brand" gorm:"not null"`
	BikeModel   string  `json:"model" gorm:"column:bike_model;not null"`
	Year        int     `json:"year" gorm:"not null"`
	EngineCC    int     `json:"engineCc" gorm:"column:engine_cc;not null"`
	KMDriven    int     `json:"kmDriven" gorm:"column:km_driven;not null"`
	Mileage     float64 `json:"mileage" gorm:"not null"`
	Condition   string  `json:"condition" gorm:"not null"`
	Description string  `json:"description" gorm:"type:text;not null"`

	ListingType string           `json:"listingType" gorm:"not null"` // rent or sale
	PricePerDay *decimal.Decimal `json:"pricePerDay,omitempty" gorm:"type:numeric"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty" gorm:"type:numeric"`
	IsAvailable bool             `json:"isAvailable" gorm:"not null;default:true"`

	OwnerID uint  `json:"ownerId" gorm:"not null;index"`
	Owner   *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`

	ImageURL1 string `json:"imageUrl1,omitempty"`
	ImageURL2 string `json:"imageUrl2,omitempty"`
	ImageURL3 string `json:"imageUrl3,omitempty"`

	SuggestedPrice       *decimal.Decimal `json:"suggestedPrice,omitempty" gorm:"type:numeric"`
	LastPriceCalculation *time.Time       `json:"lastPriceCalculation,omitempty"`
}

// TableName specifies the table name
func (Bike) TableName() string {
	return "bikes"
}

// Label returns a short human-readable summary used in notifications.
func (b *Bike) Label() string {
	return fmt.Sprintf("%s %s (%d)", b.Brand, b.BikeModel, b.Year)
}

// Images returns the populated image URLs in slot order.
func (b *Bike) Images() []string {
	urls := make([]string, 0, 3)
	for _, u := range []string{b.ImageURL1, b.ImageURL2, b.ImageURL3} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
