package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseStatus constants
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusAccepted  = "accepted"
	PurchaseStatusRejected  = "rejected"
	PurchaseStatusCancelled = "cancelled"
)

// Purchase represents a buyer's proposal to buy a bike listed for sale.
// Price is snapshotted from the bike's sale price at request creation time.
type Purchase struct {
	gorm.Model
	BikeID   uint            `json:"bikeId" gorm:"not null;index"`
	BuyerID  uint            `json:"buyerId" gorm:"not null;index"`
	SellerID uint            `json:"sellerId" gorm:"not null;index"`
	Price    decimal.Decimal `json:"price" gorm:"type:numeric;not null"`
	Status   string          `json:"status" gorm:"not null;default:'pending'"` // pending, accepted, rejected, cancelled
	Message  string          `json:"message,omitempty" gorm:"type:text"`

	// No accept->completed transition is modeled; the column exists for a
	// future sale-finalization flow and stays NULL.
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Bike   *Bike `json:"bike,omitempty" gorm:"foreignKey:BikeID"`
	Buyer  *User `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller *User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

// TableName specifies the table name
func (Purchase) TableName() string {
	return "purchases"
}
