package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RentalRequestStatus constants
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// RentalStatus constants
const (
	RentalStatusPending   = "pending"
	RentalStatusActive    = "active"
	RentalStatusCompleted = "completed"
	RentalStatusCancelled = "cancelled"
)

// RentalRequest represents a renter's proposal to rent a bike for a date range
type RentalRequest struct {
	gorm.Model
	BikeID    uint      `json:"bikeId" gorm:"not null;index"`
	RenterID  uint      `json:"renterId" gorm:"not null;index"`
	StartDate time.Time `json:"startDate" gorm:"not null"`
	EndDate   time.Time `json:"endDate" gorm:"not null"`
	Status    string    `json:"status" gorm:"not null;default:'pending'"` // pending, approved, rejected
	Message   string    `json:"message,omitempty" gorm:"type:text"`
	Bike      *Bike     `json:"bike,omitempty" gorm:"foreignKey:BikeID"`
	Renter    *User     `json:"renter,omitempty" gorm:"foreignKey:RenterID"`
}

// TableName specifies the table name
func (RentalRequest) TableName() string {
	return "rental_requests"
}

// Rental represents a confirmed or historical rental agreement.
// Owner and renter are denormalized so history survives bike mutation.
type Rental struct {
	gorm.Model
	BikeID     uint            `json:"bikeId" gorm:"not null;index"`
	RenterID   uint            `json:"renterId" gorm:"not null;index"`
	OwnerID    uint            `json:"ownerId" gorm:"not null;index"`
	StartDate  time.Time       `json:"startDate" gorm:"not null"`
	EndDate    time.Time       `json:"endDate" gorm:"not null"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:numeric;not null"`
	Status     string          `json:"status" gorm:"not null;default:'pending'"` // pending, active, completed, cancelled
	Bike       *Bike           `json:"bike,omitempty" gorm:"foreignKey:BikeID"`
	Renter     *User           `json:"renter,omitempty" gorm:"foreignKey:RenterID"`
	Owner      *User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// TableName specifies the table name
func (Rental) TableName() string {
	return "rentals"
}
