package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LotStatus string

const (
	LotStatusActive    LotStatus = "active"
	LotStatusCompleted LotStatus = "completed"
	LotStatusCancelled LotStatus = "cancelled"
)

// Lot is one farmer delivery. LotPrice is per quintal; TotalWeight is written
// once, when the lot is completed.
type Lot struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	TenantID     uuid.UUID        `gorm:"type:uuid;not null" json:"tenant_id"`
	LotNumber    string           `json:"lot_number"`
	FarmerID     uint             `json:"farmer_id"`
	BuyerID      *uint            `json:"buyer_id"`
	NumberOfBags int              `json:"number_of_bags"`
	Variety      string           `json:"variety"`
	Grade        string           `json:"grade"`
	LotPrice     *decimal.Decimal `json:"lot_price"`
	Status       LotStatus        `json:"status"`
	VehicleRent  decimal.Decimal  `json:"vehicle_rent"`
	Advance      decimal.Decimal  `json:"advance"`
	UnloadHamali decimal.Decimal  `json:"unload_hamali"`
	TotalWeight  *decimal.Decimal `json:"total_weight"`
	CompletedAt  *time.Time       `json:"completed_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	Bags   []Bag   `gorm:"-" json:"bags,omitempty"`
	Farmer *Farmer `gorm:"-" json:"farmer,omitempty"`
	Buyer  *Buyer  `gorm:"-" json:"buyer,omitempty"`
}

type Bag struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	TenantID  uuid.UUID        `gorm:"type:uuid;not null" json:"tenant_id"`
	LotID     uint             `json:"lot_id"`
	BagNumber int              `json:"bag_number"`
	Weight    *decimal.Decimal `json:"weight"`
	Grade     string           `json:"grade"`
	Notes     string           `json:"notes"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
