package models

import (
	"time"

	"github.com/google/uuid"
)

// Farmer lives in the tenant schema; mobile is unique per tenant only.
type Farmer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null" json:"tenant_id"`
	Name          string    `json:"name"`
	Mobile        string    `json:"mobile"`
	Place         string    `json:"place"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	IFSCCode      string    `gorm:"column:ifsc_code" json:"ifsc_code"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Buyer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null" json:"tenant_id"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Address   string    `json:"address"`
	GSTIN     string    `gorm:"column:gstin" json:"gstin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
