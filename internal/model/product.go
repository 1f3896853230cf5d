package model

import (
	"profitpath-api/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	SKU     string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Name    string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	HSNCode string          `gorm:"type:varchar(16)" json:"hsn_code"`
	Unit    string          `gorm:"type:varchar(20)" json:"unit"`
	Price   decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"price"`

	// Stock is the closing balance of StockYear, kept in step with the ledger.
	Stock     decimal.Decimal      `gorm:"type:numeric(20,4);default:0" json:"stock"`
	StockYear ledger.FinancialYear `gorm:"type:varchar(9)" json:"stock_year,omitempty"`

	// User tracking
	CreatedByUserID *uuid.UUID `gorm:"type:uuid" json:"created_by_user_id,omitempty"`
	UpdatedByUserID *uuid.UUID `gorm:"type:uuid" json:"updated_by_user_id,omitempty"`
	CreatedByUser   *User      `gorm:"foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`
	UpdatedByUser   *User      `gorm:"foreignKey:UpdatedByUserID;references:ID" json:"updated_by_user,omitempty"`

	Transactions []StockTransaction `json:"transactions,omitempty"`
}
