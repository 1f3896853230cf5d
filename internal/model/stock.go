package model

import (
	"time"

	"profitpath-api/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReferenceType string

const (
	RefPurchase   ReferenceType = "purchase"
	RefInvoice    ReferenceType = "invoice"
	RefAdjustment ReferenceType = "adjustment"
)

// StockTransaction is one append-only row of a product's stock ledger.
// Rows of one (product, financial year) partition replay in
// (transaction_date, sequence) order.
type StockTransaction struct {
	BaseModel
	ProductID       uuid.UUID            `gorm:"type:uuid;not null;index:idx_stock_partition,priority:1" json:"product_id"`
	Product         *Product             `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	FinancialYear   ledger.FinancialYear `gorm:"type:varchar(9);not null;index:idx_stock_partition,priority:2" json:"financial_year"`
	TransactionDate time.Time            `gorm:"type:date;not null;index:idx_stock_partition,priority:3" json:"transaction_date"`
	Sequence        int64                `gorm:"not null;index:idx_stock_partition,priority:4" json:"sequence"`

	EntryType ledger.EntryType `gorm:"type:varchar(20);not null" json:"entry_type"`
	Direction ledger.Direction `gorm:"type:varchar(10)" json:"direction,omitempty"`
	Quantity  decimal.Decimal  `gorm:"type:numeric(20,4);not null" json:"quantity"`

	UnitPrice  decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"unit_price"`
	TotalValue decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"total_value"`

	ReferenceType   ReferenceType `gorm:"type:varchar(20)" json:"reference_type"`
	ReferenceID     *uuid.UUID    `gorm:"type:uuid" json:"reference_id,omitempty"`
	ReferenceNumber string        `gorm:"type:varchar(100)" json:"reference_number,omitempty"`
	Notes           string        `gorm:"type:text" json:"notes,omitempty"`

	RunningBalance decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"running_balance"`

	CreatedByUserID *uuid.UUID `gorm:"type:uuid" json:"created_by_user_id,omitempty"`
	CreatedByUser   *User      `gorm:"foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`
}

// Entry projects the row onto the accumulator's input.
func (t *StockTransaction) Entry() ledger.Entry {
	return ledger.Entry{
		EntryType:      t.EntryType,
		Direction:      t.Direction,
		Quantity:       t.Quantity,
		TotalValue:     t.TotalValue,
		RunningBalance: t.RunningBalance,
	}
}

// StockOpening pins the opening balance of one partition. Closed rows are
// written by year-end closing and freeze the previous year.
type StockOpening struct {
	BaseModel
	ProductID     uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_opening_partition,priority:1" json:"product_id"`
	FinancialYear ledger.FinancialYear `gorm:"type:varchar(9);not null;uniqueIndex:idx_opening_partition,priority:2" json:"financial_year"`
	Quantity      decimal.Decimal      `gorm:"type:numeric(20,4);not null;default:0" json:"quantity"`
	Value         decimal.Decimal      `gorm:"type:numeric(20,4);not null;default:0" json:"value"`
	Closed        bool                 `gorm:"default:false" json:"closed"`
}

func (o *StockOpening) Opening() ledger.Opening {
	return ledger.Opening{Quantity: o.Quantity, Value: o.Value}
}
