package domain

import "github.com/shopspring/decimal"

// Medicine is one stocked line of the outlet's inventory table.
type Medicine struct {
	ID                   int64           `db:"id" json:"id"`
	Name                 string          `db:"medicine_name" json:"medicine_name"`
	Category             string          `db:"category" json:"category"`
	Company              string          `db:"company" json:"company"`
	Barcode              *string         `db:"barcode" json:"barcode,omitempty"`
	BatchNo              string          `db:"batch_no" json:"batch_no"`
	ExpiryDate           *string         `db:"expiry_date" json:"expiry_date,omitempty"`
	StockQty             int64           `db:"stock_qty" json:"stock_qty"`
	Price                decimal.Decimal `db:"price" json:"price"`
	ReorderLevel         int64           `db:"reorder_level" json:"reorder_level"`
	Strength             string          `db:"strength" json:"strength"`
	Form                 string          `db:"form" json:"form"`
	Indication           string          `db:"indication" json:"indication"`
	SideEffects          string          `db:"side_effects" json:"side_effects"`
	PrescriptionRequired bool            `db:"prescription_required" json:"prescription_required"`
	AgeRestriction       string          `db:"age_restriction" json:"age_restriction"`
}
