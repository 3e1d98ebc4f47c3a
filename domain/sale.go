package domain

import "github.com/shopspring/decimal"

type Sale struct {
	ID             int64           `db:"id" json:"id"`
	BillNo         string          `db:"bill_no" json:"bill_no"`
	CustomerID     *int64          `db:"customer_id" json:"customer_id,omitempty"`
	UserID         *int64          `db:"user_id" json:"user_id,omitempty"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	GrandTotal     decimal.Decimal `db:"grand_total" json:"grand_total"`
	CreatedAt      string          `db:"created_at" json:"created_at"`
}

type SaleItem struct {
	ID          int64           `db:"id" json:"id"`
	SaleID      int64           `db:"sale_id" json:"sale_id"`
	InventoryID int64           `db:"inventory_id" json:"inventory_id"`
	Quantity    int64           `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// SaleItemDetail is a sale line joined with the medicine name it sold.
type SaleItemDetail struct {
	SaleItem
	MedicineName string `db:"medicine_name" json:"medicine_name"`
}

type SaleDetail struct {
	Sale
	CustomerName string           `db:"customer_name" json:"customer_name"`
	Items        []SaleItemDetail `json:"items"`
}

// SalesSummary aggregates sales created within a date range.
type SalesSummary struct {
	Revenue  decimal.Decimal `db:"revenue" json:"revenue"`
	Tax      decimal.Decimal `db:"tax" json:"tax"`
	Discount decimal.Decimal `db:"discount" json:"discount"`
	Count    int64           `db:"count" json:"count"`
}

// SaleReportRow is one row of the financial overview table.
type SaleReportRow struct {
	ID           int64           `db:"id" json:"id"`
	BillNo       string          `db:"bill_no" json:"bill_no"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
	CustomerName *string         `db:"customer_name" json:"customer_name"`
	CashierName  *string         `db:"cashier_name" json:"cashier_name"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	TaxAmount    decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	GrandTotal   decimal.Decimal `db:"grand_total" json:"grand_total"`
}

type TodayStats struct {
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Orders  int64           `db:"orders" json:"orders"`
}

// BillLine is one printed row of a bill.
type BillLine struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// BillPreview is the plain data a bill renderer consumes after a sale.
type BillPreview struct {
	SaleID       int64           `json:"sale_id"`
	BillNo       string          `json:"bill_no"`
	Date         string          `json:"date"`
	CustomerName string          `json:"customer_name"`
	Items        []BillLine      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Tax          decimal.Decimal `json:"gst"`
	GrandTotal   decimal.Decimal `json:"total"`
}
