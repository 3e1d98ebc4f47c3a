package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"meditrack/m/domain"
	"meditrack/m/internal/database"
)

// TimestampLayout is the layout sales.created_at is written with.
const TimestampLayout = "2006-01-02 15:04:05"

type SaleRepository struct {
	q sqlx.ExtContext
}

// Create inserts a sale header and sets its generated id.
func (r *SaleRepository) Create(ctx context.Context, s *domain.Sale) error {
	id, err := database.InsertID(ctx, r.q, `INSERT INTO sales (bill_no, customer_id, user_id, total_amount, tax_amount,
		discount_amount, grand_total, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.BillNo, s.CustomerID, s.UserID, s.TotalAmount, s.TaxAmount, s.DiscountAmount, s.GrandTotal, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale %s: %w", s.BillNo, err)
	}
	s.ID = id
	return nil
}

// AddItem inserts one sale line. Stock is adjusted separately.
func (r *SaleRepository) AddItem(ctx context.Context, item *domain.SaleItem) error {
	id, err := database.InsertID(ctx, r.q, `INSERT INTO sale_items (sale_id, inventory_id, quantity, unit_price, subtotal)
		VALUES (?, ?, ?, ?, ?)`,
		item.SaleID, item.InventoryID, item.Quantity, item.UnitPrice, item.Subtotal)
	if err != nil {
		return fmt.Errorf("insert item for sale %d: %w", item.SaleID, err)
	}
	item.ID = id
	return nil
}

// FindByID loads a sale together with its customer name and lines.
func (r *SaleRepository) FindByID(ctx context.Context, id int64) (*domain.SaleDetail, error) {
	var detail domain.SaleDetail
	err := sqlx.GetContext(ctx, r.q, &detail, r.q.Rebind(`SELECT s.id, s.bill_no, s.customer_id, s.user_id, s.total_amount,
		s.tax_amount, s.discount_amount, s.grand_total, s.created_at, COALESCE(c.name, '') AS customer_name
		FROM sales s LEFT JOIN customers c ON c.id = s.customer_id
		WHERE s.id = ?`), id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("sale %d", id))
	}

	detail.Items = []domain.SaleItemDetail{}
	err = sqlx.SelectContext(ctx, r.q, &detail.Items, r.q.Rebind(`SELECT si.id, si.sale_id, si.inventory_id, si.quantity,
		si.unit_price, si.subtotal, COALESCE(i.medicine_name, '') AS medicine_name
		FROM sale_items si LEFT JOIN inventory i ON i.id = si.inventory_id
		WHERE si.sale_id = ? ORDER BY si.id`), id)
	if err != nil {
		return nil, fmt.Errorf("load items for sale %d: %w", id, err)
	}
	return &detail, nil
}

// CountByBillNo counts sales recorded under billNo. Bill numbers are display
// ids and may repeat.
func (r *SaleRepository) CountByBillNo(ctx context.Context, billNo string) (int64, error) {
	var count int64
	if err := sqlx.GetContext(ctx, r.q, &count, r.q.Rebind(`SELECT COUNT(*) FROM sales WHERE bill_no = ?`), billNo); err != nil {
		return 0, fmt.Errorf("count sales for bill %s: %w", billNo, err)
	}
	return count, nil
}

// SummaryStats aggregates sales whose creation day lies in [start, end].
// Empty bounds are open.
func (r *SaleRepository) SummaryStats(ctx context.Context, start, end string) (domain.SalesSummary, error) {
	where, args := dateRange("created_at", start, end)
	var summary domain.SalesSummary
	err := sqlx.GetContext(ctx, r.q, &summary, r.q.Rebind(`SELECT COALESCE(SUM(grand_total), 0) AS revenue,
		COALESCE(SUM(tax_amount), 0) AS tax, COALESCE(SUM(discount_amount), 0) AS discount, COUNT(*) AS count
		FROM sales`+where), args...)
	if err != nil {
		return domain.SalesSummary{}, fmt.Errorf("summarise sales: %w", err)
	}
	summary.Revenue = summary.Revenue.Round(2)
	summary.Tax = summary.Tax.Round(2)
	summary.Discount = summary.Discount.Round(2)
	return summary, nil
}

// Report lists sales in [start, end], newest first, with customer and cashier names.
func (r *SaleRepository) Report(ctx context.Context, start, end string) ([]domain.SaleReportRow, error) {
	where, args := dateRange("s.created_at", start, end)
	rows := []domain.SaleReportRow{}
	err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(`SELECT s.id, s.bill_no, s.created_at, c.name AS customer_name,
		u.username AS cashier_name, s.total_amount, s.tax_amount, s.grand_total
		FROM sales s
		LEFT JOIN customers c ON c.id = s.customer_id
		LEFT JOIN users u ON u.id = s.user_id`+where+`
		ORDER BY s.created_at DESC, s.id DESC`), args...)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	return rows, nil
}

// TodayStats returns revenue and order count for the given day (YYYY-MM-DD).
func (r *SaleRepository) TodayStats(ctx context.Context, day string) (domain.TodayStats, error) {
	var stats domain.TodayStats
	err := sqlx.GetContext(ctx, r.q, &stats, r.q.Rebind(`SELECT COALESCE(SUM(grand_total), 0) AS revenue, COUNT(*) AS orders
		FROM sales WHERE DATE(created_at) = ?`), day)
	if err != nil {
		return domain.TodayStats{}, fmt.Errorf("today's stats: %w", err)
	}
	stats.Revenue = stats.Revenue.Round(2)
	return stats, nil
}

func dateRange(column, start, end string) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if start = strings.TrimSpace(start); start != "" {
		clauses = append(clauses, "DATE("+column+") >= ?")
		args = append(args, start)
	}
	if end = strings.TrimSpace(end); end != "" {
		clauses = append(clauses, "DATE("+column+") <= ?")
		args = append(args, end)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
