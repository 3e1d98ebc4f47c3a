package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"meditrack/m/domain"
	"meditrack/m/internal/database"
)

const medicineColumns = `id, medicine_name, category, company, barcode, batch_no, expiry_date, stock_qty, price,
	reorder_level, strength, form, indication, side_effects, prescription_required, age_restriction`

type MedicineRepository struct {
	q sqlx.ExtContext
}

// Create validates and inserts m, filling in its generated id.
func (r *MedicineRepository) Create(ctx context.Context, m *domain.Medicine) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return domain.Invalid("medicine_name", "is required")
	}
	if m.Price.IsNegative() {
		return domain.Invalid("price", "cannot be negative")
	}
	if m.StockQty < 0 {
		return domain.Invalid("stock_qty", "cannot be negative")
	}
	if m.Barcode != nil {
		m.Barcode = nullIfEmpty(strings.TrimSpace(*m.Barcode))
	}
	if m.ExpiryDate != nil {
		raw := strings.TrimSpace(*m.ExpiryDate)
		if raw != "" {
			if _, err := time.Parse("2006-01-02", raw); err != nil {
				return domain.Invalid("expiry_date", "must be in YYYY-MM-DD format")
			}
		}
		m.ExpiryDate = nullIfEmpty(raw)
	}

	id, err := database.InsertID(ctx, r.q, `INSERT INTO inventory (medicine_name, category, company, barcode, batch_no, expiry_date,
		stock_qty, price, reorder_level, strength, form, indication, side_effects, prescription_required, age_restriction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Category, m.Company, m.Barcode, m.BatchNo, m.ExpiryDate,
		m.StockQty, m.Price, m.ReorderLevel, m.Strength, m.Form, m.Indication, m.SideEffects,
		m.PrescriptionRequired, m.AgeRestriction)
	if err != nil {
		return fmt.Errorf("insert medicine %q: %w", m.Name, err)
	}
	m.ID = id
	return nil
}

// GetAll lists the whole inventory ordered by name.
func (r *MedicineRepository) GetAll(ctx context.Context) ([]domain.Medicine, error) {
	return r.list(ctx, `SELECT `+medicineColumns+` FROM inventory ORDER BY medicine_name, id`)
}

func (r *MedicineRepository) FindByID(ctx context.Context, id int64) (*domain.Medicine, error) {
	return r.one(ctx, fmt.Sprintf("medicine %d", id), `SELECT `+medicineColumns+` FROM inventory WHERE id = ?`, id)
}

func (r *MedicineRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Medicine, error) {
	return r.one(ctx, fmt.Sprintf("barcode %s", barcode), `SELECT `+medicineColumns+` FROM inventory WHERE barcode = ?`, barcode)
}

// Search matches term against name, company and category, case-insensitively.
func (r *MedicineRepository) Search(ctx context.Context, term string) ([]domain.Medicine, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.GetAll(ctx)
	}
	like := "%" + strings.ToLower(term) + "%"
	return r.list(ctx, `SELECT `+medicineColumns+` FROM inventory
		WHERE LOWER(medicine_name) LIKE ? OR LOWER(company) LIKE ? OR LOWER(category) LIKE ? OR barcode = ?
		ORDER BY medicine_name, id LIMIT 50`, like, like, like, term)
}

// NameIndex maps each medicine name to its inventory row. When two rows
// share a name the most recently added one wins.
func (r *MedicineRepository) NameIndex(ctx context.Context) (map[string]domain.Medicine, error) {
	all, err := r.list(ctx, `SELECT `+medicineColumns+` FROM inventory ORDER BY id`)
	if err != nil {
		return nil, err
	}
	index := make(map[string]domain.Medicine, len(all))
	for _, m := range all {
		index[m.Name] = m
	}
	return index, nil
}

// UpdateStock applies a relative change to stock_qty in a single statement.
func (r *MedicineRepository) UpdateStock(ctx context.Context, id, delta int64) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE inventory SET stock_qty = stock_qty + ? WHERE id = ?`), delta, id)
	if err != nil {
		return fmt.Errorf("update stock for medicine %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("medicine %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SetStock overwrites stock_qty after a physical count.
func (r *MedicineRepository) SetStock(ctx context.Context, id, qty int64) error {
	if qty < 0 {
		return domain.Invalid("stock_qty", "cannot be negative")
	}
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE inventory SET stock_qty = ? WHERE id = ?`), qty, id)
	if err != nil {
		return fmt.Errorf("set stock for medicine %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("medicine %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// LowStockItems lists items at or below their reorder level, lowest stock first.
func (r *MedicineRepository) LowStockItems(ctx context.Context) ([]domain.Medicine, error) {
	return r.list(ctx, `SELECT `+medicineColumns+` FROM inventory WHERE stock_qty <= reorder_level ORDER BY stock_qty, medicine_name`)
}

func (r *MedicineRepository) LowStockCount(ctx context.Context) (int64, error) {
	var count int64
	if err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM inventory WHERE stock_qty <= reorder_level`); err != nil {
		return 0, fmt.Errorf("count low stock: %w", err)
	}
	return count, nil
}

// Expired lists items whose expiry date is before today.
func (r *MedicineRepository) Expired(ctx context.Context, today time.Time) ([]domain.Medicine, error) {
	return r.list(ctx, `SELECT `+medicineColumns+` FROM inventory
		WHERE expiry_date IS NOT NULL AND expiry_date < ? ORDER BY expiry_date, medicine_name`,
		domain.FormatDate(today))
}

// ExpiringWithin lists items expiring on or before today+days, expired ones
// included, soonest first.
func (r *MedicineRepository) ExpiringWithin(ctx context.Context, today time.Time, days int) ([]domain.Medicine, error) {
	cutoff := today.AddDate(0, 0, days)
	return r.list(ctx, `SELECT `+medicineColumns+` FROM inventory
		WHERE expiry_date IS NOT NULL AND expiry_date <= ? ORDER BY expiry_date, medicine_name`,
		domain.FormatDate(cutoff))
}

func (r *MedicineRepository) one(ctx context.Context, what, query string, args ...any) (*domain.Medicine, error) {
	var m domain.Medicine
	if err := sqlx.GetContext(ctx, r.q, &m, r.q.Rebind(query), args...); err != nil {
		return nil, notFound(err, what)
	}
	trimExpiry(&m)
	return &m, nil
}

func (r *MedicineRepository) list(ctx context.Context, query string, args ...any) ([]domain.Medicine, error) {
	meds := []domain.Medicine{}
	if err := sqlx.SelectContext(ctx, r.q, &meds, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	for i := range meds {
		trimExpiry(&meds[i])
	}
	return meds, nil
}

// trimExpiry drops the time part some drivers attach to DATE columns.
func trimExpiry(m *domain.Medicine) {
	if m.ExpiryDate != nil && len(*m.ExpiryDate) > 10 {
		d := (*m.ExpiryDate)[:10]
		m.ExpiryDate = &d
	}
}
