package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"meditrack/m/domain"
	"meditrack/m/internal/database"
)

type CustomerRepository struct {
	q sqlx.ExtContext
}

// FindOrCreate resolves the customer for a sale. A non-empty phone is the
// identity key: an existing customer with that phone is reused and gets the
// address filled in when it had none. Without a phone a new row is always
// inserted. A blank name is stored as the walk-in customer.
func (r *CustomerRepository) FindOrCreate(ctx context.Context, name, phone, address string) (int64, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	address = strings.TrimSpace(address)
	if name == "" {
		name = domain.WalkInCustomerName
	}

	if phone != "" {
		existing, err := r.FindByPhone(ctx, phone)
		switch {
		case err == nil:
			if address != "" && (existing.Address == nil || *existing.Address == "") {
				if _, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE customers SET address = ? WHERE id = ?`), address, existing.ID); err != nil {
					return 0, fmt.Errorf("update customer address: %w", err)
				}
			}
			return existing.ID, nil
		case !errors.Is(err, domain.ErrNotFound):
			return 0, err
		}
	}

	id, err := database.InsertID(ctx, r.q, `INSERT INTO customers (name, phone, address) VALUES (?, ?, ?)`,
		name, nullIfEmpty(phone), nullIfEmpty(address))
	if err != nil {
		return 0, fmt.Errorf("insert customer %q: %w", name, err)
	}
	return id, nil
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var c domain.Customer
	err := sqlx.GetContext(ctx, r.q, &c, r.q.Rebind(`SELECT id, name, phone, address FROM customers WHERE phone = ? ORDER BY id LIMIT 1`), phone)
	if err != nil {
		return nil, notFound(err, "customer with phone "+phone)
	}
	return &c, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := sqlx.GetContext(ctx, r.q, &c, r.q.Rebind(`SELECT id, name, phone, address FROM customers WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("customer %d", id))
	}
	return &c, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if err := sqlx.SelectContext(ctx, r.q, &customers, `SELECT id, name, phone, address FROM customers ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}
