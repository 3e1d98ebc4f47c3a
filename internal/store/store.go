// Package store maps typed repository calls onto parameterised SQL.
//
// Every repository is bound to a sqlx.ExtContext, so the same code runs
// against the pool or inside a transaction:
//
//	err := database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
//		s := store.New(tx)
//		...
//	})
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meditrack/m/domain"
)

// Store bundles the per-entity repositories sharing one querier.
type Store struct {
	Users     *UserRepository
	Medicines *MedicineRepository
	Customers *CustomerRepository
	Sales     *SaleRepository
	AuditLogs *AuditLogRepository
}

// New binds every repository to q.
func New(q sqlx.ExtContext) *Store {
	return &Store{
		Users:     &UserRepository{q: q},
		Medicines: &MedicineRepository{q: q},
		Customers: &CustomerRepository{q: q},
		Sales:     &SaleRepository{q: q},
		AuditLogs: &AuditLogRepository{q: q},
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}

func nullIfEmpty(val string) *string {
	if val == "" {
		return nil
	}
	return &val
}
