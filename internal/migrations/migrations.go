package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"meditrack/m/domain"
	"meditrack/m/internal/database"
	"meditrack/m/internal/logger"
)

type dialect struct {
	pk        string
	timestamp string
	boolean   string
	indexes   bool
}

var dialects = map[string]dialect{
	database.DriverSQLite: {
		pk:        "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestamp: "TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP",
		boolean:   "INTEGER NOT NULL DEFAULT 0",
		indexes:   true,
	},
	database.DriverPostgres: {
		pk:        "SERIAL PRIMARY KEY",
		timestamp: "TIMESTAMPTZ NOT NULL DEFAULT NOW()",
		boolean:   "BOOLEAN NOT NULL DEFAULT FALSE",
		indexes:   true,
	},
	// MySQL lacks CREATE INDEX IF NOT EXISTS, so it only gets the inline keys.
	database.DriverMySQL: {
		pk:        "INT AUTO_INCREMENT PRIMARY KEY",
		timestamp: "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
		boolean:   "BOOLEAN NOT NULL DEFAULT FALSE",
	},
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		username VARCHAR(50) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'cashier',
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		created_at {{timestamp}}
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		id {{pk}},
		medicine_name VARCHAR(255) NOT NULL,
		category VARCHAR(100) NOT NULL DEFAULT '',
		company VARCHAR(255) NOT NULL DEFAULT '',
		barcode VARCHAR(64) UNIQUE,
		batch_no VARCHAR(64) NOT NULL DEFAULT '',
		expiry_date DATE,
		stock_qty INTEGER NOT NULL DEFAULT 0,
		price NUMERIC(12,2) NOT NULL DEFAULT 0,
		reorder_level INTEGER NOT NULL DEFAULT 10,
		strength VARCHAR(100) NOT NULL DEFAULT '',
		form VARCHAR(100) NOT NULL DEFAULT '',
		indication VARCHAR(1000) NOT NULL DEFAULT '',
		side_effects VARCHAR(1000) NOT NULL DEFAULT '',
		prescription_required {{boolean}},
		age_restriction VARCHAR(100) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(32),
		address TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id {{pk}},
		bill_no VARCHAR(64) NOT NULL,
		customer_id INTEGER REFERENCES customers(id),
		user_id INTEGER REFERENCES users(id),
		total_amount NUMERIC(12,2) NOT NULL,
		tax_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		grand_total NUMERIC(12,2) NOT NULL,
		created_at {{timestamp}}
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id {{pk}},
		sale_id INTEGER NOT NULL REFERENCES sales(id),
		inventory_id INTEGER NOT NULL REFERENCES inventory(id),
		quantity INTEGER NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		subtotal NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id {{pk}},
		user_id INTEGER,
		action_type VARCHAR(50) NOT NULL,
		module_name VARCHAR(50) NOT NULL,
		description VARCHAR(500) NOT NULL DEFAULT '',
		ip_address VARCHAR(45) NOT NULL DEFAULT '127.0.0.1',
		created_at {{timestamp}}
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_inventory_name ON inventory(medicine_name)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id)`,
}

// Run creates the schema required by the point-of-sale backend.
func Run(ctx context.Context, db *sqlx.DB) error {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}
	replacer := strings.NewReplacer(
		"{{pk}}", d.pk,
		"{{timestamp}}", d.timestamp,
		"{{boolean}}", d.boolean,
	)

	schema := tables
	if d.indexes {
		schema = append(append([]string{}, tables...), indexes...)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, replacer.Replace(stmt)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// EnsureAdmin creates the default "admin" account when no user by that
// name exists yet.
func EnsureAdmin(ctx context.Context, db *sqlx.DB, password string) error {
	var count int
	if err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`), "admin"); err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO users (username, password_hash, role, full_name) VALUES (?, ?, ?, ?)`),
		"admin", string(hashed), domain.RoleAdmin, "Administrator"); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	logger.Logger.Info().Msg("default admin user created")
	return nil
}
