package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meditrack/m/domain"
	"meditrack/m/internal/database"
)

type AuditLogRepository struct {
	q sqlx.ExtContext
}

// Log appends an entry. A blank IP address is stored as the local default.
func (r *AuditLogRepository) Log(ctx context.Context, entry *domain.AuditLogEntry) error {
	if entry.IPAddress == "" {
		entry.IPAddress = domain.DefaultIPAddress
	}
	id, err := database.InsertID(ctx, r.q, `INSERT INTO audit_logs (user_id, action_type, module_name, description, ip_address)
		VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.ActionType, entry.ModuleName, entry.Description, entry.IPAddress)
	if err != nil {
		return fmt.Errorf("insert audit log %s: %w", entry.ActionType, err)
	}
	entry.ID = id
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *AuditLogRepository) Recent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	entries := []domain.AuditLogEntry{}
	err := sqlx.SelectContext(ctx, r.q, &entries, r.q.Rebind(`SELECT id, user_id, action_type, module_name, description,
		ip_address, created_at FROM audit_logs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
