package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"meditrack/m/domain"
	"meditrack/m/internal/database"
)

const userColumns = `id, username, password_hash, role, full_name, created_at`

type UserRepository struct {
	q sqlx.ExtContext
}

// Create hashes password and stores a new staff account.
func (r *UserRepository) Create(ctx context.Context, username, password, fullName, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.Invalid("username", "is required")
	}
	if len(password) < 4 {
		return nil, domain.Invalid("password", "must be at least 4 characters")
	}
	if role == "" {
		role = domain.RoleCashier
	}
	if !domain.ValidRole(role) {
		return nil, domain.Invalid("role", "must be admin or cashier")
	}

	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, r.q.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`), username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, domain.Invalid("username", "already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := database.InsertID(ctx, r.q, `INSERT INTO users (username, password_hash, role, full_name) VALUES (?, ?, ?, ?)`,
		username, string(hashed), role, strings.TrimSpace(fullName))
	if err != nil {
		return nil, fmt.Errorf("insert user %q: %w", username, err)
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u, r.q.Rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	if err != nil {
		return nil, notFound(err, "user "+username)
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u, r.q.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", id))
	}
	return &u, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	if err := sqlx.SelectContext(ctx, r.q, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Authenticate returns the user when password matches the stored hash.
// Unknown usernames and wrong passwords yield the same error.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := r.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}
