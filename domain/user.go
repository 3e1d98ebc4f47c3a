package domain

// Roles a staff account can hold.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
	FullName     string `json:"full_name" db:"full_name"`
	CreatedAt    string `json:"created_at,omitempty" db:"created_at"`
}

// ValidRole reports whether role is one the outlet recognises.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleCashier
}
