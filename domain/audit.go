package domain

// DefaultIPAddress is stored for every entry; the client address is not captured.
const DefaultIPAddress = "127.0.0.1"

// Audit action types and modules.
const (
	ActionSaleComplete = "SALE_COMPLETE"
	ActionLogin        = "LOGIN"
	ActionUserCreate   = "USER_CREATE"
	ActionMedicineAdd  = "MEDICINE_ADD"
	ActionStockUpdate  = "STOCK_UPDATE"

	ModuleBilling   = "BILLING"
	ModuleAuth      = "AUTH"
	ModuleUsers     = "USERS"
	ModuleInventory = "INVENTORY"
)

type AuditLogEntry struct {
	ID          int64  `db:"id" json:"id"`
	UserID      *int64 `db:"user_id" json:"user_id,omitempty"`
	ActionType  string `db:"action_type" json:"action_type"`
	ModuleName  string `db:"module_name" json:"module_name"`
	Description string `db:"description" json:"description"`
	IPAddress   string `db:"ip_address" json:"ip_address"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}
