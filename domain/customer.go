package domain

// WalkInCustomerName is recorded when the cashier leaves the name blank.
const WalkInCustomerName = "Walk-in Customer"

type Customer struct {
	ID      int64   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`
}
