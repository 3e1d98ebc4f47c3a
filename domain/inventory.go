package domain

import "time"

const dateLayout = "2006-01-02"

// IsLowStock reports whether the item has fallen to or below its reorder level.
func (m Medicine) IsLowStock() bool {
	return m.StockQty <= m.ReorderLevel
}

// Expiry parses the stored expiry date. Drivers hand dates back either as
// plain YYYY-MM-DD or as a full timestamp, so only the date prefix is read.
func (m Medicine) Expiry() (time.Time, bool) {
	if m.ExpiryDate == nil || len(*m.ExpiryDate) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, (*m.ExpiryDate)[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsExpired reports whether the expiry date is strictly before today's date.
func (m Medicine) IsExpired(today time.Time) bool {
	exp, ok := m.Expiry()
	if !ok {
		return false
	}
	return exp.Before(truncateDay(today))
}

// ExpiresWithin reports whether the item expires on or before today+days.
// Expired items also satisfy it; callers that need "soon but not yet" check
// IsExpired separately.
func (m Medicine) ExpiresWithin(today time.Time, days int) bool {
	exp, ok := m.Expiry()
	if !ok {
		return false
	}
	return !exp.After(truncateDay(today).AddDate(0, 0, days))
}

// StockAlert is an inventory row with its independent alert flags.
type StockAlert struct {
	Medicine
	LowStock     bool `json:"low_stock"`
	Expired      bool `json:"expired"`
	ExpiringSoon bool `json:"expiring_soon"`
}

// NewStockAlert evaluates every predicate for m as of today.
func NewStockAlert(m Medicine, today time.Time, warningDays int) StockAlert {
	expired := m.IsExpired(today)
	return StockAlert{
		Medicine:     m,
		LowStock:     m.IsLowStock(),
		Expired:      expired,
		ExpiringSoon: !expired && m.ExpiresWithin(today, warningDays),
	}
}

// FormatDate renders t the way date columns are stored and compared.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
