package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"meditrack/m/domain"
	"meditrack/m/internal/database"
	"meditrack/m/internal/logger"
	"meditrack/m/internal/metrics"
	"meditrack/m/internal/store"
)

var tracer = otel.Tracer("billing")

// Checkout is the state of the billing screen: the cart plus the customer
// and discount fields typed by the cashier.
type Checkout struct {
	Cart            *Cart
	CustomerName    string
	Phone           string
	Address         string
	DiscountPercent string
	DiscountFixed   string
	// BillNo overrides the generated bill number when set.
	BillNo string
}

// NewCheckout returns a checkout with an empty cart.
func NewCheckout() *Checkout {
	return &Checkout{Cart: NewCart()}
}

// Reset empties the cart and the customer and discount fields.
func (c *Checkout) Reset() {
	c.Cart.Clear()
	c.CustomerName = ""
	c.Phone = ""
	c.Address = ""
	c.DiscountPercent = ""
	c.DiscountFixed = ""
	c.BillNo = ""
}

// Service completes sales against the database.
type Service struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
	gstRate decimal.Decimal
	now     func() time.Time
}

// NewService builds a Service charging gstPercent percent tax. m may be nil.
func NewService(db *sqlx.DB, m *metrics.Metrics, gstPercent decimal.Decimal) *Service {
	return &Service{
		db:      db,
		metrics: m,
		gstRate: gstPercent.Div(hundred),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for bill numbers and timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GSTRate is the tax rate as a fraction.
func (s *Service) GSTRate() decimal.Decimal { return s.gstRate }

// Quote prices the checkout without touching the database.
func (s *Service) Quote(co *Checkout) (Totals, error) {
	return ComputeTotals(co.Cart, s.gstRate, co.DiscountPercent, co.DiscountFixed)
}

// Complete records the checkout as a sale. The customer, header, lines and
// stock decrements are written in one transaction; on any failure nothing is
// kept and the checkout is left untouched. On success the audit entry is
// appended, the checkout is reset and the bill preview returned.
func (s *Service) Complete(ctx context.Context, co *Checkout, cashierID int64) (*domain.BillPreview, error) {
	ctx, span := tracer.Start(ctx, "billing.Complete",
		trace.WithAttributes(
			attribute.Int("cart.lines", co.Cart.Len()),
			attribute.Int64("cashier.id", cashierID),
		),
	)
	defer span.End()

	fail := func(reason string, err error) (*domain.BillPreview, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveFailure(reason)
		return nil, err
	}

	if co.Cart.IsEmpty() {
		return fail("validation", domain.Invalid("cart", "is empty"))
	}
	totals, err := s.Quote(co)
	if err != nil {
		return fail("validation", err)
	}

	logger.Debug(ctx).
		Int("lines", co.Cart.Len()).
		Str("subtotal", totals.Subtotal.StringFixed(2)).
		Msg("completing sale")

	now := s.now()
	billNo := strings.TrimSpace(co.BillNo)
	if billNo == "" {
		billNo = "POS-" + now.Format("150405")
	}
	customerName := strings.TrimSpace(co.CustomerName)
	if customerName == "" {
		customerName = domain.WalkInCustomerName
	}
	span.SetAttributes(attribute.String("sale.bill_no", billNo))

	lines := co.Cart.Lines()
	sale := domain.Sale{
		BillNo:         billNo,
		TotalAmount:    totals.Subtotal,
		TaxAmount:      totals.Tax,
		DiscountAmount: totals.Discount,
		GrandTotal:     totals.GrandTotal,
		CreatedAt:      now.Format(store.TimestampLayout),
	}
	if cashierID > 0 {
		sale.UserID = &cashierID
	}

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		st := store.New(tx)

		customerID, err := st.Customers.FindOrCreate(ctx, customerName, co.Phone, co.Address)
		if err != nil {
			return err
		}
		sale.CustomerID = &customerID

		index, err := st.Medicines.NameIndex(ctx)
		if err != nil {
			return err
		}
		ids := make([]int64, len(lines))
		for i, line := range lines {
			med, ok := index[line.Name]
			if !ok {
				return &domain.LookupMissError{Name: line.Name}
			}
			if !med.Price.Equal(line.UnitPrice) {
				return domain.Invalid(line.Name+" unit_price",
					fmt.Sprintf("%s does not match the inventory price %s", line.UnitPrice.String(), med.Price.StringFixed(2)))
			}
			ids[i] = med.ID
		}

		if err := st.Sales.Create(ctx, &sale); err != nil {
			return err
		}
		for i, line := range lines {
			item := domain.SaleItem{
				SaleID:      sale.ID,
				InventoryID: ids[i],
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Subtotal:    line.Subtotal(),
			}
			if err := st.Sales.AddItem(ctx, &item); err != nil {
				return err
			}
			if err := st.Medicines.UpdateStock(ctx, ids[i], -line.Quantity); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return &domain.LookupMissError{Name: line.Name}
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		reason := "transaction"
		switch {
		case errors.Is(err, domain.ErrLookupMiss):
			reason = "lookup_miss"
		case errors.Is(err, domain.ErrValidation):
			reason = "validation"
		}
		logger.Error(ctx).Err(err).Str("bill_no", billNo).Msg("sale rolled back")
		return fail(reason, &domain.TransactionError{BillNo: billNo, Err: err})
	}

	entry := domain.AuditLogEntry{
		ActionType:  domain.ActionSaleComplete,
		ModuleName:  domain.ModuleBilling,
		Description: fmt.Sprintf("Processed Bill %s", billNo),
	}
	if cashierID > 0 {
		entry.UserID = &cashierID
	}
	if err := store.New(s.db).AuditLogs.Log(ctx, &entry); err != nil {
		logger.Warn(ctx).Err(err).Str("bill_no", billNo).Msg("audit log not written")
	}

	s.metrics.ObserveSale(totals.GrandTotal)
	logger.Info(ctx).
		Str("bill_no", billNo).
		Int64("sale_id", sale.ID).
		Str("grand_total", totals.GrandTotal.StringFixed(2)).
		Msg("sale completed")

	preview := &domain.BillPreview{
		SaleID:       sale.ID,
		BillNo:       billNo,
		Date:         now.Format("2006-01-02 15:04"),
		CustomerName: customerName,
		Items:        co.Cart.BillLines(),
		Subtotal:     totals.Subtotal,
		Discount:     totals.Discount,
		Tax:          totals.Tax,
		GrandTotal:   totals.GrandTotal,
	}
	co.Reset()
	return preview, nil
}
