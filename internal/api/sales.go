package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"meditrack/m/domain"
	"meditrack/m/internal/billing"
)

type cartItemRequest struct {
	Name      string          `json:"name"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

type checkoutRequest struct {
	Items           []cartItemRequest `json:"items"`
	CustomerName    string            `json:"customer_name"`
	Phone           string            `json:"phone"`
	Address         string            `json:"address"`
	DiscountPercent string            `json:"discount_percent"`
	DiscountFixed   string            `json:"discount_fixed"`
	BillNo          string            `json:"bill_no"`
}

// checkout rebuilds the cashier's cart from the request body. Lines are
// priced from inventory; a unit_price sent by the client must agree with it.
// Names missing from inventory keep the client's price so the sale itself
// reports the lookup miss.
func (h *Handler) checkout(ctx context.Context, req checkoutRequest) (*billing.Checkout, error) {
	index, err := h.store.Medicines.NameIndex(ctx)
	if err != nil {
		return nil, err
	}
	co := billing.NewCheckout()
	for i, item := range req.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].name", i), "is required")
		}
		if item.Quantity <= 0 || item.Quantity > billing.MaxLineQuantity {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].quantity", i),
				fmt.Sprintf("must be between 1 and %d", billing.MaxLineQuantity))
		}
		med, known := index[name]
		var unitPrice decimal.Decimal
		switch {
		case item.UnitPrice == nil && !known:
			return nil, &domain.LookupMissError{Name: name}
		case item.UnitPrice == nil:
			unitPrice = med.Price
		case known && !item.UnitPrice.Equal(med.Price):
			return nil, domain.Invalid(fmt.Sprintf("items[%d].unit_price", i),
				fmt.Sprintf("does not match the inventory price %s", med.Price.StringFixed(2)))
		default:
			unitPrice = *item.UnitPrice
		}
		if unitPrice.IsNegative() {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].unit_price", i), "cannot be negative")
		}
		if err := co.Cart.AddQuantity(name, unitPrice, item.Quantity); err != nil {
			return nil, err
		}
	}
	co.CustomerName = req.CustomerName
	co.Phone = req.Phone
	co.Address = req.Address
	co.DiscountPercent = req.DiscountPercent
	co.DiscountFixed = req.DiscountFixed
	co.BillNo = req.BillNo
	return co, nil
}

type quoteResponse struct {
	Items []domain.BillLine `json:"items"`
	billing.Totals
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	co, err := h.checkout(r.Context(), req)
	if err != nil {
		respondErr(w, r, err, "unable to price cart")
		return
	}
	totals, err := h.billing.Quote(co)
	if err != nil {
		respondErr(w, r, err, "unable to price cart")
		return
	}
	respondJSON(w, http.StatusOK, quoteResponse{Items: co.Cart.BillLines(), Totals: totals})
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	co, err := h.checkout(r.Context(), req)
	if err != nil {
		respondErr(w, r, err, "unable to complete sale")
		return
	}
	preview, err := h.billing.Complete(r.Context(), co, currentUserID(r))
	if err != nil {
		respondErr(w, r, err, "unable to complete sale")
		return
	}
	respondJSON(w, http.StatusCreated, preview)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	sale, err := h.store.Sales.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, r, err, "unable to load sale")
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.Customers.FindAll(r.Context())
	if err != nil {
		respondErr(w, r, err, "unable to list customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}
