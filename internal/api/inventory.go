package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"meditrack/m/domain"
)

type medicineRequest struct {
	Name                 string          `json:"medicine_name"`
	Category             string          `json:"category"`
	Company              string          `json:"company"`
	Barcode              string          `json:"barcode"`
	BatchNo              string          `json:"batch_no"`
	ExpiryDate           string          `json:"expiry_date"`
	StockQty             int64           `json:"stock_qty"`
	Price                decimal.Decimal `json:"price"`
	ReorderLevel         *int64          `json:"reorder_level"`
	Strength             string          `json:"strength"`
	Form                 string          `json:"form"`
	Indication           string          `json:"indication"`
	SideEffects          string          `json:"side_effects"`
	PrescriptionRequired bool            `json:"prescription_required"`
	AgeRestriction       string          `json:"age_restriction"`
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	meds, err := h.store.Medicines.GetAll(r.Context())
	if err != nil {
		respondErr(w, r, err, "unable to list inventory")
		return
	}
	respondJSON(w, http.StatusOK, meds)
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	reorder := h.cfg.LowStockThreshold
	if req.ReorderLevel != nil {
		reorder = *req.ReorderLevel
	}
	m := domain.Medicine{
		Name:                 req.Name,
		Category:             req.Category,
		Company:              req.Company,
		Barcode:              &req.Barcode,
		BatchNo:              req.BatchNo,
		ExpiryDate:           &req.ExpiryDate,
		StockQty:             req.StockQty,
		Price:                req.Price,
		ReorderLevel:         reorder,
		Strength:             req.Strength,
		Form:                 req.Form,
		Indication:           req.Indication,
		SideEffects:          req.SideEffects,
		PrescriptionRequired: req.PrescriptionRequired,
		AgeRestriction:       req.AgeRestriction,
	}
	if err := h.store.Medicines.Create(r.Context(), &m); err != nil {
		respondErr(w, r, err, "unable to add medicine")
		return
	}
	h.audit(r, domain.ActionMedicineAdd, domain.ModuleInventory, "Added medicine "+m.Name)
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handler) searchInventory(w http.ResponseWriter, r *http.Request) {
	meds, err := h.store.Medicines.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		respondErr(w, r, err, "unable to search inventory")
		return
	}
	respondJSON(w, http.StatusOK, meds)
}

func (h *Handler) medicineByBarcode(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.Medicines.FindByBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondErr(w, r, err, "unable to look up barcode")
		return
	}
	respondJSON(w, http.StatusOK, m)
}

type stockRequest struct {
	Quantity int64 `json:"quantity"`
}

// updateStock records a physical count for one medicine.
func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid medicine id")
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Medicines.SetStock(r.Context(), id, req.Quantity); err != nil {
		respondErr(w, r, err, "unable to update stock")
		return
	}
	h.audit(r, domain.ActionStockUpdate, domain.ModuleInventory, fmt.Sprintf("Set stock of medicine %d to %d", id, req.Quantity))
	m, err := h.store.Medicines.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, r, err, "unable to load medicine")
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Medicines.LowStockItems(r.Context())
	if err != nil {
		respondErr(w, r, err, "unable to fetch low stock")
		return
	}
	today := h.now()
	alerts := make([]domain.StockAlert, len(items))
	for i, m := range items {
		alerts[i] = domain.NewStockAlert(m, today, h.cfg.ExpiryWarningDays)
	}
	respondJSON(w, http.StatusOK, map[string]any{"count": len(alerts), "items": alerts})
}

func (h *Handler) expiryAlerts(w http.ResponseWriter, r *http.Request) {
	days := h.cfg.ExpiryWarningDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	today := h.now()

	items, err := h.store.Medicines.ExpiringWithin(r.Context(), today, days)
	if err != nil {
		respondErr(w, r, err, "unable to fetch alerts")
		return
	}
	expired := []domain.Medicine{}
	expiring := []domain.Medicine{}
	for _, m := range items {
		if m.IsExpired(today) {
			expired = append(expired, m)
		} else {
			expiring = append(expiring, m)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"days":          days,
		"expired":       expired,
		"expiring_soon": expiring,
	})
}
