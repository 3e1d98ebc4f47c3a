package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"meditrack/m/domain"
	"meditrack/m/internal/template"
)

// dateParams reads the optional start_date/end_date filters.
func dateParams(w http.ResponseWriter, r *http.Request) (start, end string, ok bool) {
	start = strings.TrimSpace(r.URL.Query().Get("start_date"))
	if start != "" {
		if _, err := time.Parse("2006-01-02", start); err != nil {
			respondError(w, http.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
			return "", "", false
		}
	}
	end = strings.TrimSpace(r.URL.Query().Get("end_date"))
	if end != "" {
		if _, err := time.Parse("2006-01-02", end); err != nil {
			respondError(w, http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
			return "", "", false
		}
	}
	return start, end, true
}

func (h *Handler) summaryReport(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	start, end, ok := dateParams(w, r)
	if !ok {
		return
	}
	summary, err := h.store.Sales.SummaryStats(r.Context(), start, end)
	if err != nil {
		respondErr(w, r, err, "unable to fetch summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	start, end, ok := dateParams(w, r)
	if !ok {
		return
	}
	rows, err := h.store.Sales.Report(r.Context(), start, end)
	if err != nil {
		respondErr(w, r, err, "unable to fetch sales report")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// todayReport backs the dashboard cards.
func (h *Handler) todayReport(w http.ResponseWriter, r *http.Request) {
	day := domain.FormatDate(h.now())
	stats, err := h.store.Sales.TodayStats(r.Context(), day)
	if err != nil {
		respondErr(w, r, err, "unable to fetch today's stats")
		return
	}
	lowStock, err := h.store.Medicines.LowStockCount(r.Context())
	if err != nil {
		respondErr(w, r, err, "unable to count low stock")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"date":            day,
		"revenue":         stats.Revenue,
		"orders":          stats.Orders,
		"low_stock_count": lowStock,
	})
}

// Bill template

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.templates.Load())
}

func (h *Handler) saveTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var tpl template.BillTemplate
	if err := decodeJSON(r, &tpl); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.templates.Save(tpl); err != nil {
		respondErr(w, r, err, "unable to save template")
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (h *Handler) resetTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	if err := h.templates.Reset(); err != nil {
		respondErr(w, r, err, "unable to reset template")
		return
	}
	respondJSON(w, http.StatusOK, template.Default())
}

func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.store.AuditLogs.Recent(r.Context(), limit)
	if err != nil {
		respondErr(w, r, err, "unable to fetch audit logs")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
