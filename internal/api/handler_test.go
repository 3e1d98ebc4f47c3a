package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"meditrack/m/domain"
	"meditrack/m/internal/config"
	"meditrack/m/internal/database"
	"meditrack/m/internal/metrics"
	"meditrack/m/internal/migrations"
	"meditrack/m/internal/store"
	"meditrack/m/internal/template"
)

var fixedNow = time.Date(2026, 3, 5, 14, 30, 15, 0, time.UTC)

type testServer struct {
	t      *testing.T
	router http.Handler
	store  *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatal(err)
	}
	if err := migrations.EnsureAdmin(ctx, db, "admin"); err != nil {
		t.Fatal(err)
	}

	st := store.New(db)
	if _, err := st.Users.Create(ctx, "cashier", "cashier", "Front Counter", domain.RoleCashier); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{
		Secret:            "test-secret",
		GSTRate:           decimal.NewFromInt(12),
		LowStockThreshold: 10,
		ExpiryWarningDays: 30,
		SessionTimeout:    30 * time.Minute,
		AllowedOrigins:    []string{"*"},
	}
	reg := prometheus.NewRegistry()
	h := New(db, cfg, metrics.New(reg), reg, template.NewService(filepath.Join(t.TempDir(), "bill_template.json"))).
		WithClock(func() time.Time { return fixedNow })
	return &testServer{t: t, router: h.Router(), store: st}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", username, rec.Code, rec.Body)
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		s.t.Fatal(err)
	}
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	return v
}

func (s *testServer) addMedicine(token, name, price string, stock int64, expiry string) domain.Medicine {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/inventory", token, map[string]any{
		"medicine_name": name,
		"price":         price,
		"stock_qty":     stock,
		"expiry_date":   expiry,
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("add %s: %d %s", name, rec.Code, rec.Body)
	}
	return decode[domain.Medicine](s.t, rec)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d", rec.Code)
	}
	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password = %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "admin"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %s", rec.Code, rec.Body)
	}
	resp := decode[authResponse](t, rec)
	if resp.Token == "" || resp.User.Role != domain.RoleAdmin {
		t.Fatalf("response = %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("password hash leaked")
	}
	if d := time.Until(resp.ExpiresAt); d <= 0 || d > 31*time.Minute {
		t.Errorf("token expires in %s", d)
	}
}

func TestAuthAndRoles(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(http.MethodGet, "/inventory", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/inventory", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d", rec.Code)
	}

	cashier := s.login("cashier", "cashier")
	if rec := s.do(http.MethodGet, "/users", cashier, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("cashier listing users = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/reports/summary", cashier, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("cashier reading reports = %d", rec.Code)
	}

	admin := s.login("admin", "admin")
	rec := s.do(http.MethodPost, "/users", admin, map[string]string{
		"username": "night", "password": "shift123", "full_name": "Night Shift", "role": "Cashier",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user = %d %s", rec.Code, rec.Body)
	}
	rec = s.do(http.MethodPost, "/users", admin, map[string]string{"username": "night", "password": "shift123"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate user = %d", rec.Code)
	}
	users := decode[[]domain.User](t, s.do(http.MethodGet, "/users", admin, nil))
	if len(users) != 3 {
		t.Fatalf("users = %+v", users)
	}
}

func TestInventoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login("admin", "admin")

	med := s.addMedicine(token, "Panadol", "30", 4, "2026-03-20")
	s.addMedicine(token, "Expired Drops", "12.5", 50, "2026-01-10")
	s.addMedicine(token, "Zinc Syrup", "80", 90, "")

	if rec := s.do(http.MethodPost, "/inventory", token, map[string]any{"medicine_name": " "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name = %d", rec.Code)
	}

	found := decode[[]domain.Medicine](t, s.do(http.MethodGet, "/inventory/search?query=pana", token, nil))
	if len(found) != 1 || found[0].ID != med.ID {
		t.Fatalf("search = %+v", found)
	}

	low := decode[struct {
		Count int                 `json:"count"`
		Items []domain.StockAlert `json:"items"`
	}](t, s.do(http.MethodGet, "/inventory/low-stock", token, nil))
	if low.Count != 1 || low.Items[0].Name != "Panadol" || !low.Items[0].ExpiringSoon {
		t.Fatalf("low stock = %+v", low)
	}

	alerts := decode[struct {
		Days     int               `json:"days"`
		Expired  []domain.Medicine `json:"expired"`
		Expiring []domain.Medicine `json:"expiring_soon"`
	}](t, s.do(http.MethodGet, "/inventory/expiry-alert", token, nil))
	if alerts.Days != 30 || len(alerts.Expired) != 1 || alerts.Expired[0].Name != "Expired Drops" ||
		len(alerts.Expiring) != 1 || alerts.Expiring[0].Name != "Panadol" {
		t.Fatalf("alerts = %+v", alerts)
	}

	for _, days := range []string{"soon", "-3", "0"} {
		if rec := s.do(http.MethodGet, "/inventory/expiry-alert?days="+days, token, nil); rec.Code != http.StatusBadRequest {
			t.Fatalf("days=%s = %d", days, rec.Code)
		}
	}

	rec := s.do(http.MethodPost, "/inventory/"+itoa(med.ID)+"/stock", token, map[string]int64{"quantity": 60})
	if rec.Code != http.StatusOK || decode[domain.Medicine](t, rec).StockQty != 60 {
		t.Fatalf("set stock = %d %s", rec.Code, rec.Body)
	}
	if rec := s.do(http.MethodPost, "/inventory/999/stock", token, map[string]int64{"quantity": 1}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown medicine = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/inventory/barcode/123", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown barcode = %d", rec.Code)
	}
}

type billResponse struct {
	SaleID       int64             `json:"sale_id"`
	BillNo       string            `json:"bill_no"`
	CustomerName string            `json:"customer_name"`
	Items        []domain.BillLine `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Discount     decimal.Decimal   `json:"discount"`
	Tax          decimal.Decimal   `json:"gst"`
	Total        decimal.Decimal   `json:"total"`
}

func TestSaleFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login("cashier", "cashier")
	admin := s.login("admin", "admin")

	para := s.addMedicine(token, "Paracetamol 500mg", "10", 100, "2027-01-01")
	s.addMedicine(token, "Vitamin D3", "120", 20, "2027-01-01")

	cart := map[string]any{
		"items": []map[string]any{
			{"name": "Paracetamol 500mg", "unit_price": "10.00", "quantity": 5},
			{"name": "Vitamin D3", "unit_price": "120.00", "quantity": 3},
		},
		"discount_percent": "10",
		"phone":            "0300-1111111",
	}

	quote := decode[struct {
		Items      []domain.BillLine `json:"items"`
		GrandTotal decimal.Decimal   `json:"grand_total"`
	}](t, s.do(http.MethodPost, "/billing/quote", token, map[string]any{
		"items": cart["items"], "discount_percent": "10",
	}))
	if len(quote.Items) != 2 || !quote.GrandTotal.Equal(decimal.RequireFromString("418.20")) {
		t.Fatalf("quote = %v", quote)
	}

	priced := decode[struct {
		Items []domain.BillLine `json:"items"`
	}](t, s.do(http.MethodPost, "/billing/quote", token, map[string]any{
		"items": []map[string]any{{"name": "Vitamin D3", "quantity": 2}},
	}))
	if len(priced.Items) != 1 || !priced.Items[0].UnitPrice.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("inventory priced quote = %+v", priced)
	}

	rec := s.do(http.MethodPost, "/sales", token, cart)
	if rec.Code != http.StatusCreated {
		t.Fatalf("sale = %d %s", rec.Code, rec.Body)
	}
	bill := decode[billResponse](t, rec)
	if bill.BillNo != "POS-143015" || bill.CustomerName != domain.WalkInCustomerName ||
		!bill.Total.Equal(decimal.RequireFromString("418.2")) || !bill.Tax.Equal(decimal.RequireFromString("49.2")) ||
		!bill.Discount.Equal(decimal.NewFromInt(41)) || len(bill.Items) != 2 {
		t.Fatalf("bill = %+v", bill)
	}

	m, err := s.store.Medicines.FindByID(context.Background(), para.ID)
	if err != nil || m.StockQty != 95 {
		t.Fatalf("stock after sale = %+v, %v", m, err)
	}

	detail := decode[domain.SaleDetail](t, s.do(http.MethodGet, "/sales/"+itoa(bill.SaleID), token, nil))
	if len(detail.Items) != 2 || detail.UserID == nil {
		t.Fatalf("sale detail = %+v", detail)
	}

	today := decode[map[string]any](t, s.do(http.MethodGet, "/reports/today", token, nil))
	if today["orders"] != float64(1) || today["date"] != "2026-03-05" {
		t.Fatalf("today = %v", today)
	}
	summary := decode[domain.SalesSummary](t, s.do(http.MethodGet, "/reports/summary?start_date=2026-03-01&end_date=2026-03-31", admin, nil))
	if summary.Count != 1 || !summary.Revenue.Equal(decimal.RequireFromString("418.2")) {
		t.Fatalf("summary = %+v", summary)
	}
	if rec := s.do(http.MethodGet, "/reports/sales?start_date=03/01/2026", admin, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date = %d", rec.Code)
	}
	rows := decode[[]domain.SaleReportRow](t, s.do(http.MethodGet, "/reports/sales", admin, nil))
	if len(rows) != 1 || rows[0].CashierName == nil || *rows[0].CashierName != "cashier" {
		t.Fatalf("report = %+v", rows)
	}

	customers := decode[[]domain.Customer](t, s.do(http.MethodGet, "/customers", token, nil))
	if len(customers) != 1 {
		t.Fatalf("customers = %+v", customers)
	}

	logs := decode[[]domain.AuditLogEntry](t, s.do(http.MethodGet, "/audit-logs?limit=10", admin, nil))
	var sawSale bool
	for _, e := range logs {
		if e.ActionType == domain.ActionSaleComplete && e.Description == "Processed Bill POS-143015" {
			sawSale = true
		}
	}
	if !sawSale {
		t.Fatalf("audit logs = %+v", logs)
	}
}

func TestSaleErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.login("cashier", "cashier")
	s.addMedicine(token, "Paracetamol 500mg", "10", 100, "")

	rec := s.do(http.MethodPost, "/sales", token, map[string]any{"items": []any{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty cart = %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/sales", token, map[string]any{
		"items":          []map[string]any{{"name": "Paracetamol 500mg", "unit_price": "10", "quantity": 1}},
		"discount_fixed": "lots",
	})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "discount_fixed") {
		t.Fatalf("bad discount = %d %s", rec.Code, rec.Body)
	}

	rec = s.do(http.MethodPost, "/sales", token, map[string]any{
		"items": []map[string]any{
			{"name": "Paracetamol 500mg", "unit_price": "10", "quantity": 1},
			{"name": "Ghost Tablet", "unit_price": "1", "quantity": 1},
		},
	})
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "Ghost Tablet") {
		t.Fatalf("lookup miss = %d %s", rec.Code, rec.Body)
	}

	s.addMedicine(token, "Vitamin D3", "120", 20, "")
	rec = s.do(http.MethodPost, "/sales", token, map[string]any{
		"items": []map[string]any{{"name": "Vitamin D3", "unit_price": "0.01", "quantity": 3}},
	})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "inventory price") {
		t.Fatalf("underpriced sale = %d %s", rec.Code, rec.Body)
	}

	rec = s.do(http.MethodPost, "/sales", token, map[string]any{
		"items": []map[string]any{
			{"name": "Paracetamol 500mg", "unit_price": "10", "quantity": 1},
			{"name": "Vitamin D3", "unit_price": "120", "quantity": math.MaxInt64},
			{"name": "Vitamin D3", "unit_price": "120", "quantity": 2},
		},
	})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "quantity") {
		t.Fatalf("oversized quantity = %d %s", rec.Code, rec.Body)
	}

	rec = s.do(http.MethodPost, "/sales", token, map[string]any{
		"items": []map[string]any{
			{"name": "Vitamin D3", "quantity": 1},
			{"name": "Vitamin D3", "unit_price": "120", "quantity": 50000},
			{"name": "Vitamin D3", "unit_price": "120", "quantity": 50000},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("merged quantity past cap = %d %s", rec.Code, rec.Body)
	}

	if n := decode[[]domain.SaleReportRow](t, s.do(http.MethodGet, "/reports/sales", s.login("admin", "admin"), nil)); len(n) != 0 {
		t.Fatalf("rejected sales were recorded: %+v", n)
	}
	m, _ := s.store.Medicines.FindByID(context.Background(), 1)
	if m.StockQty != 100 {
		t.Fatalf("stock changed after failed sale: %d", m.StockQty)
	}
	if rec := s.do(http.MethodGet, "/sales/42", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing sale = %d", rec.Code)
	}
}

func TestTemplateEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin")
	cashier := s.login("cashier", "cashier")

	tpl := decode[template.BillTemplate](t, s.do(http.MethodGet, "/template", cashier, nil))
	if tpl.Store.Name != "D. CHEMIST" {
		t.Fatalf("template = %+v", tpl)
	}

	tpl.Store.Name = "Shifa Pharmacy"
	if rec := s.do(http.MethodPut, "/template", cashier, tpl); rec.Code != http.StatusForbidden {
		t.Fatalf("cashier save = %d", rec.Code)
	}
	if rec := s.do(http.MethodPut, "/template", admin, tpl); rec.Code != http.StatusOK {
		t.Fatalf("save = %d %s", rec.Code, rec.Body)
	}
	if got := decode[template.BillTemplate](t, s.do(http.MethodGet, "/template", cashier, nil)); got.Store.Name != "Shifa Pharmacy" {
		t.Fatalf("saved template = %+v", got)
	}
	if rec := s.do(http.MethodDelete, "/template", admin, nil); rec.Code != http.StatusOK {
		t.Fatalf("reset = %d", rec.Code)
	}
	if got := decode[template.BillTemplate](t, s.do(http.MethodGet, "/template", cashier, nil)); got.Store.Name != "D. CHEMIST" {
		t.Fatalf("after reset = %+v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/health", "", nil)
	rec := s.do(http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "meditrack_http_request_duration_seconds") {
		t.Fatalf("metrics = %d %s", rec.Code, rec.Body)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
