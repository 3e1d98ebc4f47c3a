package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"meditrack/m/internal/database"
	"meditrack/m/internal/migrations"
	"meditrack/m/internal/store"
)

const catalog = `Drug Name,Manufacturer,Strength,Form,Indication,Side Effects,Available In,Age Restriction,Prescription Required,Price
Panadol,GSK,500mg,Tablet,Fever,Nausea,Pharmacies,None,No,30
Augmentin,GSK,625mg,Tablet,Infection,Diarrhea,Pharmacies,Adults,Yes,nan
,Nobody,,,,,,,,
Calpol,,120mg/5ml,Syrup,Fever,,Pharmacies,Children,no,abc
`

func newDB(t *testing.T) *sqlx.DB {
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
	return db
}

func TestImportMedicines(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	n, err := ImportMedicines(ctx, db, strings.NewReader(catalog))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("imported %d rows, want 3", n)
	}

	meds, err := store.New(db).Medicines.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]int{}
	for i, m := range meds {
		byName[m.Name] = i
	}

	aug := meds[byName["Augmentin"]]
	if !aug.PrescriptionRequired || !aug.Price.IsZero() || aug.StockQty != 100 || aug.ReorderLevel != 20 {
		t.Errorf("augmentin = %+v", aug)
	}
	if aug.ExpiryDate == nil || *aug.ExpiryDate != "2027-12-31" || aug.BatchNo != "IMPORT-2026" || aug.Category != "General" {
		t.Errorf("augmentin defaults = %+v", aug)
	}
	pan := meds[byName["Panadol"]]
	if !pan.Price.Equal(decimal.NewFromInt(30)) || pan.PrescriptionRequired || pan.Strength != "500mg" {
		t.Errorf("panadol = %+v", pan)
	}
	if cal := meds[byName["Calpol"]]; cal.Company != "Generic" || !cal.Price.IsZero() {
		t.Errorf("calpol = %+v", cal)
	}
}

func TestLoadMedicinesSkipsPopulatedInventory(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}

	if n, err := LoadMedicines(ctx, db, path); err != nil || n != 3 {
		t.Fatalf("first load = %d, %v", n, err)
	}
	if n, err := LoadMedicines(ctx, db, path); err != nil || n != 0 {
		t.Fatalf("second load = %d, %v", n, err)
	}
	if _, err := LoadMedicines(ctx, newDB(t), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
