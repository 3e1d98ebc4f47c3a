package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"meditrack/m/domain"
	"meditrack/m/internal/database"
	"meditrack/m/internal/logger"
	"meditrack/m/internal/store"
)

// Defaults applied to every imported row; the catalog carries no stock data.
const (
	importCategory     = "General"
	importBatch        = "IMPORT-2026"
	importExpiry       = "2027-12-31"
	importStock        = 100
	importReorderLevel = 20
)

// LoadMedicines imports the catalog at csvPath when the inventory is empty.
func LoadMedicines(ctx context.Context, db *sqlx.DB, csvPath string) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM inventory`); err != nil {
		return 0, fmt.Errorf("count inventory: %w", err)
	}
	if count > 0 {
		logger.Logger.Info().Int("rows", count).Msg("inventory already populated, skipping catalog import")
		return 0, nil
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("open medicine catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return ImportMedicines(ctx, db, file)
}

// ImportMedicines reads catalog rows keyed by header name and inserts them in
// one transaction. Rows without a drug name are skipped and rows that fail to
// parse are logged and skipped.
func ImportMedicines(ctx context.Context, db *sqlx.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read medicine header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	field := func(record []string, name, fallback string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return fallback
		}
		if v := strings.TrimSpace(record[i]); v != "" {
			return v
		}
		return fallback
	}

	rows, failed := 0, 0
	err = database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		meds := store.New(tx).Medicines
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				logger.Logger.Warn().Err(err).Msg("unable to read medicine row")
				failed++
				continue
			}

			name := field(record, "Drug Name", "")
			if name == "" {
				continue
			}
			expiry := importExpiry
			m := domain.Medicine{
				Name:                 name,
				Category:             importCategory,
				Company:              field(record, "Manufacturer", "Generic"),
				BatchNo:              importBatch,
				ExpiryDate:           &expiry,
				StockQty:             importStock,
				Price:                parsePrice(field(record, "Price", "0")),
				ReorderLevel:         importReorderLevel,
				Strength:             field(record, "Strength", ""),
				Form:                 field(record, "Form", ""),
				Indication:           field(record, "Indication", ""),
				SideEffects:          field(record, "Side Effects", ""),
				AgeRestriction:       field(record, "Age Restriction", ""),
				PrescriptionRequired: strings.EqualFold(field(record, "Prescription Required", "No"), "yes"),
			}
			if err := meds.Create(ctx, &m); err != nil {
				if errors.Is(err, domain.ErrValidation) {
					logger.Logger.Warn().Err(err).Str("medicine", name).Msg("skipping medicine row")
					failed++
					continue
				}
				return err
			}
			rows++
		}
	})
	if err != nil {
		return 0, fmt.Errorf("import medicine catalog: %w", err)
	}
	logger.Logger.Info().Int("imported", rows).Int("failed", failed).Msg("seeded medicine catalog")
	return rows, nil
}

// parsePrice treats NaN, negative and malformed prices as zero.
func parsePrice(raw string) decimal.Decimal {
	if strings.EqualFold(raw, "nan") {
		return decimal.Zero
	}
	p, err := decimal.NewFromString(raw)
	if err != nil || p.IsNegative() {
		return decimal.Zero
	}
	return p
}
