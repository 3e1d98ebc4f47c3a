// Package template stores the bill layout settings as a JSON file.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"meditrack/m/domain"
	"meditrack/m/internal/logger"
)

type Theme struct {
	Primary    string `json:"primary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
	FontFamily string `json:"font_family"`
}

type Table struct {
	HeaderBg   string   `json:"header_bg"`
	HeaderText string   `json:"header_text"`
	RowBorder  string   `json:"row_border"`
	Columns    []string `json:"columns"`
}

type Footer struct {
	ShowQR      bool   `json:"show_qr"`
	ShowBank    bool   `json:"show_bank"`
	ThanksText  string `json:"thanks_text"`
	ThanksColor string `json:"thanks_color"`
}

// BillTemplate is the document persisted at the template path.
type BillTemplate struct {
	Store  domain.Pharmacy `json:"store"`
	Theme  Theme           `json:"theme"`
	Table  Table           `json:"table"`
	Footer Footer          `json:"footer"`
}

// Default returns a fresh copy of the factory template.
func Default() BillTemplate {
	return BillTemplate{
		Store: domain.Pharmacy{
			Name:         "D. CHEMIST",
			Tagline:      "Your Health, Our Priority",
			Address:      "123 Pharmacy St, District Karachi\nSindh, Pakistan - 74000\n+92-321-1234567 | care@dchemist.com",
			Color:        "#0F172A",
			TaglineColor: "#64748B",
			AddressColor: "#64748B",
		},
		Theme: Theme{
			Primary:    "#2C7878",
			Accent:     "#0F172A",
			Background: "#FFFFFF",
			Text:       "#0F172A",
			FontFamily: "Inter",
		},
		Table: Table{
			HeaderBg:   "rgba(44, 120, 120, 0.08)",
			HeaderText: "#2C7878",
			RowBorder:  "#F1F5F9",
			Columns:    []string{"ITEM", "BATCH", "EXPIRY", "QTY", "RATE", "GST%", "AMOUNT"},
		},
		Footer: Footer{
			ShowQR:      true,
			ShowBank:    true,
			ThanksText:  "Thank you for your visit!",
			ThanksColor: "#2C7878",
		},
	}
}

// Service reads and writes the template file.
type Service struct {
	path string
	mu   sync.Mutex
}

func NewService(path string) *Service {
	return &Service{path: path}
}

func (s *Service) Path() string { return s.path }

// Load returns the stored template. A missing file is created with the
// defaults; an unreadable one yields the defaults without being replaced.
func (s *Service) Load() BillTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		def := Default()
		if err := s.write(def); err != nil {
			logger.Logger.Warn().Err(err).Str("path", s.path).Msg("unable to create bill template")
		}
		return def
	}
	if err != nil {
		logger.Logger.Warn().Err(err).Str("path", s.path).Msg("unable to read bill template")
		return Default()
	}

	var tpl BillTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		logger.Logger.Warn().Err(err).Str("path", s.path).Msg("bill template is not valid JSON, using defaults")
		return Default()
	}
	return tpl
}

// Save overwrites the template file, creating parent directories.
func (s *Service) Save(tpl BillTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(tpl)
}

// Reset restores the factory template.
func (s *Service) Reset() error {
	return s.Save(Default())
}

func (s *Service) write(tpl BillTemplate) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create template directory: %w", err)
	}
	data, err := json.MarshalIndent(tpl, "", "    ")
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
