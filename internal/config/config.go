package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration values.
type Config struct {
	Secret            string
	DatabaseDriver    string
	DatabaseDSN       string
	HTTPPort          string
	Environment       string
	LogLevel          string
	GSTRate           decimal.Decimal
	LowStockThreshold int64
	ExpiryWarningDays int
	SessionTimeout    time.Duration
	TemplatePath      string
	MedicineCSV       string
	AdminPassword     string
	AllowedOrigins    []string
}

// IsDevelopment reports whether logs should be pretty-printed.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables with reasonable defaults.
// A .env file in the working directory is honoured when present.
func Load() Config {
	_ = godotenv.Load()

	secret := getEnv("SECRET", "dev_secret")

	port := getEnv("HTTP_PORT", "8080")
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", "sqlite"))
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = defaultDSN(driver)
	}

	gst, err := decimal.NewFromString(getEnv("GST_RATE", "12"))
	if err != nil || gst.IsNegative() {
		log.Printf("invalid GST_RATE value %q, defaulting to 12", os.Getenv("GST_RATE"))
		gst = decimal.NewFromInt(12)
	}

	return Config{
		Secret:            secret,
		DatabaseDriver:    driver,
		DatabaseDSN:       dsn,
		HTTPPort:          port,
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		GSTRate:           gst,
		LowStockThreshold: int64(getEnvInt("LOW_STOCK_THRESHOLD", 10)),
		ExpiryWarningDays: getEnvInt("EXPIRY_WARNING_DAYS", 30),
		SessionTimeout:    time.Duration(getEnvInt("SESSION_TIMEOUT", 30)) * time.Minute,
		TemplatePath:      getEnv("TEMPLATE_PATH", "config/bill_template.json"),
		MedicineCSV:       os.Getenv("MEDICINE_CSV"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "admin"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}
}

func defaultDSN(driver string) string {
	switch driver {
	case "pgx", "postgres":
		return "postgres://" + getEnv("DB_USER", "postgres") + ":" + os.Getenv("DB_PASSWORD") + "@" +
			getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432") + "/" +
			getEnv("DB_NAME", "medical_store") + "?sslmode=disable"
	case "mysql":
		return getEnv("DB_USER", "medical_user") + ":" + os.Getenv("DB_PASSWORD") + "@tcp(" +
			getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "3306") + ")/" +
			getEnv("DB_NAME", "medical_store")
	default:
		return "file:meditrack.db?_pragma=foreign_keys(1)"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Printf("invalid %s value %q, defaulting to %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
