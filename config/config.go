package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/autoracer/raffle-backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DatabaseURL string
	Port        string

	TelegramBotToken string
	TelegramChatID   int64

	GeminiAPIKey string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string

	ConfidenceThreshold float64
	ValidationTimeout   time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                os.Getenv("PORT"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		SupabaseURL:         os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey:  os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:      os.Getenv("SUPABASE_BUCKET"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AdminUsername:       os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash:   os.Getenv("ADMIN_PASSWORD_HASH"),
		ConfidenceThreshold: 0.6,
		ValidationTimeout:   30 * time.Second,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SupabaseBucket == "" {
		cfg.SupabaseBucket = "payment-proofs"
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		parsed, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = parsed
	}

	if threshold := os.Getenv("AI_CONFIDENCE_THRESHOLD"); threshold != "" {
		parsed, err := strconv.ParseFloat(threshold, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return nil, fmt.Errorf("invalid AI_CONFIDENCE_THRESHOLD: %q", threshold)
		}
		cfg.ConfidenceThreshold = parsed
	}

	if timeout := os.Getenv("AI_VALIDATION_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid AI_VALIDATION_TIMEOUT: %q", timeout)
		}
		cfg.ValidationTimeout = parsed
	}

	return cfg, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

// The partial index is the real duplicate-payment guard; the application-level
// check in the workflow is only a fast path.
func createPaymentGuards(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_validated_reference
		ON payments (reference_suffix) WHERE status = 'validated'`).Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.Participant{}, &models.Payment{}, &models.Ticket{}, &models.RaffleConfig{})
	if err != nil {
		return nil, err
	}

	if err := createPaymentGuards(db); err != nil {
		return nil, err
	}

	seedRaffleConfig(db)

	return db, nil
}

func seedRaffleConfig(db *gorm.DB) {
	var existing models.RaffleConfig
	result := db.First(&existing)
	if result.Error != nil {
		db.Create(&models.RaffleConfig{
			Name:         "AUTORACER",
			TicketPrice:  decimal.NewFromInt(10),
			TotalTickets: 1000,
		})
	}
}
