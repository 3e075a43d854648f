package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/autoracer/raffle-backend/config"
	"github.com/autoracer/raffle-backend/internal/handlers"
	"github.com/autoracer/raffle-backend/internal/middleware"
	"github.com/autoracer/raffle-backend/internal/repository"
	"github.com/autoracer/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}
	log.Println("Conectado a Supabase correctamente")

	repo := repository.NewGormRepository(db)

	var validator services.ProofValidator
	if cfg.GeminiAPIKey != "" {
		validator = services.NewGeminiValidator(cfg.GeminiAPIKey)
	} else {
		validator = services.NewStubValidator()
	}

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		telegramNotifier, err := services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Warning: failed to init Telegram bot, notifications disabled: %v", err)
		} else {
			notifier = telegramNotifier
		}
	} else {
		log.Println("Warning: TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID not set, notifications disabled")
	}

	var storage services.Storage
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		storage = services.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
	} else {
		log.Println("Warning: Supabase storage not configured, uploads are returned inline")
	}

	ticketService := services.NewTicketService(repo, validator, notifier, cfg.ConfidenceThreshold, cfg.ValidationTimeout)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	setupRoutes(r, ticketService, notifier, validator, storage, repo)

	return r.Run(":" + cfg.Port)
}

func setupRoutes(r *gin.Engine, ticketService *services.TicketService, notifier services.Notifier, validator services.ProofValidator, storage services.Storage, repo repository.Repository) {
	ticketHandler := handlers.NewTicketHandler(ticketService, notifier)
	uploadHandler := handlers.NewUploadHandler(storage)
	aiHandler := handlers.NewAIHandler(validator)
	adminHandler := handlers.NewAdminHandler(repo)

	r.GET("/", Home)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/tickets/count", ticketHandler.Count)
	r.POST("/tickets/purchase", ticketHandler.Purchase)
	r.POST("/upload", uploadHandler.Upload)
	r.POST("/validate-payment", ticketHandler.ValidatePayment)
	r.POST("/test-ai", aiHandler.TestAI)

	r.POST("/admin/login", adminHandler.Login)

	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware())
	{
		admin.GET("/payments", adminHandler.ListPayments)
		admin.GET("/raffle", adminHandler.GetRaffle)
		admin.PUT("/raffle", adminHandler.UpdateRaffle)
	}
}

func Home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8",
		[]byte("<h1>Servidor de AUTORACER funcionando!</h1><p>Conectado a la base de datos de Supabase.</p>"))
}
