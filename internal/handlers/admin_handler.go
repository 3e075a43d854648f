package handlers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/autoracer/raffle-backend/internal/helpers"
	"github.com/autoracer/raffle-backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminHandler struct {
	repo repository.Repository
}

func NewAdminHandler(repo repository.Repository) *AdminHandler {
	return &AdminHandler{repo: repo}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPasswordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminUsername == "" || adminPasswordHash == "" {
		helpers.RespondWithError(c, http.StatusServiceUnavailable, "Admin access not configured.")
		return
	}

	if req.Username != adminUsername {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(adminPasswordHash), []byte(req.Password)); err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		helpers.RespondWithError(c, http.StatusInternalServerError, "JWT_SECRET not configured.")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": req.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}

func (h *AdminHandler) ListPayments(c *gin.Context) {
	payments, err := h.repo.ListPayments(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving payments.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *AdminHandler) GetRaffle(c *gin.Context) {
	raffle, err := h.repo.GetRaffleConfig(c.Request.Context())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Raffle not configured.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving raffle.")
		return
	}

	c.JSON(http.StatusOK, raffle)
}

type RaffleRequest struct {
	Name         string          `json:"name" binding:"required"`
	TicketPrice  decimal.Decimal `json:"ticket_price"`
	TotalTickets int             `json:"total_tickets" binding:"required,min=1"`
	DrawDate     *time.Time      `json:"draw_date"`
}

func (h *AdminHandler) UpdateRaffle(c *gin.Context) {
	var req RaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if !req.TicketPrice.IsPositive() {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	raffle, err := h.repo.GetRaffleConfig(c.Request.Context())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Raffle not configured.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving raffle.")
		return
	}

	raffle.Name = req.Name
	raffle.TicketPrice = req.TicketPrice
	raffle.TotalTickets = req.TotalTickets
	raffle.DrawDate = req.DrawDate

	if err := h.repo.UpdateRaffleConfig(c.Request.Context(), raffle); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update raffle.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Raffle updated successfully.",
		"raffle":  raffle,
	})
}
