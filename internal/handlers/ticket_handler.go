package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/autoracer/raffle-backend/internal/helpers"
	"github.com/autoracer/raffle-backend/internal/models"
	"github.com/autoracer/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TicketSubmitter is the slice of the ticket service the HTTP surface needs.
type TicketSubmitter interface {
	SubmitPayment(ctx context.Context, proof services.PaymentProof) ([]int, models.Verdict, error)
	CountPaidTickets(ctx context.Context) (int64, error)
}

type TicketHandler struct {
	service  TicketSubmitter
	notifier services.Notifier
}

func NewTicketHandler(service TicketSubmitter, notifier services.Notifier) *TicketHandler {
	return &TicketHandler{service: service, notifier: notifier}
}

func (h *TicketHandler) Count(c *gin.Context) {
	count, err := h.service.CountPaidTickets(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error al obtener conteo.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ValidatePaymentRequest accepts both the canonical field names and the
// aliases older frontends still send (bank, amount, national_id,
// screenshot_url). Aliases are resolved once here, before the service.
type ValidatePaymentRequest struct {
	Name          string          `json:"name" binding:"required"`
	Cedula        string          `json:"cedula"`
	NationalID    string          `json:"national_id"`
	Phone         string          `json:"phone" binding:"required"`
	Email         string          `json:"email"`
	Quantity      int             `json:"quantity" binding:"required,min=1"`
	BankFrom      string          `json:"bankFrom"`
	Bank          string          `json:"bank"`
	PaymentPhone  string          `json:"paymentPhone"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference" binding:"required"`
	ScreenshotURL string          `json:"screenshotUrl"`
	ScreenshotURLSnake string     `json:"screenshot_url"`
	InlineImage   string          `json:"inlineImage"`
	InlineMime    string          `json:"inlineMimeType"`
}

func (r *ValidatePaymentRequest) normalize() {
	if r.BankFrom == "" {
		r.BankFrom = r.Bank
	}
	if r.AmountPaid.IsZero() {
		r.AmountPaid = r.Amount
	}
	if r.Cedula == "" {
		r.Cedula = r.NationalID
	}
	if r.ScreenshotURL == "" {
		r.ScreenshotURL = r.ScreenshotURLSnake
	}
}

func decodeInlineImage(encoded string) ([]byte, string, error) {
	mimeType := ""
	if strings.HasPrefix(encoded, "data:") {
		parts := strings.SplitN(encoded, ",", 2)
		if len(parts) != 2 {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(parts[0], "data:"), ";base64")
		encoded = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

func (h *TicketHandler) ValidatePayment(c *gin.Context) {
	var req ValidatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondFailure(c, http.StatusBadRequest, "Faltan datos requeridos")
		return
	}
	req.normalize()

	if !req.AmountPaid.IsPositive() {
		helpers.RespondFailure(c, http.StatusBadRequest, "Faltan datos requeridos")
		return
	}

	proof := services.PaymentProof{
		Name:          req.Name,
		NationalID:    req.Cedula,
		Phone:         req.Phone,
		Email:         req.Email,
		Quantity:      req.Quantity,
		BankFrom:      req.BankFrom,
		PaymentPhone:  req.PaymentPhone,
		AmountPaid:    req.AmountPaid,
		Reference:     req.Reference,
		ScreenshotURL: req.ScreenshotURL,
		Image:         services.ProofImage{URL: req.ScreenshotURL},
	}

	if req.InlineImage != "" {
		data, mimeType, err := decodeInlineImage(req.InlineImage)
		if err != nil {
			helpers.RespondFailure(c, http.StatusBadRequest, "Imagen inválida")
			return
		}
		proof.Image.Data = data
		proof.Image.MimeType = mimeType
		if req.InlineMime != "" {
			proof.Image.MimeType = req.InlineMime
		}
	}

	numbers, verdict, err := h.service.SubmitPayment(c.Request.Context(), proof)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			helpers.RespondFailure(c, http.StatusBadRequest, "Faltan datos requeridos")
		case errors.Is(err, services.ErrDuplicatePayment):
			helpers.RespondFailure(c, http.StatusOK, "Pago duplicado: esta referencia ya fue registrada.")
		case errors.Is(err, services.ErrValidationRejected):
			message := verdict.Details
			if message == "" {
				message = "Datos no coinciden con la captura."
			}
			helpers.RespondRejected(c, message, &verdict)
		default:
			helpers.RespondFailure(c, http.StatusInternalServerError, "Error interno. Intenta de nuevo.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"ticketNumbers": numbers,
	})
}

type PurchaseRequest struct {
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Cedula    string          `json:"cedula"`
	Email     string          `json:"email"`
	TicketNum any             `json:"ticketNum"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// Purchase records nothing; it only notifies the operator channel. The real
// workflow lives behind /validate-payment.
func (h *TicketHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondFailure(c, http.StatusBadRequest, "Faltan datos requeridos")
		return
	}

	if req.Name == "" || req.Phone == "" || req.TicketNum == nil || req.Reference == "" || !req.Amount.IsPositive() {
		helpers.RespondFailure(c, http.StatusBadRequest, "Faltan datos requeridos")
		return
	}

	msg := fmt.Sprintf(
		"🎫 *Nueva Participación*\n\n👤 *Nombre:* %s\n📱 *Teléfono:* %s\n🪪 *Cédula:* %s\n📧 *Email:* %s\n🎫 *Boleto:* %v\n💳 *Referencia:* %s\n💵 *Monto:* Bs. %s",
		req.Name, req.Phone, orNA(req.Cedula), orNA(req.Email), req.TicketNum, req.Reference, req.Amount.StringFixed(2),
	)
	go h.notifier.Notify(msg)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Compra procesada correctamente",
		"ticketNum": req.TicketNum,
	})
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
