package handlers

import (
	"net/http"

	"github.com/autoracer/raffle-backend/internal/helpers"
	"github.com/autoracer/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AIHandler struct {
	validator services.ProofValidator
}

func NewAIHandler(validator services.ProofValidator) *AIHandler {
	return &AIHandler{validator: validator}
}

// TestAI runs the validator against an uploaded screenshot without touching
// the database. Operators use it to tune prompts and thresholds.
func (h *AIHandler) TestAI(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		helpers.RespondFailure(c, http.StatusBadRequest, "No se envió archivo")
		return
	}

	data, mimeType, err := helpers.ReadUploadedFile(fileHeader)
	if err != nil {
		helpers.RespondFailure(c, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := decimal.NewFromString(c.PostForm("amount"))
	if err != nil {
		helpers.RespondFailure(c, http.StatusBadRequest, "Monto inválido")
		return
	}

	expected := services.ExpectedPayment{
		Amount:    amount,
		Reference: c.PostForm("reference"),
		Bank:      c.PostForm("bank"),
		Phone:     c.PostForm("phone"),
	}

	verdict := h.validator.Validate(c.Request.Context(), services.ProofImage{
		Data:     data,
		MimeType: mimeType,
	}, expected)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"testData": gin.H{
			"amount":    amount,
			"reference": expected.Reference,
			"bank":      expected.Bank,
			"phone":     expected.Phone,
		},
		"aiResult": verdict,
	})
}
