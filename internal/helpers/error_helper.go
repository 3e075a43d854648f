package helpers

import (
	"net/http"

	"github.com/autoracer/raffle-backend/internal/models"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: customMessage,
	})
}

// FailureResponse is the public envelope of the raffle endpoints. Business
// rejections (duplicate payment, rejected proof) answer 200 with success:false.
type FailureResponse struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error"`
	AIResult *models.Verdict `json:"aiResult,omitempty"`
}

func RespondFailure(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, FailureResponse{Success: false, Error: message})
}

func RespondRejected(c *gin.Context, message string, verdict *models.Verdict) {
	c.JSON(http.StatusOK, FailureResponse{Success: false, Error: message, AIResult: verdict})
}
