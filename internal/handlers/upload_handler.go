package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/autoracer/raffle-backend/internal/helpers"
	"github.com/autoracer/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	storage services.Storage
}

// NewUploadHandler accepts a nil storage; uploads then answer with the file
// inlined as a data URI so the frontend can still attach it to the
// validation request.
func NewUploadHandler(storage services.Storage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

func (h *UploadHandler) Upload(c *gin.Context) {
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

	if h.storage == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"url":        "",
			"inlineData": fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
		})
		return
	}

	url, err := h.storage.Upload(c.Request.Context(), fileHeader.Filename, mimeType, data)
	if err != nil {
		helpers.RespondFailure(c, http.StatusInternalServerError, "Error al subir archivo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     url,
	})
}
