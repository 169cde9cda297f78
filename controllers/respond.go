package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
	"github.com/LakshanUd/sl-go-tour-backend/common/logger"
)

// maxBodyBytes bounds JSON bodies and webhook payloads.
const maxBodyBytes = 1 << 16

// respondError writes err as {"message": ...}. Server-side faults are logged
// with their cause and answered with a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := apperrors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.ForRequest(log, c).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", apperrors.KindOf(err).String()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"message": apperrors.PublicMessage(err)})
}

// readBody returns the raw request body, rejecting oversized payloads.
func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.New(apperrors.KindValidation, http.StatusRequestEntityTooLarge, "Request body too large", err)
		}
		return nil, apperrors.Validation("Invalid request body")
	}
	return body, nil
}
