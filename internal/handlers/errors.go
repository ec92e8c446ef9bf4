package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"siikhub-waitlist-go/internal/waitlist"
)

// respondError translates a waitlist error into an ErrorResponse. Storage
// failures are logged and reported with the fallback message only.
func respondError(c *gin.Context, err error, fallback string) {
	var werr *waitlist.Error
	errors.As(err, &werr)

	switch waitlist.KindOf(err) {
	case waitlist.KindValidation:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(waitlist.KindValidation),
			Message: werr.Message,
			Code:    http.StatusBadRequest,
		})
	case waitlist.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   string(waitlist.KindNotFound),
			Message: werr.Message,
			Code:    http.StatusNotFound,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(RequestIDKey),
		}).WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   string(waitlist.KindOf(err)),
			Message: fallback,
			Code:    http.StatusInternalServerError,
		})
	}
}

func badRequest(c *gin.Context, kind, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   kind,
		Message: message,
		Code:    http.StatusBadRequest,
	})
}
