package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Auth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status.
func fail(c *gin.Context, logger *logrus.Logger, err error) {
	failWith(c, logger, statusFor(err), err)
}

// failWith writes err with a route-specific status. Internal errors are
// logged and reported with a generic message.
func failWith(c *gin.Context, logger *logrus.Logger, status int, err error) {
	if apperr.KindOf(err) == apperr.Internal {
		if logger != nil {
			logger.WithError(err).
				WithField("request_id", c.GetString(response.RequestIDKey)).
				WithField("path", c.FullPath()).
				Error("request failed")
		}
		response.Error[any](c, status, "internal server error", nil)
		return
	}
	var details any
	if d := apperr.DetailsOf(err); len(d) > 0 {
		details = d
	}
	response.Error[any](c, status, apperr.MessageOf(err, "request failed"), details)
}
