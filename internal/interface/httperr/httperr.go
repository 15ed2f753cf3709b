// Package httperr maps application errors onto HTTP statuses and the response envelope.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/internal/application"
	"github.com/oksasatya/tourguide-auth/pkg/response"
)

type mapping struct {
	target error
	status int
}

// Order matters: the first sentinel matched by errors.Is wins.
var table = []mapping{
	{application.ErrValidation, http.StatusBadRequest},
	{application.ErrInvalidCredentials, http.StatusUnauthorized},
	{application.ErrUnauthenticated, http.StatusUnauthorized},
	{application.ErrForbidden, http.StatusForbidden},
	{application.ErrInvalidOrExpiredResetToken, http.StatusBadRequest},
	{application.ErrUserNotFound, http.StatusNotFound},
	{application.ErrEmailTaken, http.StatusConflict},
	{application.ErrDeliveryFailure, http.StatusInternalServerError},
	{application.ErrStorageUnavailable, http.StatusServiceUnavailable},
	{application.ErrPersistence, http.StatusInternalServerError},
}

// Classify returns the status for err and the sentinel whose message is safe to show.
func Classify(err error) (int, error) {
	for _, m := range table {
		if errors.Is(err, m.target) {
			return m.status, m.target
		}
	}
	return http.StatusInternalServerError, nil
}

// Write answers c with the envelope for err. Server-side failures are logged with their full chain.
func Write(c *gin.Context, logger *logrus.Logger, err error) {
	status, sentinel := Classify(err)

	message := "something went wrong"
	if sentinel != nil {
		message = sentinel.Error()
	}

	var details any
	var verr *application.ValidationError
	if errors.As(err, &verr) {
		message = "invalid input data"
		details = verr.Fields
	}

	if logger != nil {
		entry := logger.WithError(err).WithFields(logrus.Fields{
			"status":     status,
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		})
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() != "" {
			entry = entry.WithField("code", oopsErr.Code())
		}
		if status >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}
	}

	response.Error(c, status, message, details)
}
