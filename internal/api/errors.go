package api

import (
	"errors"
	"net/http"

	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errorStatus maps service errors to HTTP status codes. Order matters only
// for errors that wrap others.
var errorStatus = []struct {
	err  error
	code int
}{
	{service.ErrForbidden, http.StatusForbidden},

	// Auth
	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrInvalidOTP, http.StatusBadRequest},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests},
	{service.ErrOTPDelivery, http.StatusServiceUnavailable},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrCannotDeleteSelf, http.StatusBadRequest},

	// Applications
	{service.ErrApplicationNotFound, http.StatusNotFound},
	{service.ErrActiveApplicationExists, http.StatusConflict},
	{service.ErrApplicationArchived, http.StatusConflict},
	{service.ErrAlreadyArchived, http.StatusConflict},
	{service.ErrNotArchived, http.StatusConflict},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrApplicationChanged, http.StatusConflict},
	{service.ErrCannotCancelApproved, http.StatusConflict},
	{service.ErrRefundFailed, http.StatusBadGateway},

	// Catalog
	{service.ErrPackageNotFound, http.StatusNotFound},
	{service.ErrCoachNotFound, http.StatusNotFound},
	{service.ErrCoachInactive, http.StatusConflict},
	{service.ErrCoachHasActiveClients, http.StatusConflict},

	// Bookings
	{service.ErrSlotUnavailable, http.StatusConflict},
	{service.ErrInvalidSlot, http.StatusBadRequest},
	{service.ErrInvalidDate, http.StatusBadRequest},
	{service.ErrDateInPast, http.StatusBadRequest},
	{service.ErrBookingNotFound, http.StatusNotFound},
	{service.ErrBookingNotScheduled, http.StatusConflict},
	{service.ErrApplicationNotActive, http.StatusConflict},
	{service.ErrWrongCoach, http.StatusBadRequest},
	{service.ErrHoldNotFound, http.StatusConflict},

	// Training
	{service.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrTrainingInactive, http.StatusConflict},

	// Uploads and contact
	{service.ErrUploadUnavailable, http.StatusServiceUnavailable},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{service.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
	{service.ErrContactUnavailable, http.StatusServiceUnavailable},
}

// respondError writes the mapped status with the error's message.
// Unknown errors become a generic 500 and are attached to the context
// for the request logger.
func respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		abortWithError(c, http.StatusBadRequest, ve.Message)
		return
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			abortWithError(c, m.code, m.err.Error())
			return
		}
	}
	_ = c.Error(err)
	abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
}

func bindingError(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
}

// objectIDParam parses a path parameter, answering 400 when malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}
