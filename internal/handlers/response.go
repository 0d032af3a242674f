package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"team-service/internal/middleware"
	"team-service/internal/services"
)

// SuccessResponse sends a standardized success response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := gin.H{
		"success":    true,
		"message":    message,
		"request_id": getRequestID(c),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if data != nil {
		response["data"] = data
	}
	c.JSON(statusCode, response)
}

// ErrorResponse sends a standardized error response. Internal details are
// logged, not exposed.
func ErrorResponse(c *gin.Context, statusCode int, message string, details interface{}) {
	response := gin.H{
		"success":    false,
		"message":    message,
		"request_id": getRequestID(c),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if details != nil {
		response["details"] = details
	}
	c.JSON(statusCode, response)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
func RespondServiceError(c *gin.Context, log *logrus.Logger, err error) {
	if validationErr, ok := services.IsValidationError(err); ok {
		ErrorResponse(c, http.StatusBadRequest, validationErr.Error(), gin.H{"field": validationErr.Field})
		return
	}
	if authErr, ok := services.IsAuthorizationError(err); ok {
		ErrorResponse(c, http.StatusForbidden, authErr.Message, nil)
		return
	}
	if notFoundErr, ok := services.IsNotFoundError(err); ok {
		ErrorResponse(c, http.StatusNotFound, notFoundErr.Error(), nil)
		return
	}
	if dupErr, ok := services.IsDuplicateInvitationError(err); ok {
		ErrorResponse(c, http.StatusConflict, dupErr.Error(), gin.H{"email": dupErr.Email})
		return
	}
	if limitErr, ok := services.IsLicenseLimitError(err); ok {
		// Seat counts ride along so clients can render "N of M seats used".
		ErrorResponse(c, http.StatusConflict, limitErr.Error(), gin.H{
			"used_seats":      limitErr.UsedSeats,
			"max_seats":       limitErr.MaxSeats,
			"available_seats": limitErr.AvailableSeats,
		})
		return
	}
	if stateErr, ok := services.IsInvitationStateError(err); ok {
		ErrorResponse(c, http.StatusConflict, stateErr.Error(), gin.H{"status": stateErr.Status})
		return
	}
	if expErr, ok := services.IsInvitationExpiredError(err); ok {
		ErrorResponse(c, http.StatusGone, expErr.Error(), gin.H{"expired_at": expErr.ExpiredAt})
		return
	}
	if storeErr, ok := services.IsStoreUnavailableError(err); ok {
		log.WithError(storeErr).WithField("request_id", getRequestID(c)).Error("transient storage failure")
		ErrorResponse(c, http.StatusServiceUnavailable, "Storage temporarily unavailable, please retry", nil)
		return
	}

	log.WithError(err).WithField("request_id", getRequestID(c)).Error("unhandled error")
	ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
}

// getRequestID retrieves the request ID set by middleware
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(middleware.RequestIDKey); exists {
		if s, ok := requestID.(string); ok {
			return s
		}
	}
	return c.GetHeader("X-Request-ID")
}
