package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	parkingdomain "github.com/smallbiznis/parkpro/internal/parking/domain"
	"github.com/smallbiznis/parkpro/pkg/validation"
	"gorm.io/gorm"
)

type ValidationError = validation.FieldError

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	var errs validation.Errors
	errs.Add(field, code, message)
	return errs.Err()
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErr *validation.Errors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Fields,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, parkingdomain.ErrInvalidID),
		errors.Is(err, parkingdomain.ErrInvalidQuery):
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(err),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	case errors.Is(err, parkingdomain.ErrAlreadyParked):
		return http.StatusConflict, errorPayload{
			Type:    "already_parked",
			Message: "vehicle is already parked",
		}
	case errors.Is(err, parkingdomain.ErrNoParkedSessions):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "no cars currently parked",
		}
	case errors.Is(err, parkingdomain.ErrNoMatch):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "no parked car matches the plate",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, parkingdomain.ErrSubscriptionNotExpired):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "subscription_not_expired",
			Message: "monthly subscription has not expired yet",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, parkingdomain.ErrTransientStore),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service temporarily unavailable, retry",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger's error_type/error_code fields.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError && payload.Type == "internal_error" {
		return payload.Type, "unexpected"
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		parkingdomain.IsNotFound(err),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, parkingdomain.ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, parkingdomain.ErrInvalidQuery):
		return "invalid_query"
	default:
		return "invalid_request"
	}
}

func validationErrorField(err error) string {
	switch {
	case errors.Is(err, parkingdomain.ErrInvalidID):
		return "id"
	case errors.Is(err, parkingdomain.ErrInvalidQuery):
		return "plate"
	default:
		return "request"
	}
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_id":
		return "malformed identifier"
	case "invalid_query":
		return "plate query must contain letters or digits"
	default:
		return "invalid request"
	}
}
