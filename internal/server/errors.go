package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type validationError struct {
	field   string
	code    string
	message string
}

func (e *validationError) Error() string {
	return e.message
}

func newValidationError(field, code, message string) error {
	return &validationError{field: field, code: code, message: message}
}

func invalidRequestError() error {
	return newValidationError("", ErrInvalidRequest.Error(), "invalid request body")
}

// AbortWithError maps a domain error to its HTTP status and writes the
// standard error envelope.
func AbortWithError(c *gin.Context, err error) {
	status, body := describeError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func describeError(err error) (int, errorBody) {
	var vErr *validationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorBody{Code: vErr.code, Message: vErr.message, Field: vErr.field}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, plandomain.ErrInvalidInterval),
		errors.Is(err, plandomain.ErrInvalidName),
		errors.Is(err, plandomain.ErrInvalidCurrency),
		errors.Is(err, subscriptiondomain.ErrInvalidBillingTime),
		errors.Is(err, subscriptiondomain.ErrInvalidCustomer),
		errors.Is(err, subscriptiondomain.ErrInvalidPlan):
		return http.StatusBadRequest, errorBody{Code: err.Error(), Message: err.Error()}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, plandomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionMissing):
		return http.StatusNotFound, errorBody{Code: err.Error(), Message: err.Error()}
	case errors.Is(err, subscriptiondomain.ErrSubmissionInFlight),
		errors.Is(err, subscriptiondomain.ErrFormDisposed),
		errors.Is(err, subscriptiondomain.ErrIdempotencyKeyReused):
		return http.StatusConflict, errorBody{Code: err.Error(), Message: err.Error()}
	}

	var transportErr *subscriptiondomain.TransportError
	if errors.As(err, &transportErr) {
		return http.StatusBadGateway, errorBody{Code: "upstream_unavailable", Message: transportErr.Error()}
	}

	return http.StatusInternalServerError, errorBody{Code: ErrInternal.Error(), Message: "internal server error"}
}
