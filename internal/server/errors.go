package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	cataloguedomain "github.com/perkhub/perkstore/internal/catalogue/domain"
	companydomain "github.com/perkhub/perkstore/internal/company/domain"
	creditdomain "github.com/perkhub/perkstore/internal/credit/domain"
	orderdomain "github.com/perkhub/perkstore/internal/order/domain"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrRateLimited  = errors.New("rate_limited")
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func invalidRequestError() *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "invalid request",
	}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

// AbortWithError writes the JSON error envelope for err and stops the
// handler chain. Unmapped errors surface as an opaque 500 so storage
// details never leak to clients.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	status, code := classifyError(err)
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"code":    code,
		"message": code,
	}})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orderdomain.ErrOrderNotFound),
		errors.Is(err, cataloguedomain.ErrProductNotFound),
		errors.Is(err, companydomain.ErrCompanyNotFound),
		errors.Is(err, companydomain.ErrProjectNotFound),
		errors.Is(err, companydomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, orderdomain.ErrInsufficientCredit):
		return http.StatusPaymentRequired, "insufficient_credit"
	case errors.Is(err, orderdomain.ErrProductUnavailable),
		errors.Is(err, cataloguedomain.ErrProductUnavailable):
		return http.StatusConflict, "product_unavailable"
	case errors.Is(err, orderdomain.ErrInvalidLines),
		errors.Is(err, orderdomain.ErrInvalidQuantity),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, cataloguedomain.ErrInvalidName),
		errors.Is(err, cataloguedomain.ErrInvalidPrice),
		errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, companydomain.ErrInvalidCode),
		errors.Is(err, companydomain.ErrInvalidAmount),
		errors.Is(err, creditdomain.ErrInvalidUser):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_status_transition"
	case errors.Is(err, companydomain.ErrCreditConflict):
		return http.StatusConflict, "credit_conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
