package httpserver

import (
	"errors"
	"net/http"

	"aura-taste/internal/cart"
	"aura-taste/internal/domain"
	"aura-taste/internal/lifecycle"
	"aura-taste/internal/service/anonymous"
	cartsvc "aura-taste/internal/service/cart"
	"aura-taste/internal/service/checkout"
	customersvc "aura-taste/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, cartsvc.ErrInvalidSelection),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, customersvc.ErrInvalidSignup),
		errors.Is(err, lifecycle.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, customersvc.ErrInvalidCredentials),
		errors.Is(err, customersvc.ErrInvalidToken),
		errors.Is(err, anonymous.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, lifecycle.ErrStatusRegression),
		errors.Is(err, lifecycle.ErrTerminal):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPersistence),
		errors.Is(err, cart.ErrUnsynced):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorBody(err error, code int) errorResponse {
	if code == http.StatusInternalServerError {
		return errorResponse{Error: "internal error"}
	}
	resp := errorResponse{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	return resp
}

func writeError(c *gin.Context, err error) {
	code := statusFor(err)
	c.JSON(code, errorBody(err, code))
}

func abortError(c *gin.Context, err error) {
	code := statusFor(err)
	c.AbortWithStatusJSON(code, errorBody(err, code))
}
