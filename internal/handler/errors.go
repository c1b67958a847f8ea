package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/burger-shop/internal/domain/auth"
	"github.com/xenking/burger-shop/internal/domain/cart"
	"github.com/xenking/burger-shop/internal/domain/checkout"
	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/domain/product"
	"github.com/xenking/burger-shop/internal/domain/store"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError names a request field and the rule it broke.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Code: status, Message: msg})
}

// writeValidation reports validator failures, or a malformed body.
func writeValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Rule: fe.Tag()}
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation failed",
		Fields:  fields,
	})
}

// fail maps a domain error to its response. Unexpected errors are logged
// here and nowhere else.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		itemErr   *cart.InvalidItemError
		priceErr  *checkout.PriceUnavailableError
		statusErr *order.InvalidStatusError
		failedErr *checkout.FailedError
	)
	switch {
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, cart.ErrNoItems), errors.As(err, &itemErr), errors.As(err, &statusErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &priceErr):
		writeError(w, http.StatusConflict, priceErr.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrConflict):
		writeError(w, http.StatusConflict, "cart was modified concurrently, retry")
	case errors.As(err, &failedErr):
		zctx.From(r.Context()).Error("Checkout failed", zap.Error(failedErr.Cause))
		writeError(w, http.StatusInternalServerError, "checkout failed")
	case store.IsStorage(err):
		zctx.From(r.Context()).Error("Storage unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
