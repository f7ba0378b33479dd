package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/presentation/access"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// jsonDecimal writes money and rates as bare JSON numbers, keeping every digit.
type jsonDecimal decimal.Decimal

func (d jsonDecimal) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(d).String()), nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// statusFor maps an error kind onto its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, model.ErrProviderRejected):
		return http.StatusUnprocessableEntity, "PAYMENT_REJECTED"
	case errors.Is(err, model.ErrProviderBadRequest),
		errors.Is(err, model.ErrProviderAuth),
		errors.Is(err, model.ErrProviderAuthz),
		errors.Is(err, model.ErrProviderUnavailable):
		return http.StatusBadGateway, "PROVIDER_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// writeError renders err. Internal failures are logged and their detail hidden.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, r, status, errorBody{Code: code, Message: msg})
}
