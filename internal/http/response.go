package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_store/internal/circuitbreaker"
	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/service"
	"go.uber.org/zap"
)

type CartService interface {
	Fetch(ctx context.Context, cartID string) (*domain.PopulatedCart, error)
	CreateCart(ctx context.Context, productID string) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID, productID string, quantity any) (*domain.Cart, error)
	RemoveLine(ctx context.Context, cartID, productID string) (*domain.Cart, error)
	ClearLines(ctx context.Context, cartID string) (*domain.Cart, error)
	SetLineQuantity(ctx context.Context, cartID, productID string, quantity any) (*domain.Cart, error)
	ReplaceAllLines(ctx context.Context, cartID string, lines []service.LineInput) (*domain.Cart, error)
}

type ProductService interface {
	List(ctx context.Context, q service.ProductQuery) (*service.ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in service.NewProduct) (*domain.Product, error)
	Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type UserService interface {
	Register(ctx context.Context, reg service.Registration) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.S().Errorw("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// errorStatus maps a service error to an HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidIdentifier):
		return http.StatusBadRequest, "invalid_identifier"
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, service.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, service.ErrInvalidProduct), errors.Is(err, service.ErrInvalidRegistration):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest, "invalid_query"
	case errors.Is(err, service.ErrCartNotFound):
		return http.StatusNotFound, "cart_not_found"
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, "product_not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrDuplicateCode), errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrStoreUnavailable), errors.Is(err, circuitbreaker.ErrOpen):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func handleServiceError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	status, code := errorStatus(err)

	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		log.Errorw("store unavailable", "error", err)
		message = "service unavailable"
	case http.StatusInternalServerError, http.StatusGatewayTimeout:
		log.Errorw("request failed", "error", err)
		message = http.StatusText(status)
	}

	respondError(w, status, code, message)
}
