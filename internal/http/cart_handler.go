package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_store/internal/logger"
	"github.com/fjod/go_store/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts   CartService
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewCartHandler(carts CartService, timeout time.Duration, log *zap.SugaredLogger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
		log:     log,
	}
}

// QuantityRequestDTO carries the raw quantity; the service decides what is acceptable.
type QuantityRequestDTO struct {
	Quantity any `json:"quantity"`
}

type ReplaceLinesRequestDTO struct {
	Products json.RawMessage `json:"products"`
}

func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.CreateCart(ctx, chi.URLParam(r, "pid"))
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.Fetch(ctx, chi.URLParam(r, "cid"))
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// AddLine accepts an optional {"quantity": n} body; without one the quantity
// is 1. The raw value goes to the service, which checks it after the ids.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var quantity any = 1
	var req QuantityRequestDTO
	err := decodeNumbers(r.Body, &req)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	case req.Quantity != nil:
		quantity = req.Quantity
	}

	cart, err := h.carts.AddLine(ctx, chi.URLParam(r, "cid"), chi.URLParam(r, "pid"), quantity)
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// A missing or malformed body leaves Quantity nil, which the service rejects.
	var req QuantityRequestDTO
	_ = decodeNumbers(r.Body, &req)

	cart, err := h.carts.SetLineQuantity(ctx, chi.URLParam(r, "cid"), chi.URLParam(r, "pid"), req.Quantity)
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.RemoveLine(ctx, chi.URLParam(r, "cid"), chi.URLParam(r, "pid"))
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.ClearLines(ctx, chi.URLParam(r, "cid"))
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// ReplaceLines expects {"products": [{"productId": "...", "quantity": n}, ...]}.
// Anything that is not a list of lines reaches the service as nil so the
// cart lookup still decides between 404 and 400.
func (h *CartHandler) ReplaceLines(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var lines []service.LineInput
	var req ReplaceLinesRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Products) > 0 {
		if err := decodeNumbers(bytes.NewReader(req.Products), &lines); err != nil {
			lines = nil
		}
	}

	cart, err := h.carts.ReplaceAllLines(ctx, chi.URLParam(r, "cid"), lines)
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// decodeNumbers decodes JSON keeping numbers as json.Number.
func decodeNumbers(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	return dec.Decode(v)
}
