package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/logger"
	"github.com/fjod/go_store/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductHandler struct {
	products ProductService
	timeout  time.Duration
	log      *zap.SugaredLogger
}

func NewProductHandler(products ProductService, timeout time.Duration, log *zap.SugaredLogger) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
		log:      log,
	}
}

type ProductsResponse struct {
	Status      string            `json:"status"`
	Payload     []*domain.Product `json:"payload"`
	TotalPages  int               `json:"totalPages"`
	PrevPage    *int              `json:"prevPage"`
	NextPage    *int              `json:"nextPage"`
	Page        int               `json:"page"`
	HasPrevPage bool              `json:"hasPrevPage"`
	HasNextPage bool              `json:"hasNextPage"`
	PrevLink    *string           `json:"prevLink"`
	NextLink    *string           `json:"nextLink"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, err := parseProductQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	page, err := h.products.List(ctx, q)
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, newProductsResponse(page, q, r.URL.Query().Get("query")))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.products.Get(ctx, chi.URLParam(r, "pid"))
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.NewProduct
	if err := decodeStrict(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	product, err := h.products.Create(ctx, req)
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// Update only accepts the fields listed in domain.ProductUpdate.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.ProductUpdate
	if err := decodeStrict(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	product, err := h.products.Update(ctx, chi.URLParam(r, "pid"), req)
	if err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.products.Delete(ctx, chi.URLParam(r, "pid")); err != nil {
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseProductQuery(values url.Values) (service.ProductQuery, error) {
	q := service.ProductQuery{
		Sort:   domain.SortOrder(values.Get("sort")),
		Filter: domain.ProductFilter{Category: values.Get("category")},
	}

	// Unparsable page and limit fall back to the defaults.
	q.Page, _ = strconv.Atoi(values.Get("page"))
	q.Limit, _ = strconv.Atoi(values.Get("limit"))

	if s := values.Get("stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("stock must be an integer")
		}
		q.Filter.Stock = &stock
	}
	return q, nil
}

func newProductsResponse(page *service.ProductPage, q service.ProductQuery, query string) ProductsResponse {
	resp := ProductsResponse{
		Status:      "success",
		Payload:     page.Products,
		TotalPages:  page.TotalPages,
		Page:        page.Page,
		HasPrevPage: page.HasPrevPage,
		HasNextPage: page.HasNextPage,
	}
	if page.HasPrevPage {
		prev := page.PrevPage
		link := pageLink(prev, page.Limit, q.Sort, query)
		resp.PrevPage, resp.PrevLink = &prev, &link
	}
	if page.HasNextPage {
		next := page.NextPage
		link := pageLink(next, page.Limit, q.Sort, query)
		resp.NextPage, resp.NextLink = &next, &link
	}
	return resp
}

func pageLink(page, limit int, sort domain.SortOrder, query string) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if sort != domain.SortNone {
		v.Set("sort", string(sort))
	}
	if query != "" {
		v.Set("query", query)
	}
	return "/products?" + v.Encode()
}

func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
