package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_store/internal/circuitbreaker"
	"github.com/fjod/go_store/internal/domain"
)

// guardedProductRepository sends catalog calls through a circuit breaker.
// Not-found and validation results count as healthy responses.
type guardedProductRepository struct {
	inner   ProductRepository
	breaker *circuitbreaker.Breaker
}

func NewGuardedProductRepository(inner ProductRepository, breaker *circuitbreaker.Breaker) ProductRepository {
	return &guardedProductRepository{inner: inner, breaker: breaker}
}

// IsExpectedError reports store errors that describe the request, not the
// health of the backend.
func IsExpectedError(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrDuplicateCode) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, context.Canceled)
}

func (g *guardedProductRepository) FindProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return circuitbreaker.Execute(g.breaker, func() (*domain.Product, error) {
		return g.inner.FindProductByID(ctx, id)
	})
}

func (g *guardedProductRepository) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (*domain.ProductList, error) {
	return circuitbreaker.Execute(g.breaker, func() (*domain.ProductList, error) {
		return g.inner.ListProducts(ctx, filter, page)
	})
}

func (g *guardedProductRepository) InsertProduct(ctx context.Context, product *domain.Product) error {
	_, err := circuitbreaker.Execute(g.breaker, func() (struct{}, error) {
		return struct{}{}, g.inner.InsertProduct(ctx, product)
	})
	return err
}

func (g *guardedProductRepository) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	return circuitbreaker.Execute(g.breaker, func() (*domain.Product, error) {
		return g.inner.UpdateProduct(ctx, id, update)
	})
}

func (g *guardedProductRepository) DeleteProduct(ctx context.Context, id string) error {
	_, err := circuitbreaker.Execute(g.breaker, func() (struct{}, error) {
		return struct{}{}, g.inner.DeleteProduct(ctx, id)
	})
	return err
}
