package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_store/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func newTestProductService(repo *mockProductRepository) *ProductService {
	return NewProductService(repo, zap.NewNop().Sugar(), anyID)
}

func TestProductList_Pagination(t *testing.T) {
	repo := newMockProductRepository()
	repo.list = &domain.ProductList{
		Products:   []*domain.Product{{ID: "p1"}, {ID: "p2"}},
		TotalCount: 25,
	}
	sut := newTestProductService(repo)

	page, err := sut.List(context.Background(), ProductQuery{Page: 2, Sort: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, domain.PageRequest{Page: 2, Limit: DefaultPageLimit, Sort: domain.SortDesc}, repo.listReq)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasPrevPage)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, 1, page.PrevPage)
	assert.Equal(t, 3, page.NextPage)
	assert.Len(t, page.Products, 2)
}

func TestProductList_Defaults(t *testing.T) {
	repo := newMockProductRepository()
	repo.list = &domain.ProductList{}
	sut := newTestProductService(repo)

	page, err := sut.List(context.Background(), ProductQuery{Page: -1, Limit: 1000, Sort: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, domain.PageRequest{Page: 1, Limit: MaxPageLimit, Sort: domain.SortNone}, repo.listReq)
	assert.False(t, page.HasPrevPage)
	assert.False(t, page.HasNextPage)
	assert.NotNil(t, page.Products)
}

func TestProductCreate_Validates(t *testing.T) {
	sut := newTestProductService(newMockProductRepository())

	_, err := sut.Create(context.Background(), NewProduct{Title: "Lamp", Price: ptr(-1.0)})
	require.ErrorIs(t, err, ErrInvalidProduct)
	assert.Contains(t, err.Error(), "code is required")
	assert.Contains(t, err.Error(), "price must be a non-negative number")
	assert.Contains(t, err.Error(), "stock is required")
}

func TestProductCreate_Success(t *testing.T) {
	repo := newMockProductRepository()
	sut := newTestProductService(repo)

	p, err := sut.Create(context.Background(), NewProduct{
		Code: "L-1", Title: " Lamp ", Description: "desk lamp", Category: "home",
		Price: ptr(12.5), Stock: ptr(3),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Lamp", p.Title)
	assert.True(t, p.Status, "status defaults to true")

	_, err = sut.Create(context.Background(), NewProduct{
		Code: "L-1", Title: "Other", Description: "d", Category: "c", Price: ptr(1.0), Stock: ptr(1),
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestProductUpdate_ExplicitFieldsOnly(t *testing.T) {
	repo := newMockProductRepository("p1")
	sut := newTestProductService(repo)

	_, err := sut.Update(context.Background(), "p1", domain.ProductUpdate{})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = sut.Update(context.Background(), "p1", domain.ProductUpdate{Price: ptr(-5.0)})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = sut.Update(context.Background(), "p1", domain.ProductUpdate{Title: ptr("   ")})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	p, err := sut.Update(context.Background(), "p1", domain.ProductUpdate{Price: ptr(99.0), Title: ptr(" New ")})
	require.NoError(t, err)
	assert.Equal(t, 99.0, p.Price)
	assert.Equal(t, "New", p.Title)
	assert.Nil(t, repo.updated["p1"].Stock)
}

func TestProductGetAndDelete(t *testing.T) {
	repo := newMockProductRepository("p1")
	sut := newTestProductService(repo)

	p, err := sut.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	require.NoError(t, sut.Delete(context.Background(), "p1"))
	_, err = sut.Get(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, sut.Delete(context.Background(), "p1"), ErrProductNotFound)

	_, err = NewProductService(repo, zap.NewNop().Sugar(), nil).Get(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestProductList_StoreError(t *testing.T) {
	repo := newMockProductRepository()
	repo.err = errors.New("timeout")
	sut := newTestProductService(repo)

	_, err := sut.List(context.Background(), ProductQuery{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestProductList_RejectsPageBeyondRange(t *testing.T) {
	repo := newMockProductRepository()
	repo.list = &domain.ProductList{}
	sut := newTestProductService(repo)

	_, err := sut.List(context.Background(), ProductQuery{Page: 92233720368547758, Limit: MaxPageLimit})
	require.ErrorIs(t, err, ErrInvalidQuery)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
	assert.Zero(t, repo.listReq, "an out of range page must not reach the store")

	_, err = sut.List(context.Background(), ProductQuery{Page: MaxPage, Limit: MaxPageLimit})
	require.NoError(t, err)
	assert.Equal(t, MaxPage, repo.listReq.Page)
}

func TestProductValidation_ReportsFieldsInCheckOrder(t *testing.T) {
	sut := newTestProductService(newMockProductRepository("p1"))

	for range 20 {
		_, err := sut.Create(context.Background(), NewProduct{})
		require.ErrorIs(t, err, ErrInvalidProduct)
		assert.Equal(t, "invalid product: code is required; title is required; description is required; "+
			"category is required; price is required; stock is required", err.Error())

		_, err = sut.Update(context.Background(), "p1", domain.ProductUpdate{
			Category: ptr(" "),
			Title:    ptr(""),
			Code:     ptr("\t"),
		})
		require.ErrorIs(t, err, ErrInvalidProduct)
		assert.Equal(t, "invalid product: code must not be empty; title must not be empty; category must not be empty", err.Error())
	}
}
