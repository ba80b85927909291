package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage keeps the skip offset well inside int64 at any limit.
	MaxPage = 1_000_000
)

type ProductQuery struct {
	Page   int
	Limit  int
	Sort   domain.SortOrder
	Filter domain.ProductFilter
}

type ProductPage struct {
	Products    []*domain.Product
	TotalPages  int
	Page        int
	Limit       int
	PrevPage    int // 0 when there is none
	NextPage    int // 0 when there is none
	HasPrevPage bool
	HasNextPage bool
}

// NewProduct is a create request. Pointers distinguish a missing number
// from zero.
type NewProduct struct {
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Category    string   `json:"category"`
	Thumbnails  []string `json:"thumbnail"`
	Status      *bool    `json:"status"`
}

type ProductService struct {
	repo    repository.ProductRepository
	validID IDValidator
	log     *zap.SugaredLogger
}

func NewProductService(repo repository.ProductRepository, log *zap.SugaredLogger, validID IDValidator) *ProductService {
	if validID == nil {
		validID = repository.CanonicalID
	}
	return &ProductService{repo: repo, validID: validID, log: log}
}

func (s *ProductService) List(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		return nil, fmt.Errorf("%w: page must not exceed %d", ErrInvalidQuery, MaxPage)
	}
	switch q.Sort {
	case domain.SortNone, domain.SortAsc, domain.SortDesc:
	default:
		q.Sort = domain.SortNone
	}

	list, err := s.repo.ListProducts(ctx, q.Filter, domain.PageRequest{Page: q.Page, Limit: q.Limit, Sort: q.Sort})
	if err != nil {
		s.log.Errorw("list products failed", "error", err)
		return nil, storeError(err)
	}

	totalPages := int(math.Ceil(float64(list.TotalCount) / float64(q.Limit)))
	page := &ProductPage{
		Products:    list.Products,
		TotalPages:  totalPages,
		Page:        q.Page,
		Limit:       q.Limit,
		HasPrevPage: q.Page > 1,
		HasNextPage: q.Page < totalPages,
	}
	if page.Products == nil {
		page.Products = []*domain.Product{}
	}
	if page.HasPrevPage {
		page.PrevPage = q.Page - 1
	}
	if page.HasNextPage {
		page.NextPage = q.Page + 1
	}
	return page, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	pid, err := s.checkID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindProductByID(ctx, pid)
	if err != nil {
		return nil, storeError(err)
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, in NewProduct) (*domain.Product, error) {
	var problems []string
	product := &domain.Product{
		Code:        strings.TrimSpace(in.Code),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Thumbnails:  in.Thumbnails,
		Status:      true,
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"code", product.Code},
		{"title", product.Title},
		{"description", product.Description},
		{"category", product.Category},
	} {
		if f.value == "" {
			problems = append(problems, f.name+" is required")
		}
	}
	if in.Price == nil {
		problems = append(problems, "price is required")
	} else if err := checkPrice(*in.Price); err != nil {
		problems = append(problems, err.Error())
	} else {
		product.Price = *in.Price
	}
	if in.Stock == nil {
		problems = append(problems, "stock is required")
	} else if *in.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	} else {
		product.Stock = *in.Stock
	}
	if in.Status != nil {
		product.Status = *in.Status
	}
	if err := checkThumbnails(in.Thumbnails); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return nil, invalidProduct(problems)
	}

	if err := s.repo.InsertProduct(ctx, product); err != nil {
		if !errors.Is(err, ErrDuplicateCode) {
			s.log.Errorw("insert product failed", "code", product.Code, "error", err)
		}
		return nil, storeError(err)
	}
	return product, nil
}

// Update applies the enumerated fields of update. Unset fields are kept.
func (s *ProductService) Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	pid, err := s.checkID(id)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, fmt.Errorf("%w: no updatable fields given", ErrInvalidProduct)
	}

	var problems []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"code", update.Code},
		{"title", update.Title},
		{"description", update.Description},
		{"category", update.Category},
	} {
		if f.value == nil {
			continue
		}
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			problems = append(problems, f.name+" must not be empty")
		}
	}
	if update.Price != nil {
		if err := checkPrice(*update.Price); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if update.Stock != nil && *update.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if update.Thumbnails != nil {
		if err := checkThumbnails(*update.Thumbnails); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return nil, invalidProduct(problems)
	}

	product, err := s.repo.UpdateProduct(ctx, pid, update)
	if err != nil {
		return nil, storeError(err)
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	pid, err := s.checkID(id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, pid); err != nil {
		return storeError(err)
	}
	return nil
}

func (s *ProductService) checkID(id string) (string, error) {
	n, ok := s.validID(normalizeID(id))
	if !ok {
		return "", fmt.Errorf("%w: product id %q", ErrInvalidIdentifier, id)
	}
	return n, nil
}

func checkPrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return errors.New("price must be a non-negative number")
	}
	return nil
}

func checkThumbnails(thumbs []string) error {
	for _, t := range thumbs {
		if strings.TrimSpace(t) == "" {
			return errors.New("thumbnail entries must not be empty")
		}
	}
	return nil
}

// invalidProduct reports problems in the order the fields were checked.
func invalidProduct(problems []string) error {
	return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(problems, "; "))
}
