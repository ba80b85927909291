package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_store/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrVersionConflict = errors.New("cart was modified concurrently")
	ErrDuplicateCode   = errors.New("product code already exists")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidID       = errors.New("invalid object id")
)

// CartRepository stores whole cart documents. SaveCart never patches
// individual lines.
type CartRepository interface {
	FindCartByID(ctx context.Context, id string) (*domain.Cart, error)
	InsertCart(ctx context.Context, cart *domain.Cart) error
	SaveCart(ctx context.Context, cart *domain.Cart) error
}

type ProductRepository interface {
	FindProductByID(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (*domain.ProductList, error)
	InsertProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type UserRepository interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	InsertUser(ctx context.Context, user *domain.User) error
}

// IsValidID is the identifier predicate of this store.
func IsValidID(id string) bool {
	_, ok := CanonicalID(id)
	return ok
}

// CanonicalID validates id as an ObjectID and returns its lowercase hex.
func CanonicalID(id string) (string, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", false
	}
	return oid.Hex(), true
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}
