package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_store/internal/repository"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidPayload    = errors.New("invalid cart payload")
	ErrConflict          = errors.New("cart was modified concurrently, retry the request")
	ErrStoreUnavailable  = errors.New("store unavailable")

	ErrCartNotFound    = repository.ErrCartNotFound
	ErrProductNotFound = repository.ErrProductNotFound
	ErrDuplicateCode   = repository.ErrDuplicateCode

	ErrInvalidProduct      = errors.New("invalid product")
	ErrInvalidQuery        = errors.New("invalid product query")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrEmailTaken          = repository.ErrEmailTaken
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// storeError keeps request-shaped repository errors as they are and marks
// everything else as a store failure, keeping the cause in the chain.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, repository.ErrInvalidID):
		return fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
	case repository.IsExpectedError(err):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
