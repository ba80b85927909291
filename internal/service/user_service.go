package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt input limit
)

// CartCreator creates the cart every new user owns.
type CartCreator interface {
	CreateCart(ctx context.Context, productID string) (*domain.Cart, error)
}

type Registration struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Role     string `json:"typeofuser"`
}

type UserService struct {
	users    repository.UserRepository
	carts    CartCreator
	hashCost int
	log      *zap.SugaredLogger
}

func NewUserService(users repository.UserRepository, carts CartCreator, log *zap.SugaredLogger) *UserService {
	return &UserService{
		users:    users,
		carts:    carts,
		hashCost: bcrypt.DefaultCost,
		log:      log,
	}
}

// WithHashCost changes the bcrypt cost; tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

// Register validates reg, creates the user's empty cart and stores the user.
func (s *UserService) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidRegistration)
	}
	if strings.TrimSpace(reg.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	}
	if len(reg.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidRegistration, minPasswordLength)
	}
	if len(reg.Password) > maxPasswordLength {
		return nil, fmt.Errorf("%w: password must have at most %d bytes", ErrInvalidRegistration, maxPasswordLength)
	}
	if reg.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", ErrInvalidRegistration)
	}
	role := strings.ToLower(strings.TrimSpace(reg.Role))
	switch role {
	case "":
		role = domain.RoleUser
	case domain.RoleUser, domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown user type %q", ErrInvalidRegistration, reg.Role)
	}

	_, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, storeError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cart, err := s.carts.CreateCart(ctx, "")
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(reg.Name),
		LastName:     strings.TrimSpace(reg.LastName),
		Email:        email,
		PasswordHash: string(hash),
		Age:          reg.Age,
		Role:         role,
		CartID:       cart.ID,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		s.log.Warnw("user insert failed after cart creation", "cart_id", cart.ID, "error", err)
		return nil, storeError(err)
	}

	s.log.Infow("user registered", "user_id", user.ID, "cart_id", cart.ID)
	return user, nil
}

// Authenticate returns the user owning email when password matches.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
