package http

import (
	"context"
	"sync"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/service"
	"github.com/fjod/go_store/internal/session"
)

const (
	testCartID    = "64b7f0c2a1b2c3d4e5f60718"
	testProductID = "64b7f0c2a1b2c3d4e5f60719"
)

// cartServiceMock records the arguments of the last call and returns cart or err.
type cartServiceMock struct {
	mu        sync.Mutex
	cart      *domain.Cart
	populated *domain.PopulatedCart
	err       error

	cartID    string
	productID string
	quantity  any
	lines     []service.LineInput
	calls     []string
}

func (m *cartServiceMock) record(op, cartID, productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	m.cartID = cartID
	m.productID = productID
}

func (m *cartServiceMock) result() (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *cartServiceMock) Fetch(_ context.Context, cartID string) (*domain.PopulatedCart, error) {
	m.record("Fetch", cartID, "")
	if m.err != nil {
		return nil, m.err
	}
	return m.populated, nil
}

func (m *cartServiceMock) CreateCart(_ context.Context, productID string) (*domain.Cart, error) {
	m.record("CreateCart", "", productID)
	return m.result()
}

func (m *cartServiceMock) AddLine(_ context.Context, cartID, productID string, quantity any) (*domain.Cart, error) {
	m.record("AddLine", cartID, productID)
	m.quantity = quantity
	return m.result()
}

func (m *cartServiceMock) RemoveLine(_ context.Context, cartID, productID string) (*domain.Cart, error) {
	m.record("RemoveLine", cartID, productID)
	return m.result()
}

func (m *cartServiceMock) ClearLines(_ context.Context, cartID string) (*domain.Cart, error) {
	m.record("ClearLines", cartID, "")
	return m.result()
}

func (m *cartServiceMock) SetLineQuantity(_ context.Context, cartID, productID string, quantity any) (*domain.Cart, error) {
	m.record("SetLineQuantity", cartID, productID)
	m.quantity = quantity
	return m.result()
}

func (m *cartServiceMock) ReplaceAllLines(_ context.Context, cartID string, lines []service.LineInput) (*domain.Cart, error) {
	m.record("ReplaceAllLines", cartID, "")
	m.lines = lines
	return m.result()
}

type productServiceMock struct {
	page    *service.ProductPage
	product *domain.Product
	err     error

	query     service.ProductQuery
	created   service.NewProduct
	update    domain.ProductUpdate
	deletedID string
}

func (m *productServiceMock) List(_ context.Context, q service.ProductQuery) (*service.ProductPage, error) {
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *productServiceMock) Get(_ context.Context, _ string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *productServiceMock) Create(_ context.Context, in service.NewProduct) (*domain.Product, error) {
	m.created = in
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *productServiceMock) Update(_ context.Context, _ string, update domain.ProductUpdate) (*domain.Product, error) {
	m.update = update
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *productServiceMock) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

type userServiceMock struct {
	user *domain.User
	err  error

	registered service.Registration
}

func (m *userServiceMock) Register(_ context.Context, reg service.Registration) (*domain.User, error) {
	m.registered = reg
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *userServiceMock) Authenticate(_ context.Context, email, password string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.Email != email || password != "secret1" {
		return nil, service.ErrInvalidCredentials
	}
	return m.user, nil
}

type sessionStoreMock struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	err      error
}

func newSessionStoreMock() *sessionStoreMock {
	return &sessionStoreMock{sessions: make(map[string]*domain.Session)}
}

func (m *sessionStoreMock) Create(_ context.Context, user *domain.User) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s := &domain.Session{Token: "token-" + user.ID, UserID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role, CartID: user.CartID}
	m.sessions[s.Token] = s
	return s, nil
}

func (m *sessionStoreMock) Get(_ context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[token]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}

func (m *sessionStoreMock) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return m.err
}
