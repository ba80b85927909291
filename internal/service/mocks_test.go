package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/repository"
)

// anyID accepts the short identifiers used across these tests as they are.
func anyID(id string) (string, bool) { return id, id != "" }

type mockCartRepository struct {
	m         sync.Mutex
	carts     map[string]*domain.Cart
	reads     int
	saves     int
	conflicts int // next SaveCart calls that lose to a concurrent writer
	err       error
	saveErr   error
}

func newMockCartRepository(carts ...*domain.Cart) *mockCartRepository {
	r := &mockCartRepository{carts: map[string]*domain.Cart{}}
	for _, c := range carts {
		if c.Version == 0 {
			c.Version = 1
		}
		r.carts[c.ID] = c.Clone()
	}
	return r
}

func (m *mockCartRepository) FindCartByID(_ context.Context, id string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (m *mockCartRepository) InsertCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if cart.ID == "" {
		cart.ID = fmt.Sprintf("cart%d", len(m.carts)+1)
	}
	cart.Version = 1
	m.carts[cart.ID] = cart.Clone()
	return nil
}

func (m *mockCartRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	stored, ok := m.carts[cart.ID]
	if m.conflicts > 0 && ok {
		m.conflicts--
		stored.Version++
		return repository.ErrVersionConflict
	}
	if ok && stored.Version != cart.Version {
		return repository.ErrVersionConflict
	}
	cart.Version++
	m.carts[cart.ID] = cart.Clone()
	return nil
}

func (m *mockCartRepository) lines(id string) []domain.LineItem {
	m.m.Lock()
	defer m.m.Unlock()
	return m.carts[id].Clone().Lines
}

func (m *mockCartRepository) counts() (reads, saves int) {
	m.m.Lock()
	defer m.m.Unlock()
	return m.reads, m.saves
}

type mockProductRepository struct {
	m        sync.Mutex
	products map[string]*domain.Product
	reads    int
	err      error
	inserted []*domain.Product
	updated  map[string]domain.ProductUpdate
	list     *domain.ProductList
	listReq  domain.PageRequest
}

func newMockProductRepository(ids ...string) *mockProductRepository {
	r := &mockProductRepository{products: map[string]*domain.Product{}, updated: map[string]domain.ProductUpdate{}}
	for i, id := range ids {
		r.products[id] = &domain.Product{ID: id, Code: "code-" + id, Title: "Product " + id, Price: float64(10 * (i + 1)), Stock: 5, Status: true}
	}
	return r
}

func (m *mockProductRepository) FindProductByID(_ context.Context, id string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) ListProducts(_ context.Context, _ domain.ProductFilter, page domain.PageRequest) (*domain.ProductList, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.listReq = page
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockProductRepository) InsertProduct(_ context.Context, product *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, p := range m.products {
		if p.Code == product.Code {
			return repository.ErrDuplicateCode
		}
	}
	product.ID = fmt.Sprintf("p%d", len(m.products)+1)
	m.products[product.ID] = product
	m.inserted = append(m.inserted, product)
	return nil
}

func (m *mockProductRepository) UpdateProduct(_ context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	m.updated[id] = update
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Title != nil {
		p.Title = *update.Title
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) DeleteProduct(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) productReads() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.reads
}

// gatedProductRepository holds every product read until release is closed
// or the read's context ends. entered fires once a read is waiting.
type gatedProductRepository struct {
	*mockProductRepository
	entered chan struct{}
	release chan struct{}
}

func newGatedProductRepository(ids ...string) *gatedProductRepository {
	return &gatedProductRepository{
		mockProductRepository: newMockProductRepository(ids...),
		entered:               make(chan struct{}, 1),
		release:               make(chan struct{}),
	}
}

func (g *gatedProductRepository) FindProductByID(ctx context.Context, id string) (*domain.Product, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.mockProductRepository.FindProductByID(ctx, id)
}

type mockUserRepository struct {
	m     sync.Mutex
	users map[string]*domain.User
	err   error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[string]*domain.User{}}
}

func (m *mockUserRepository) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) InsertUser(_ context.Context, user *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = fmt.Sprintf("u%d", len(m.users)+1)
	m.users[user.Email] = user
	return nil
}
