package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/fjod/go_store/internal/service"

// DefaultConflictRetries is how many times a mutation is re-applied after
// a concurrent writer bumped the cart version.
const DefaultConflictRetries = 3

// productLookupTimeout bounds a shared catalog read. It runs detached from
// the caller that started it, so it needs a deadline of its own.
const productLookupTimeout = 5 * time.Second

// IDValidator is the store's identifier scheme. It reports whether id is
// valid and returns the canonical form the store keeps.
type IDValidator func(id string) (canonical string, ok bool)

// LineInput is one candidate line of a bulk replace. Quantity holds the
// decoded JSON value and must be numeric.
type LineInput struct {
	ProductID string `json:"productId"`
	Quantity  any    `json:"quantity"`
}

type CartService struct {
	carts      repository.CartRepository
	products   repository.ProductRepository
	validID    IDValidator
	maxRetries int
	log        *zap.SugaredLogger
	tracer     trace.Tracer
	lookups    singleflight.Group // shares in-flight product reads, never caches
}

type Option func(*CartService)

func WithIDValidator(v IDValidator) Option {
	return func(s *CartService) {
		s.validID = v
	}
}

func WithConflictRetries(n int) Option {
	return func(s *CartService) {
		s.maxRetries = n
	}
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, log *zap.SugaredLogger, opts ...Option) *CartService {
	s := &CartService{
		carts:      carts,
		products:   products,
		validID:    repository.CanonicalID,
		maxRetries: DefaultConflictRetries,
		log:        log,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch loads a cart with every line's product resolved. A line whose
// product is gone is returned without product data.
func (s *CartService) Fetch(ctx context.Context, cartID string) (_ *domain.PopulatedCart, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.Fetch", trace.WithAttributes(attribute.String("cart.id", cartID)))
	defer func() { endSpan(span, err) }()

	cart, err := s.fetchRaw(ctx, cartID)
	if err != nil {
		return nil, err
	}

	out := &domain.PopulatedCart{
		ID:        cart.ID,
		Lines:     make([]domain.PopulatedLine, len(cart.Lines)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, line := range cart.Lines {
		out.Lines[i] = domain.PopulatedLine{ProductID: line.ProductID, Quantity: line.Quantity}
		g.Go(func() error {
			product, err := s.lookupProduct(gctx, line.ProductID)
			if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrInvalidIdentifier) {
				s.log.Warnw("cart line references a missing product", "cart_id", cart.ID, "product_id", line.ProductID)
				return nil
			}
			if err != nil {
				return err
			}
			out.Lines[i].Product = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// FetchRaw loads a cart without resolving product references.
func (s *CartService) FetchRaw(ctx context.Context, cartID string) (_ *domain.Cart, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.FetchRaw", trace.WithAttributes(attribute.String("cart.id", cartID)))
	defer func() { endSpan(span, err) }()

	return s.fetchRaw(ctx, cartID)
}

// CreateCart stores a new cart: empty when productID is blank, otherwise
// seeded with one unit of that product.
func (s *CartService) CreateCart(ctx context.Context, productID string) (_ *domain.Cart, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.CreateCart")
	defer func() { endSpan(span, err) }()

	cart := &domain.Cart{Lines: []domain.LineItem{}}
	if strings.TrimSpace(productID) != "" {
		pid, err := s.checkID("product", productID)
		if err != nil {
			return nil, err
		}
		if _, err := s.findProduct(ctx, pid); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, domain.LineItem{ProductID: pid, Quantity: 1})
	}

	if err := s.carts.InsertCart(ctx, cart); err != nil {
		s.log.Errorw("insert cart failed", "error", err)
		return nil, storeError(err)
	}
	return cart, nil
}

// AddLine merges quantity into the product's line, appending a new line
// when the cart does not hold the product yet. Repeated calls accumulate.
// quantity is the raw caller value and must be numeric; identifiers are
// checked first.
func (s *CartService) AddLine(ctx context.Context, cartID, productID string, quantity any) (_ *domain.Cart, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddLine", trace.WithAttributes(
		attribute.String("cart.id", cartID),
		attribute.String("product.id", productID),
	))
	defer func() { endSpan(span, err) }()

	cid, err := s.checkID("cart", cartID)
	if err != nil {
		return nil, err
	}
	pid, err := s.checkID("product", productID)
	if err != nil {
		return nil, err
	}
	q, err := NumericQuantity(quantity)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("quantity", q))

	return s.update(ctx, cid, nil, func(cart *domain.Cart) error {
		if i := findLine(cart.Lines, pid); i >= 0 {
			if cart.Lines[i].Quantity > MaxQuantity-q {
				return fmt.Errorf("%w: line would exceed %d", ErrInvalidQuantity, MaxQuantity)
			}
			cart.Lines[i].Quantity += q
			return nil
		}
		if _, err := s.findProduct(ctx, pid); err != nil {
			return err
		}
		cart.Lines = append(cart.Lines, domain.LineItem{ProductID: pid, Quantity: q})
		return nil
	})
}

// RemoveLine drops the product's line and keeps the order of the rest.
func (s *CartService) RemoveLine(ctx context.Context, cartID, productID string) (_ *domain.Cart, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveLine", trace.WithAttributes(
		attribute.String("cart.id", cartID),
		attribute.String("product.id", productID),
	))
	defer func() { endSpan(span, err) }()

	cid, err := s.checkID("cart", cartID)
	if err != nil {
		return nil, err
	}
	pid, err := s.checkID("product", productID)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, cid, nil, func(cart *domain.Cart) error {
		i := findLine(cart.Lines, pid)
		if i < 0 {
			return fmt.Errorf("%w in cart %s", ErrProductNotFound, cid)
		}
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
		return nil
	})
}

// ClearLines empties the cart. The cart itself is kept.
func (s *CartService) ClearLines(ctx context.Context, cartID string) (_ *domain.Cart, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.ClearLines", trace.WithAttributes(attribute.String("cart.id", cartID)))
	defer func() { endSpan(span, err) }()

	cid, err := s.checkID("cart", cartID)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, cid, nil, func(cart *domain.Cart) error {
		cart.Lines = []domain.LineItem{}
		return nil
	})
}

// SetLineQuantity overwrites the quantity of an existing line. quantity is
// the raw caller value; it is parsed before the store is touched.
func (s *CartService) SetLineQuantity(ctx context.Context, cartID, productID string, quantity any) (_ *domain.Cart, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.SetLineQuantity", trace.WithAttributes(
		attribute.String("cart.id", cartID),
		attribute.String("product.id", productID),
	))
	defer func() { endSpan(span, err) }()

	cid, err := s.checkID("cart", cartID)
	if err != nil {
		return nil, err
	}
	q, err := ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}
	pid, err := s.checkID("product", productID)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, cid, nil, func(cart *domain.Cart) error {
		i := findLine(cart.Lines, pid)
		if i < 0 {
			return fmt.Errorf("%w in cart %s", ErrProductNotFound, cid)
		}
		cart.Lines[i].Quantity = q
		return nil
	})
}

// ReplaceAllLines swaps the cart's lines for lines. Every line is checked
// concurrently; a single failure rejects the whole payload and leaves the
// cart untouched.
func (s *CartService) ReplaceAllLines(ctx context.Context, cartID string, lines []LineInput) (_ *domain.Cart, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.ReplaceAllLines", trace.WithAttributes(
		attribute.String("cart.id", cartID),
		attribute.Int("lines", len(lines)),
	))
	defer func() { endSpan(span, err) }()

	cid, err := s.checkID("cart", cartID)
	if err != nil {
		return nil, err
	}
	cart, err := s.fetchRaw(ctx, cid)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no products", ErrInvalidPayload)
	}

	replacement, err := s.validateLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, cid, cart, func(cart *domain.Cart) error {
		cart.Lines = replacement
		return nil
	})
}

func (s *CartService) validateLines(ctx context.Context, lines []LineInput) ([]domain.LineItem, error) {
	out := make([]domain.LineItem, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for i, line := range lines {
		pid, ok := s.validID(normalizeID(line.ProductID))
		if !ok {
			return nil, fmt.Errorf("%w: line %d", ErrInvalidPayload, i)
		}
		if _, dup := seen[pid]; dup {
			return nil, fmt.Errorf("%w: line %d repeats product %s", ErrInvalidPayload, i, pid)
		}
		seen[pid] = struct{}{}
		out[i].ProductID = pid
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		g.Go(func() error {
			q, err := NumericQuantity(line.Quantity)
			if err != nil {
				return fmt.Errorf("%w: line %d", ErrInvalidPayload, i)
			}
			out[i].Quantity = q

			_, err = s.findProduct(gctx, out[i].ProductID)
			if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrInvalidIdentifier) {
				return fmt.Errorf("%w: line %d", ErrInvalidPayload, i)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// update reads the cart (unless already loaded), applies fn and writes the
// whole document back. A version conflict re-reads and re-applies.
func (s *CartService) update(ctx context.Context, cartID string, loaded *domain.Cart, fn func(cart *domain.Cart) error) (*domain.Cart, error) {
	for attempt := 0; ; attempt++ {
		cart := loaded
		loaded = nil
		if cart == nil {
			var err error
			cart, err = s.fetchRaw(ctx, cartID)
			if err != nil {
				return nil, err
			}
		}

		if err := fn(cart); err != nil {
			return nil, err
		}

		err := s.carts.SaveCart(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			s.log.Errorw("save cart failed", "cart_id", cartID, "error", err)
			return nil, storeError(err)
		}
		if attempt >= s.maxRetries {
			s.log.Warnw("giving up on conflicting cart update", "cart_id", cartID, "attempts", attempt+1)
			return nil, ErrConflict
		}
		s.log.Debugw("cart version conflict, retrying", "cart_id", cartID, "attempt", attempt+1)
	}
}

func (s *CartService) fetchRaw(ctx context.Context, cartID string) (*domain.Cart, error) {
	cid, err := s.checkID("cart", cartID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.FindCartByID(ctx, cid)
	if err != nil {
		if !errors.Is(err, repository.ErrCartNotFound) {
			s.log.Errorw("load cart failed", "cart_id", cid, "error", err)
		}
		return nil, storeError(err)
	}
	return cart, nil
}

func (s *CartService) findProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.products.FindProductByID(ctx, productID)
	if err != nil {
		return nil, storeError(err)
	}
	return product, nil
}

// lookupProduct collapses concurrent reads of the same product. The shared
// read belongs to no single caller: a caller that gives up only stops
// waiting for it.
func (s *CartService) lookupProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ch := s.lookups.DoChan(productID, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), productLookupTimeout)
		defer cancel()
		return s.findProduct(lctx, productID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		product := *res.Val.(*domain.Product)
		return &product, nil
	}
}

func (s *CartService) checkID(kind, id string) (string, error) {
	n, ok := s.validID(normalizeID(id))
	if !ok {
		return "", fmt.Errorf("%w: %s id %q", ErrInvalidIdentifier, kind, id)
	}
	return n, nil
}

func findLine(lines []domain.LineItem, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// normalizeID strips transport whitespace. Anything beyond that is up to
// the identifier scheme.
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
