package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/service"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	CheckoutTopic = "checkout-completed"
	consumerGroup = "store-cart-consumer"
)

// CartClearer empties a cart once its checkout completed.
type CartClearer interface {
	ClearLines(ctx context.Context, cartID string) (*domain.Cart, error)
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type CheckoutCompletedEvent struct {
	CheckoutID string `json:"checkout_id"`
	CartID     string `json:"cart_id"`
	UserID     string `json:"user_id"`
}

type Poller struct {
	carts  CartClearer
	reader MessageReader
	log    *zap.SugaredLogger
}

func NewPoller(carts CartClearer, log *zap.SugaredLogger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    CheckoutTopic,
		GroupID:  consumerGroup,
		MaxBytes: 10e6, // 10MB
	})
	return NewPollerWithReader(carts, reader, log)
}

func NewPollerWithReader(carts CartClearer, reader MessageReader, log *zap.SugaredLogger) *Poller {
	return &Poller{carts: carts, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.clearCheckedOutCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Errorw("error closing kafka reader", "error", err)
	}
}

func (p *Poller) clearCheckedOutCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Errorw("error reading message", "error", err)
		}
		return
	}

	event, err := decodeEvent(m.Value)
	if err != nil {
		p.log.Warnw("skipping checkout event", "offset", m.Offset, "error", err)
		return
	}

	_, err = p.carts.ClearLines(ctx, event.CartID)
	switch {
	case err == nil:
		p.log.Infow("cart cleared after checkout", "cart_id", event.CartID, "checkout_id", event.CheckoutID)
	case errors.Is(err, service.ErrCartNotFound), errors.Is(err, service.ErrInvalidIdentifier):
		p.log.Warnw("checkout event references an unknown cart", "cart_id", event.CartID, "error", err)
	default:
		p.log.Errorw("failed to clear cart", "cart_id", event.CartID, "error", err)
	}
}

func decodeEvent(value []byte) (*CheckoutCompletedEvent, error) {
	var event CheckoutCompletedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}
	if event.CartID == "" {
		return nil, errors.New("missing cart_id")
	}
	return &event, nil
}
