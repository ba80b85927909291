package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_store/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Products  []lineDocument     `bson:"products"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type lineDocument struct {
	ProductID primitive.ObjectID `bson:"productId"`
	Quantity  int                `bson:"quantity"`
}

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoCartRepository) FindCartByID(ctx context.Context, id string) (*domain.Cart, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc cartDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.toDomain(), nil
}

func (m *mongoCartRepository) InsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	if cart.ID == "" {
		cart.ID = primitive.NewObjectID().Hex()
	}
	cart.CreatedAt = now
	cart.UpdatedAt = now
	cart.Version = 1

	doc, err := newCartDocument(cart)
	if err != nil {
		return err
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert cart: %w", err)
	}
	return nil
}

// SaveCart replaces the whole document. A cart read from the store carries
// a version; the replace only matches while the stored version is unchanged
// and bumps it on success. Version zero means an unversioned upsert.
func (m *mongoCartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}

	next := *cart
	next.Version = cart.Version + 1
	next.UpdatedAt = now

	doc, err := newCartDocument(&next)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": doc.ID}
	opts := options.Replace()
	if cart.Version == 0 {
		opts.SetUpsert(true)
	} else {
		filter["version"] = cart.Version
	}

	result, err := m.collection.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return ErrVersionConflict
	}

	cart.Version = next.Version
	cart.UpdatedAt = next.UpdatedAt
	return nil
}

func newCartDocument(cart *domain.Cart) (*cartDocument, error) {
	oid, err := objectID(cart.ID)
	if err != nil {
		return nil, err
	}

	doc := &cartDocument{
		ID:        oid,
		Products:  make([]lineDocument, len(cart.Lines)),
		Version:   cart.Version,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for i, line := range cart.Lines {
		pid, err := objectID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		doc.Products[i] = lineDocument{ProductID: pid, Quantity: line.Quantity}
	}
	return doc, nil
}

func (d cartDocument) toDomain() *domain.Cart {
	cart := &domain.Cart{
		ID:        d.ID.Hex(),
		Lines:     make([]domain.LineItem, len(d.Products)),
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for i, p := range d.Products {
		cart.Lines[i] = domain.LineItem{ProductID: p.ProductID.Hex(), Quantity: p.Quantity}
	}
	return cart
}
