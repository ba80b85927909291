package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_store/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Code        string             `bson:"code"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Stock       int                `bson:"stock"`
	Category    string             `bson:"category"`
	Thumbnails  []string           `bson:"thumbnail"`
	Status      bool               `bson:"status"`
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection("products"),
	}
}

func (m *mongoProductRepository) FindProductByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc productDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *mongoProductRepository) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (*domain.ProductList, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Stock != nil {
		query["stock"] = *filter.Stock
	}

	total, err := m.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSkip(int64(page.Page-1) * int64(page.Limit)).
		SetLimit(int64(page.Limit))
	switch page.Sort {
	case domain.SortAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}})
	case domain.SortDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}})
	default:
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}

	cursor, err := m.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, len(docs))
	for i, d := range docs {
		products[i] = d.toDomain()
	}
	return &domain.ProductList{Products: products, TotalCount: total}, nil
}

func (m *mongoProductRepository) InsertProduct(ctx context.Context, product *domain.Product) error {
	oid := primitive.NewObjectID()
	doc := productDocument{
		ID:          oid,
		Code:        product.Code,
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Category:    product.Category,
		Thumbnails:  product.Thumbnails,
		Status:      product.Status,
	}
	if doc.Thumbnails == nil {
		doc.Thumbnails = []string{}
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	product.ID = oid.Hex()
	return nil
}

func (m *mongoProductRepository) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if update.Code != nil {
		set["code"] = *update.Code
	}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.Stock != nil {
		set["stock"] = *update.Stock
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Thumbnails != nil {
		set["thumbnail"] = *update.Thumbnails
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *mongoProductRepository) DeleteProduct(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (d productDocument) toDomain() *domain.Product {
	return &domain.Product{
		ID:          d.ID.Hex(),
		Code:        d.Code,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Stock:       d.Stock,
		Category:    d.Category,
		Thumbnails:  d.Thumbnails,
		Status:      d.Status,
	}
}
