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
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	LastName     string             `bson:"last_name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Age          int                `bson:"age"`
	Role         string             `bson:"typeofuser"`
	CartID       primitive.ObjectID `bson:"cartId"`
	CreatedAt    time.Time          `bson:"created_at"`
}

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		collection: db.Collection("users"),
	}
}

func (m *mongoUserRepository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *mongoUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.findOne(ctx, bson.M{"email": email})
}

func (m *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *mongoUserRepository) InsertUser(ctx context.Context, user *domain.User) error {
	cartID, err := objectID(user.CartID)
	if err != nil {
		return fmt.Errorf("cart id: %w", err)
	}

	oid := primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	doc := userDocument{
		ID:           oid,
		Name:         user.Name,
		LastName:     user.LastName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Age:          user.Age,
		Role:         user.Role,
		CartID:       cartID,
		CreatedAt:    user.CreatedAt,
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = oid.Hex()
	return nil
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Age:          d.Age,
		Role:         d.Role,
		CartID:       d.CartID.Hex(),
		CreatedAt:    d.CreatedAt,
	}
}
