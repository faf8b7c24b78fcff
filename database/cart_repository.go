package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"groceteria/models"
)

// CartRepository persists carts, one document per user.
type CartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection("carts")}
}

// GetByUser returns the user's cart, or ErrNotFound when they have none.
func (r *CartRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := r.collection.FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Insert creates a new cart for a user. The unique index on user rejects a
// second concurrent create.
func (r *CartRepository) Insert(ctx context.Context, cart *models.Cart) error {
	cart.Version = 1
	res, err := r.collection.InsertOne(ctx, cart)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	cart.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Update replaces the cart conditional on the version it was read at.
// A concurrent mutation bumps the version and this write returns
// ErrConflict instead of silently losing the other update.
func (r *CartRepository) Update(ctx context.Context, cart *models.Cart) error {
	readVersion := cart.Version
	cart.Version++
	res, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": cart.ID, "version": readVersion},
		cart,
	)
	if err != nil {
		cart.Version = readVersion
		return err
	}
	if res.MatchedCount == 0 {
		cart.Version = readVersion
		return ErrConflict
	}
	return nil
}

// DeleteByUser removes the user's cart document entirely.
func (r *CartRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
