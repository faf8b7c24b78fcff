package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"groceteria/models"
)

// ReviewRepository persists product reviews.
type ReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{collection: db.Collection("reviews")}
}

// Insert creates a review. The unique (product, user) index rejects a
// second review from the same user with ErrConflict.
func (r *ReviewRepository) Insert(ctx context.Context, review *models.Review) error {
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	review.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"product": productID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AddReply appends a reply under a review.
func (r *ReviewRepository) AddReply(ctx context.Context, reviewID primitive.ObjectID, reply models.Reply) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": reviewID}, bson.M{
		"$push": bson.M{"replies": reply},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
