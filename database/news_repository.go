package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groceteria/models"
)

// NewsRepository persists news articles.
type NewsRepository struct {
	collection *mongo.Collection
}

func NewNewsRepository(db *mongo.Database) *NewsRepository {
	return &NewsRepository{collection: db.Collection("news")}
}

func (r *NewsRepository) Insert(ctx context.Context, news *models.News) error {
	now := time.Now()
	news.CreatedAt = now
	news.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, news)
	if err != nil {
		return err
	}
	news.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *NewsRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	var news models.News
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&news)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &news, nil
}

func (r *NewsRepository) FindAll(ctx context.Context) ([]models.News, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.News{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *NewsRepository) Update(ctx context.Context, news *models.News) error {
	news.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": news.ID}, news)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NewsRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
