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

// PaymentRepository persists pending gateway payments. The PayPal flow
// needs the local record to find the buyer's correlation data at capture
// time; Stripe carries the same data in session metadata instead.
type PaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{collection: db.Collection("payments")}
}

func (r *PaymentRepository) Insert(ctx context.Context, payment *models.Payment) error {
	payment.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		return err
	}
	payment.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *PaymentRepository) FindByRemoteOrderID(ctx context.Context, remoteOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"remote_order_id": remoteOrderID}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) MarkCaptured(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": models.PaymentCaptured},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
