package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"orderapi/internal/models"
)

// MongoOrderRepository stores orders as documents keyed by orderId. The
// collection is expected to carry a unique index on orderId (see
// database.EnsureOrderIndexes).
type MongoOrderRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a repository over database/collection.
func NewMongoOrderRepository(client *mongo.Client, database, collection string) *MongoOrderRepository {
	return &MongoOrderRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

// Collection exposes the underlying collection for index management.
func (r *MongoOrderRepository) Collection() *mongo.Collection {
	return r.collection
}

func (r *MongoOrderRepository) GetAll(ctx context.Context, limit int) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order %s: %w", orderID, err)
	}
	return &order, nil
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	order.CreatedAt = now
	order.UpdatedAt = now
	order.CreationDate = truncateToBSON(order.CreationDate)

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrOrderExists
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *MongoOrderRepository) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	order.CreationDate = truncateToBSON(order.CreationDate)

	res, err := r.collection.ReplaceOne(ctx, bson.M{"orderId": order.OrderID}, order)
	if err != nil {
		return fmt.Errorf("failed to replace order %s: %w", order.OrderID, err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *MongoOrderRepository) Delete(ctx context.Context, orderID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return fmt.Errorf("failed to delete order %s: %w", orderID, err)
	}
	if res.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *MongoOrderRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoOrderRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// BSON datetimes carry millisecond precision; truncating before the write keeps
// the returned record identical to what a later read produces.
func truncateToBSON(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

var _ OrderRepository = (*MongoOrderRepository)(nil)
