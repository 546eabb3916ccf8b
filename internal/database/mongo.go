package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"orderapi/internal/logger"
)

// OrderIDIndex is the unique index that backs orderId uniqueness.
const OrderIDIndex = "orderId_unique"

// ConnectMongo connects to uri and pings the primary, failing if the server is
// not reachable within timeout.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("database connection URL is empty")
	}

	clientOptions := options.Client().ApplyURI(uri).
		SetMaxPoolSize(50).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetSocketTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Component("database").Info("Successfully connected to MongoDB")
	return client, nil
}

// EnsureOrderIndexes creates the unique orderId index and the createdAt index
// used for listings. An existing index with the same name but a different
// definition is dropped and recreated.
func EnsureOrderIndexes(ctx context.Context, collection *mongo.Collection) error {
	existing, err := listIndexes(ctx, collection)
	if err != nil {
		return err
	}

	if err := checkAndReplaceIndex(ctx, collection, existing, OrderIDIndex,
		bson.D{{Key: "orderId", Value: 1}}, true); err != nil {
		return err
	}
	return checkAndReplaceIndex(ctx, collection, existing, "createdAt_single",
		bson.D{{Key: "createdAt", Value: -1}}, false)
}

func listIndexes(ctx context.Context, collection *mongo.Collection) (map[string]bson.M, error) {
	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	defer cursor.Close(ctx)

	indexes := map[string]bson.M{}
	for cursor.Next(ctx) {
		var info bson.M
		if err := cursor.Decode(&info); err != nil {
			return nil, fmt.Errorf("failed to decode index info: %w", err)
		}
		if name, ok := info["name"].(string); ok {
			indexes[name] = info
		}
	}
	return indexes, cursor.Err()
}

func checkAndReplaceIndex(ctx context.Context, collection *mongo.Collection, existing map[string]bson.M, name string, keys bson.D, unique bool) error {
	log := logger.Component("database").WithField("index", name)

	if info, ok := existing[name]; ok {
		if indexMatches(info, keys, unique) {
			log.Debug("index already up to date")
			return nil
		}
		if _, err := collection.Indexes().DropOne(ctx, name); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", name, err)
		}
		log.Info("dropped outdated index")
	}

	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts}); err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	log.Info("created index")
	return nil
}

func indexMatches(info bson.M, keys bson.D, unique bool) bool {
	existingKeys, ok := info["key"].(bson.M)
	if !ok || len(existingKeys) != len(keys) {
		return false
	}
	for _, k := range keys {
		if toInt(existingKeys[k.Key]) != toInt(k.Value) {
			return false
		}
	}
	isUnique, _ := info["unique"].(bool)
	return isUnique == unique
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
