package repositories

import (
	"context"
	"fmt"
	"time"

	"orderapi/internal/config"
	"orderapi/internal/database"
)

// NewOrderRepository connects the storage backend selected by cfg.Driver. It
// fails if the backend is unreachable.
func NewOrderRepository(ctx context.Context, cfg config.StorageConfig) (OrderRepository, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoConnectTimeout)
		if err != nil {
			return nil, err
		}
		repo := NewMongoOrderRepository(client, cfg.MongoDatabase, cfg.MongoCollection)

		idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := database.EnsureOrderIndexes(idxCtx, repo.Collection()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to ensure order indexes: %w", err)
		}
		return repo, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.OpenGORM(cfg.Driver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return NewGORMOrderRepository(db), nil

	case config.DriverMemory:
		return NewMockOrderRepository(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
