package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderapi/internal/config"
	"orderapi/internal/database"
	"orderapi/internal/models"
	"orderapi/internal/repositories"
)

func newOrder(id string) *models.Order {
	return &models.Order{
		OrderID:      id,
		Value:        10000,
		CreationDate: time.Date(2023, 7, 19, 12, 24, 11, 0, time.UTC),
		Items: []models.OrderItem{
			{ProductID: 2434, Quantity: 1, Price: 1000},
		},
	}
}

func newSQLiteRepo(t *testing.T) *repositories.GORMOrderRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.OpenGORM(config.DriverSQLite, dsn)
	require.NoError(t, err)
	repo := repositories.NewGORMOrderRepository(db)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}

// testOrderRepository exercises the behavior every backend must share.
func testOrderRepository(t *testing.T, repo repositories.OrderRepository) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		order := newOrder("create-get")
		require.NoError(t, repo.Create(ctx, order))
		assert.False(t, order.CreatedAt.IsZero())

		stored, err := repo.GetByID(ctx, "create-get")
		require.NoError(t, err)
		assert.Equal(t, order.OrderID, stored.OrderID)
		assert.Equal(t, order.Value, stored.Value)
		assert.Equal(t, order.Items, stored.Items)
		assert.True(t, order.CreationDate.Equal(stored.CreationDate))
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newOrder("dup")))
		err := repo.Create(ctx, newOrder("dup"))
		assert.ErrorIs(t, err, repositories.ErrOrderExists)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		order := newOrder("update")
		require.NoError(t, repo.Create(ctx, order))

		order.Value = 500
		order.Items = []models.OrderItem{{ProductID: 1, Quantity: 2, Price: 250}}
		require.NoError(t, repo.Update(ctx, order))

		stored, err := repo.GetByID(ctx, "update")
		require.NoError(t, err)
		assert.Equal(t, 500.0, stored.Value)
		assert.Equal(t, order.Items, stored.Items)

		err = repo.Update(ctx, newOrder("update-missing"))
		assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newOrder("delete")))
		require.NoError(t, repo.Delete(ctx, "delete"))

		_, err := repo.GetByID(ctx, "delete")
		assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "delete"), repositories.ErrOrderNotFound)
	})

	t.Run("GetAllNewestFirstWithLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Create(ctx, newOrder(fmt.Sprintf("list-%d", i))))
			time.Sleep(2 * time.Millisecond)
		}

		orders, err := repo.GetAll(ctx, 2)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "list-2", orders[0].OrderID)
		assert.Equal(t, "list-1", orders[1].OrderID)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}

func TestMockOrderRepository(t *testing.T) {
	testOrderRepository(t, repositories.NewMockOrderRepository())
}

func TestGORMOrderRepository(t *testing.T) {
	testOrderRepository(t, newSQLiteRepo(t))
}

func TestMockOrderRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockOrderRepository()
	require.NoError(t, repo.Create(ctx, newOrder("copy")))

	stored, err := repo.GetByID(ctx, "copy")
	require.NoError(t, err)
	stored.Items[0].Price = 1

	again, err := repo.GetByID(ctx, "copy")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, again.Items[0].Price)
}

func TestNewOrderRepository_Memory(t *testing.T) {
	repo, err := repositories.NewOrderRepository(context.Background(), config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &repositories.MockOrderRepository{}, repo)
}

func TestNewOrderRepository_UnreachableMongo(t *testing.T) {
	_, err := repositories.NewOrderRepository(context.Background(), config.StorageConfig{
		Driver:              config.DriverMongo,
		MongoURI:            "mongodb://127.0.0.1:1/orders",
		MongoDatabase:       "orders",
		MongoCollection:     "orders",
		MongoConnectTimeout: 200 * time.Millisecond,
	})
	assert.Error(t, err)
}
