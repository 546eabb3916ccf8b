package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"orderapi/internal/repositories"
)

func newMockedMongoRepo(mt *mtest.T) *repositories.MongoOrderRepository {
	return repositories.NewMongoOrderRepository(mt.Client, mt.DB.Name(), mt.Coll.Name())
}

func orderDocument(id string, createdAt time.Time) bson.D {
	return bson.D{
		{Key: "orderId", Value: id},
		{Key: "value", Value: 10000.0},
		{Key: "creationDate", Value: time.Date(2023, 7, 19, 12, 24, 11, 0, time.UTC)},
		{Key: "items", Value: bson.A{
			bson.D{{Key: "productId", Value: int64(2434)}, {Key: "quantity", Value: 1}, {Key: "price", Value: 1000.0}},
		}},
		{Key: "createdAt", Value: createdAt},
		{Key: "updatedAt", Value: createdAt},
	}
}

func TestMongoOrderRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("GetByID found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			orderDocument("v10089015vdb-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))

		order, err := newMockedMongoRepo(mt).GetByID(ctx, "v10089015vdb-01")
		require.NoError(mt, err)
		assert.Equal(mt, "v10089015vdb-01", order.OrderID)
		assert.Equal(mt, 10000.0, order.Value)
		require.Len(mt, order.Items, 1)
		assert.Equal(mt, int64(2434), order.Items[0].ProductID)

		filter := mt.GetStartedEvent().Command.Lookup("filter").Document()
		assert.Equal(mt, "v10089015vdb-01", filter.Lookup("orderId").StringValue())
	})

	mt.Run("GetByID not found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := newMockedMongoRepo(mt).GetByID(ctx, "missing")
		assert.ErrorIs(mt, err, repositories.ErrOrderNotFound)
	})

	mt.Run("GetByID server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "not authorized",
			Name:    "Unauthorized",
		}))

		_, err := newMockedMongoRepo(mt).GetByID(ctx, "v1")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, repositories.ErrOrderNotFound)
	})

	mt.Run("GetAll sorts newest first with limit", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		newer := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
		older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			orderDocument("v2", newer), orderDocument("v1", older)))

		orders, err := newMockedMongoRepo(mt).GetAll(ctx, 2)
		require.NoError(mt, err)
		require.Len(mt, orders, 2)
		assert.Equal(mt, "v2", orders[0].OrderID)
		assert.Equal(mt, "v1", orders[1].OrderID)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, int64(2), cmd.Lookup("limit").AsInt64())
		assert.Equal(mt, int64(-1), cmd.Lookup("sort").Document().Lookup("createdAt").AsInt64())
	})

	mt.Run("GetAll empty", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		orders, err := newMockedMongoRepo(mt).GetAll(ctx, 0)
		require.NoError(mt, err)
		assert.NotNil(mt, orders)
		assert.Empty(mt, orders)
	})

	mt.Run("Create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		order := newOrder("v10089015vdb-01")
		require.NoError(mt, newMockedMongoRepo(mt).Create(ctx, order))
		assert.False(mt, order.CreatedAt.IsZero())
		assert.Equal(mt, order.CreatedAt, order.UpdatedAt)
		assert.Equal(mt, order.CreatedAt, order.CreatedAt.Truncate(time.Millisecond))
		assert.Equal(mt, "insert", mt.GetStartedEvent().CommandName)
	})

	mt.Run("Create duplicate key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: orders index: orderId_unique",
		}))

		err := newMockedMongoRepo(mt).Create(ctx, newOrder("v10089015vdb-01"))
		assert.ErrorIs(mt, err, repositories.ErrOrderExists)
	})

	mt.Run("Create other write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "Document failed validation",
		}))

		err := newMockedMongoRepo(mt).Create(ctx, newOrder("v10089015vdb-01"))
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, repositories.ErrOrderExists)
	})

	mt.Run("Update", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		order := newOrder("v10089015vdb-01")
		require.NoError(mt, newMockedMongoRepo(mt).Update(ctx, order))
		assert.False(mt, order.UpdatedAt.IsZero())
		assert.Equal(mt, "update", mt.GetStartedEvent().CommandName)
	})

	mt.Run("Update missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := newMockedMongoRepo(mt).Update(ctx, newOrder("missing"))
		assert.ErrorIs(mt, err, repositories.ErrOrderNotFound)
	})

	mt.Run("Delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, newMockedMongoRepo(mt).Delete(ctx, "v10089015vdb-01"))
		assert.Equal(mt, "delete", mt.GetStartedEvent().CommandName)
	})

	mt.Run("Delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := newMockedMongoRepo(mt).Delete(ctx, "missing")
		assert.ErrorIs(mt, err, repositories.ErrOrderNotFound)
	})

	mt.Run("Ping", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, newMockedMongoRepo(mt).Ping(ctx))
	})
}
