package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var orderIDPattern = regexp.MustCompile(`^ORD-\d+-[a-z0-9]{8}$`)

type fixture struct {
	storage *storetest.MemoryStore
	svc     *OrderService

	productID primitive.ObjectID
	storeID   primitive.ObjectID
	userID    primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	storage := storetest.New()
	f := &fixture{
		storage: storage,
		svc:     NewOrderService(storage, nil, nil, 0),
	}
	f.productID = storage.SeedProduct(models.Product{
		Name:     "Kopi Arabica",
		Price:    "45000",
		Category: "beverages",
	})
	f.storeID = storage.SeedStore(models.Store{
		Name:     "Toko Sejahtera",
		Owner:    "budi",
		Category: "grocery",
		Address:  "Jl. Merdeka 1",
		IsActive: true,
	})
	f.userID = storage.SeedUser(models.User{
		Username: "budi",
		Password: "hunter2",
		Name:     "Budi Santoso",
		Email:    "budi@example.com",
	})
	return f
}

func (f *fixture) createRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductID: f.productID.Hex(), Quantity: 2},
		},
		StoreID: f.storeID.Hex(),
		UserID:  f.userID.Hex(),
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.NoError(t, err)

	assert.Regexp(t, orderIDPattern, view.OrderID)
	assert.Equal(t, models.OrderStatusPending, view.Status)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	require.NotNil(t, view.Items[0].Product)
	assert.Equal(t, "Kopi Arabica", view.Items[0].Product.Name)
	require.NotNil(t, view.Store)
	assert.Equal(t, "Toko Sejahtera", view.Store.Name)
	require.NotNil(t, view.User)
	assert.Equal(t, "budi", view.User.Username)

	stored, ok := f.storage.Order(view.OrderID)
	require.True(t, ok)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, 1, f.storage.OrderCount())
}

func TestCreateOrderUniqueIDs(t *testing.T) {
	f := newFixture(t)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		view, err := f.svc.CreateOrder(context.Background(), f.createRequest())
		require.NoError(t, err)
		assert.False(t, seen[view.OrderID], "duplicate order id %s", view.OrderID)
		seen[view.OrderID] = true
	}
}

func TestCreateOrderEmptyItems(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.Items = nil

	_, err := f.svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
	assert.Equal(t, 0, f.storage.OrderCount())
}

func TestCreateOrderZeroQuantity(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.Items[0].Quantity = 0

	_, err := f.svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "quantity")
	assert.Equal(t, 0, f.storage.OrderCount())
}

func TestCreateOrderMissingProductID(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.Items[0].ProductID = ""

	_, err := f.svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
	assert.Equal(t, 0, f.storage.OrderCount())
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.Items = append(req.Items, OrderItemRequest{
		ProductID: primitive.NewObjectID().Hex(),
		Quantity:  1,
	})

	_, err := f.svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindProductsNotFound, apperr.KindOf(err))
	assert.Equal(t, 0, f.storage.OrderCount())
}

func TestCreateOrderUnknownStore(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.StoreID = primitive.NewObjectID().Hex()

	_, err := f.svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStoreNotFound, apperr.KindOf(err))
	assert.Equal(t, 0, f.storage.OrderCount())
}

func TestCreateOrderUnknownUser(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.UserID = primitive.NewObjectID().Hex()

	_, err := f.svc.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUserNotFound, apperr.KindOf(err))
	assert.Equal(t, 0, f.storage.OrderCount())
}

func TestCreateOrderDuplicateIDRetries(t *testing.T) {
	f := newFixture(t)
	f.storage.FailDuplicateInserts = 2

	view, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.NoError(t, err)
	assert.Regexp(t, orderIDPattern, view.OrderID)
	assert.Equal(t, 1, f.storage.OrderCount())
}

func TestCreateOrderDuplicateIDExhausted(t *testing.T) {
	f := newFixture(t)
	f.storage.FailDuplicateInserts = maxOrderIDAttempts

	_, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateOrderID, apperr.KindOf(err))
	assert.Equal(t, 0, f.storage.OrderCount())
}

func TestGetOrderIdempotent(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.NoError(t, err)

	first, err := f.svc.GetOrder(context.Background(), created.OrderID)
	require.NoError(t, err)
	second, err := f.svc.GetOrder(context.Background(), created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetOrder(context.Background(), "ORD-0-missing0")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.NoError(t, err)

	view, err := f.svc.UpdateStatus(context.Background(), created.OrderID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, view.Status)

	fetched, err := f.svc.GetOrder(context.Background(), created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, fetched.Status)
}

func TestUpdateStatusPermissiveTransitions(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.NoError(t, err)

	// No transition graph: terminal states can move back.
	_, err = f.svc.UpdateStatus(context.Background(), created.OrderID, models.OrderStatusDelivered)
	require.NoError(t, err)
	view, err := f.svc.UpdateStatus(context.Background(), created.OrderID, models.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, view.Status)
}

func TestUpdateStatusInvalid(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), created.OrderID, "bogus")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "pending")
	assert.Contains(t, err.Error(), "cancelled")

	stored, ok := f.storage.Order(created.OrderID)
	require.True(t, ok)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestUpdateStatusMissing(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), created.OrderID, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
}

func TestUpdateStatusNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), "ORD-0-missing0", models.OrderStatusShipped)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateOrder(context.Background(), f.createRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(context.Background(), created.OrderID))
	assert.Equal(t, 0, f.storage.OrderCount())

	err = f.svc.DeleteOrder(context.Background(), created.OrderID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		f.storage.SeedOrder(models.Order{
			OrderID:   NewOrderID(),
			Items:     []models.OrderItem{{ProductID: f.productID, Quantity: 1}},
			StoreID:   f.storeID,
			UserID:    f.userID,
			Status:    models.OrderStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	views, err := f.svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)
	for i := 1; i < len(views); i++ {
		assert.True(t, !views[i-1].CreatedAt.Before(views[i].CreatedAt),
			"orders must be sorted newest first")
	}
}

func TestListOrdersByStoreAndUser(t *testing.T) {
	f := newFixture(t)

	otherStore := f.storage.SeedStore(models.Store{Name: "Warung Lain", Owner: "siti", Category: "food"})

	f.storage.SeedOrder(models.Order{
		OrderID: NewOrderID(), StoreID: f.storeID, UserID: f.userID,
		Items:  []models.OrderItem{{ProductID: f.productID, Quantity: 1}},
		Status: models.OrderStatusPending, CreatedAt: time.Now(),
	})
	f.storage.SeedOrder(models.Order{
		OrderID: NewOrderID(), StoreID: otherStore, UserID: f.userID,
		Items:  []models.OrderItem{{ProductID: f.productID, Quantity: 1}},
		Status: models.OrderStatusPending, CreatedAt: time.Now(),
	})

	byStore, err := f.svc.ListOrdersByStore(context.Background(), f.storeID.Hex())
	require.NoError(t, err)
	assert.Len(t, byStore, 1)

	byUser, err := f.svc.ListOrdersByUser(context.Background(), f.userID.Hex())
	require.NoError(t, err)
	assert.Len(t, byUser, 2)
}
