package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/service"
	"marketplace-service/internal/storetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testServer struct {
	router  *gin.Engine
	storage *storetest.MemoryStore

	productID primitive.ObjectID
	storeID   primitive.ObjectID
	userID    primitive.ObjectID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	storage := storetest.New()
	orders := service.NewOrderService(storage, nil, nil, 0)
	catalog := service.NewCatalogService(storage, nil)
	users := service.NewUserService(storage)

	router := gin.New()
	NewHandler(orders, catalog, users).SetupRoutes(router)

	ts := &testServer{router: router, storage: storage}
	ts.productID = storage.SeedProduct(models.Product{Name: "Kopi", Price: "45000", Category: "beverages"})
	ts.storeID = storage.SeedStore(models.Store{Name: "Toko", Owner: "budi", Category: "grocery", CreatedAt: time.Now()})
	ts.userID = storage.SeedUser(models.User{Username: "budi", Password: "hunter2", CreatedAt: time.Now()})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) createOrder(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/orders", gin.H{
		"items":    []gin.H{{"product_id": ts.productID.Hex(), "quantity": 2}},
		"store_id": ts.storeID.Hex(),
		"user_id":  ts.userID.Hex(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view service.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view.OrderID
}

func TestCreateOrderEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/orders", gin.H{
		"items":    []gin.H{{"product_id": ts.productID.Hex(), "quantity": 2}},
		"store_id": ts.storeID.Hex(),
		"user_id":  ts.userID.Hex(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view service.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Regexp(t, `^ORD-\d+-[a-z0-9]+$`, view.OrderID)
	assert.Equal(t, models.OrderStatusPending, view.Status)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestCreateOrderEmptyItemsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/orders", gin.H{
		"items":    []gin.H{},
		"store_id": ts.storeID.Hex(),
		"user_id":  ts.userID.Hex(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, ts.storage.OrderCount())
}

func TestCreateOrderUnknownProductEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/orders", gin.H{
		"items":    []gin.H{{"product_id": primitive.NewObjectID().Hex(), "quantity": 1}},
		"store_id": ts.storeID.Hex(),
		"user_id":  ts.userID.Hex(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// No order persisted, list is unchanged.
	w = ts.do(t, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []service.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.Empty(t, views)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	orderID := ts.createOrder(t)

	w := ts.do(t, http.MethodPut, fmt.Sprintf("/orders/%s/status", orderID), gin.H{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/orders/%s", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view service.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.OrderStatusShipped, view.Status)
}

func TestUpdateStatusBogusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	orderID := ts.createOrder(t)

	w := ts.do(t, http.MethodPut, fmt.Sprintf("/orders/%s/status", orderID), gin.H{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "pending")

	stored, ok := ts.storage.Order(orderID)
	require.True(t, ok)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestDeleteOrderNotFoundEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodDelete, "/orders/ORD-0-missing0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderListEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createOrder(t)
	ts.createOrder(t)

	w := ts.do(t, http.MethodGet, fmt.Sprintf("/stores/%s/orders", ts.storeID.Hex()), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []service.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.Len(t, views, 2)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/users/%s/orders", ts.userID.Hex()), nil)
	require.Equal(t, http.StatusOK, w.Code)
	views = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.Len(t, views, 2)
}

func TestUserEndpointsRedactPassword(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/users", gin.H{
		"username": "siti",
		"password": "supersecret",
		"email":    "siti@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "supersecret")
	assert.NotContains(t, w.Body.String(), "password")

	w = ts.do(t, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "hunter2")
}

func TestDuplicateUsernameEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/users", gin.H{"username": "budi", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
}

func TestProductCRUDEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/products", gin.H{
		"name":     "Teh Botol",
		"price":    "5000",
		"category": "beverages",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var product models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/products/%s", product.ID.Hex()), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, fmt.Sprintf("/products/%s", product.ID.Hex()), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/products/%s", product.ID.Hex()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
