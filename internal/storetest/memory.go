// Package storetest provides an in-memory implementation of the service
// storage interface for tests.
package storetest

import (
	"context"
	"sort"
	"sync"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps entities in maps and mimics the mongo store's error
// contract (store.ErrNotFound, store.ErrDuplicateKey).
type MemoryStore struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	stores   map[primitive.ObjectID]models.Store
	products map[primitive.ObjectID]models.Product
	orders   map[string]models.Order

	// FailDuplicateInserts makes the next N order inserts fail with
	// store.ErrDuplicateKey, simulating identifier collisions.
	FailDuplicateInserts int
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		users:    map[primitive.ObjectID]models.User{},
		stores:   map[primitive.ObjectID]models.Store{},
		products: map[primitive.ObjectID]models.Product{},
		orders:   map[string]models.Order{},
	}
}

// SeedUser inserts a user directly and returns its id.
func (m *MemoryStore) SeedUser(user models.User) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = user
	return user.ID
}

// SeedStore inserts a store directly and returns its id.
func (m *MemoryStore) SeedStore(st models.Store) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.ID.IsZero() {
		st.ID = primitive.NewObjectID()
	}
	m.stores[st.ID] = st
	return st.ID
}

// SeedProduct inserts a product directly and returns its id.
func (m *MemoryStore) SeedProduct(product models.Product) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	m.products[product.ID] = product
	return product.ID
}

// SeedOrder inserts an order directly.
func (m *MemoryStore) SeedOrder(order models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	m.orders[order.OrderID] = order
}

// OrderCount reports the number of persisted orders.
func (m *MemoryStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// Order returns a persisted order by its human-readable id.
func (m *MemoryStore) Order(orderID string) (models.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	return order, ok
}

func (m *MemoryStore) InsertUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return store.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.User{}
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.User{}
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *MemoryStore) UpdateUserContact(_ context.Context, id primitive.ObjectID, patch bson.M) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for key, value := range patch {
		s, _ := value.(string)
		switch key {
		case "name":
			user.Name = s
		case "address":
			user.Address = s
		case "email":
			user.Email = s
		case "phone":
			user.Phone = s
		}
	}
	m.users[id] = user
	return &user, nil
}

func (m *MemoryStore) DeleteUserByID(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) InsertStore(_ context.Context, st *models.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.ID = primitive.NewObjectID()
	m.stores[st.ID] = *st
	return nil
}

func (m *MemoryStore) GetStoreByID(_ context.Context, id primitive.ObjectID) (*models.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &st, nil
}

func (m *MemoryStore) GetStoresByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stores := []models.Store{}
	for _, id := range ids {
		if st, ok := m.stores[id]; ok {
			stores = append(stores, st)
		}
	}
	return stores, nil
}

func (m *MemoryStore) ListStores(_ context.Context) ([]models.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stores := []models.Store{}
	for _, st := range m.stores {
		stores = append(stores, st)
	}
	return stores, nil
}

func (m *MemoryStore) DeleteStoreByID(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.stores, id)
	return nil
}

func (m *MemoryStore) InsertProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product.ID = primitive.NewObjectID()
	m.products[product.ID] = *product
	return nil
}

func (m *MemoryStore) GetProductByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (m *MemoryStore) GetProductsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := []models.Product{}
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			products = append(products, product)
		}
	}
	return products, nil
}

func (m *MemoryStore) ListProducts(_ context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := []models.Product{}
	for _, product := range m.products {
		products = append(products, product)
	}
	return products, nil
}

func (m *MemoryStore) DeleteProductByID(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) DeleteProductsByStore(_ context.Context, storeID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, product := range m.products {
		if product.StoreID == storeID {
			delete(m.products, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) InsertOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDuplicateInserts > 0 {
		m.FailDuplicateInserts--
		return store.ErrDuplicateKey
	}
	if _, exists := m.orders[order.OrderID]; exists {
		return store.ErrDuplicateKey
	}
	order.ID = primitive.NewObjectID()
	m.orders[order.OrderID] = *order
	return nil
}

func (m *MemoryStore) GetOrderByOrderID(_ context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &order, nil
}

func (m *MemoryStore) ListOrders(_ context.Context) ([]models.Order, error) {
	return m.filterOrders(func(models.Order) bool { return true }), nil
}

func (m *MemoryStore) ListOrdersByStore(_ context.Context, storeID primitive.ObjectID) ([]models.Order, error) {
	return m.filterOrders(func(o models.Order) bool { return o.StoreID == storeID }), nil
}

func (m *MemoryStore) ListOrdersByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return m.filterOrders(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (m *MemoryStore) filterOrders(keep func(models.Order) bool) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []models.Order{}
	for _, order := range m.orders {
		if keep(order) {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, orderID, status string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	order.Status = status
	m.orders[orderID] = order
	return &order, nil
}

func (m *MemoryStore) DeleteOrderByOrderID(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderID]; !ok {
		return store.ErrNotFound
	}
	delete(m.orders, orderID)
	return nil
}
