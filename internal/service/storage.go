package service

import (
	"context"
	"time"

	"marketplace-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage is the slice of the entity store the services depend on. The mongo
// store satisfies it; tests substitute an in-memory fake.
type Storage interface {
	InsertUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserContact(ctx context.Context, id primitive.ObjectID, patch bson.M) (*models.User, error)
	DeleteUserByID(ctx context.Context, id primitive.ObjectID) error

	InsertStore(ctx context.Context, st *models.Store) error
	GetStoreByID(ctx context.Context, id primitive.ObjectID) (*models.Store, error)
	GetStoresByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Store, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	DeleteStoreByID(ctx context.Context, id primitive.ObjectID) error

	InsertProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	DeleteProductByID(ctx context.Context, id primitive.ObjectID) error
	DeleteProductsByStore(ctx context.Context, storeID primitive.ObjectID) (int64, error)

	InsertOrder(ctx context.Context, order *models.Order) error
	GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByStore(ctx context.Context, storeID primitive.ObjectID) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error)
	DeleteOrderByOrderID(ctx context.Context, orderID string) error
}

// ViewCache is a best-effort cache for projected order views. A miss is
// (nil, nil); failures are logged by the caller and never fail the request.
type ViewCache interface {
	GetOrderView(ctx context.Context, orderID string) ([]byte, error)
	SetOrderView(ctx context.Context, orderID string, payload []byte, ttl time.Duration) error
	InvalidateOrderView(ctx context.Context, orderID string) error
}

// EventPublisher publishes order lifecycle events. Publishing is best-effort;
// a failed publish never fails the originating request.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error
}

// MediaIngestor turns a source image URL into an embeddable compressed
// representation.
type MediaIngestor interface {
	Ingest(ctx context.Context, url string) (string, error)
}
