package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a marketplace account. Password is an opaque secret and is
// stripped by the projector before any response leaves the service.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}

// Store represents a seller storefront.
type Store struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Owner       string             `bson:"owner" json:"owner"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Category    string             `bson:"category" json:"category"`
	Latitude    string             `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude   string             `bson:"longitude,omitempty" json:"longitude,omitempty"`
	IsActive    bool               `bson:"isActive" json:"is_active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
}

// Product represents a catalog entry. Price is kept as a decimal string, the
// same representation the storefront submits.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       string             `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	ImageTemp   string             `bson:"imageTemp,omitempty" json:"image_temp,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Quantity    int                `bson:"quantity,omitempty" json:"quantity,omitempty"`
	StoreID     primitive.ObjectID `bson:"storeId,omitempty" json:"store_id,omitempty"`
}

// OrderItem is a line item embedded in an order.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Order represents a customer order. OrderID is the human-readable identifier
// (ORD-<millis>-<suffix>), unique across all orders and immutable after
// creation. Line items are embedded, not independently persisted.
type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   string             `bson:"orderId" json:"order_id"`
	Items     []OrderItem        `bson:"items" json:"items"`
	StoreID   primitive.ObjectID `bson:"storeId" json:"store_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"user_id"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatuses is the closed set of order statuses, in lifecycle order.
var ValidOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus reports membership in the closed status set.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}
