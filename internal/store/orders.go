package store

import (
	"context"

	"marketplace-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ordersNewestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

// InsertOrder inserts a new order document. The unique index on orderId is
// the enforcement point for identifier collisions; a duplicate insert returns
// ErrDuplicateKey.
func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	res, err := s.orders.InsertOne(ctx, order)
	if err != nil {
		return mapWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}
	return nil
}

// GetOrderByOrderID retrieves an order by its human-readable identifier.
func (s *Store) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders retrieves all orders, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{})
}

// ListOrdersByStore retrieves all orders for a store, newest first.
func (s *Store) ListOrdersByStore(ctx context.Context, storeID primitive.ObjectID) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"storeId": storeID})
}

// ListOrdersByUser retrieves all orders for a user, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"userId": userID})
}

func (s *Store) findOrders(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cur, err := s.orders.Find(ctx, filter, ordersNewestFirst)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus overwrites the status of an order and returns the updated
// document.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx,
		bson.M{"orderId": orderID},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrderByOrderID removes an order by its human-readable identifier.
func (s *Store) DeleteOrderByOrderID(ctx context.Context, orderID string) error {
	res, err := s.orders.DeleteOne(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
