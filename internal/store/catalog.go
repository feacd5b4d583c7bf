package store

import (
	"context"

	"marketplace-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// InsertProduct inserts a new product document.
func (s *Store) InsertProduct(ctx context.Context, product *models.Product) error {
	res, err := s.products.InsertOne(ctx, product)
	if err != nil {
		return mapWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid
	}
	return nil
}

// GetProductByID retrieves a product by ID.
func (s *Store) GetProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products in one round-trip.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	cur, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListProducts retrieves all products.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	cur, err := s.products.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// DeleteProductByID removes a product.
func (s *Store) DeleteProductByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProductsByStore removes every product owned by a store. Used by the
// store-delete cascade.
func (s *Store) DeleteProductsByStore(ctx context.Context, storeID primitive.ObjectID) (int64, error) {
	res, err := s.products.DeleteMany(ctx, bson.M{"storeId": storeID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// InsertStore inserts a new store document.
func (s *Store) InsertStore(ctx context.Context, st *models.Store) error {
	res, err := s.stores.InsertOne(ctx, st)
	if err != nil {
		return mapWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		st.ID = oid
	}
	return nil
}

// GetStoreByID retrieves a store by ID.
func (s *Store) GetStoreByID(ctx context.Context, id primitive.ObjectID) (*models.Store, error) {
	var st models.Store
	err := s.stores.FindOne(ctx, bson.M{"_id": id}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStoresByIDs retrieves multiple stores in one round-trip.
func (s *Store) GetStoresByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Store, error) {
	if len(ids) == 0 {
		return []models.Store{}, nil
	}

	cur, err := s.stores.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stores := []models.Store{}
	if err := cur.All(ctx, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// ListStores retrieves all stores.
func (s *Store) ListStores(ctx context.Context) ([]models.Store, error) {
	cur, err := s.stores.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stores := []models.Store{}
	if err := cur.All(ctx, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// DeleteStoreByID removes a store.
func (s *Store) DeleteStoreByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.stores.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
