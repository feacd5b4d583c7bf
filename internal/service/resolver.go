package service

import (
	"context"
	"errors"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resolver verifies that entity references point at existing records before a
// dependent write proceeds. Checks run in a fixed order: products, then
// store, then user. Read-only.
type Resolver struct {
	store Storage
}

// NewResolver creates a new reference resolver
func NewResolver(storage Storage) *Resolver {
	return &Resolver{store: storage}
}

// ResolvedRefs carries the documents a successful resolution loaded, so the
// projector can reuse them without refetching.
type ResolvedRefs struct {
	Products map[primitive.ObjectID]*models.Product
	Store    *models.Store
	User     *models.User
}

// Resolve checks every product id, the store id and the user id against the
// entity store. The first failing category determines the error kind.
func (r *Resolver) Resolve(ctx context.Context, productIDs []primitive.ObjectID, storeID, userID primitive.ObjectID) (*ResolvedRefs, error) {
	distinct := make([]primitive.ObjectID, 0, len(productIDs))
	seen := make(map[primitive.ObjectID]bool, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}

	products, err := r.store.GetProductsByIDs(ctx, distinct)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to look up products", err)
	}

	productMap := make(map[primitive.ObjectID]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	if len(productMap) < len(distinct) {
		missing := make([]string, 0, len(distinct)-len(productMap))
		for _, id := range distinct {
			if _, ok := productMap[id]; !ok {
				missing = append(missing, id.Hex())
			}
		}
		return nil, apperr.Newf(apperr.KindProductsNotFound, "products not found: %v", missing)
	}

	st, err := r.store.GetStoreByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindStoreNotFound, "store not found: %s", storeID.Hex())
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to look up store", err)
	}

	user, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindUserNotFound, "user not found: %s", userID.Hex())
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to look up user", err)
	}

	return &ResolvedRefs{
		Products: productMap,
		Store:    st,
		User:     user,
	}, nil
}
