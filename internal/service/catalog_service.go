package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CatalogService handles product and store CRUD. These are thin pass-through
// operations; the only rules are field presence, geo-coordinate ranges and
// the store-delete cascade over its products.
type CatalogService struct {
	store  Storage
	media  MediaIngestor
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service. media may be nil; image
// ingestion is best-effort.
func NewCatalogService(storage Storage, media MediaIngestor) *CatalogService {
	return &CatalogService{
		store:  storage,
		media:  media,
		logger: util.GetLogger(),
	}
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	StoreID     string `json:"store_id,omitempty"`
}

// CreateProduct validates and persists a product. When an image URL is
// supplied the compressed representation is ingested best-effort; failure is
// logged and the product is created without it.
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if req.Name == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "name is required")
	}
	if req.Price == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "price is required")
	}
	if req.Category == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "category is required")
	}

	product := &models.Product{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Description: req.Description,
		Quantity:    req.Quantity,
	}

	if req.StoreID != "" {
		storeID, err := primitive.ObjectIDFromHex(req.StoreID)
		if err != nil {
			return nil, apperr.Newf(apperr.KindInvalidRequest, "store_id %q is not a valid id", req.StoreID)
		}
		product.StoreID = storeID
	}

	if req.Image != "" && s.media != nil {
		compressed, err := s.media.Ingest(ctx, req.Image)
		if err != nil {
			util.MediaIngestFailuresTotal.Inc()
			s.logger.Warn("Image ingestion failed, continuing without compressed image",
				zap.String("url", req.Image),
				zap.Error(err))
		} else {
			product.ImageTemp = compressed
		}
	}

	if err := s.store.InsertProduct(ctx, product); err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to create product", err)
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.Hex()))
	return product, nil
}

// GetProduct retrieves a product by id.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	productID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "product not found: %s", id)
	}
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "product not found: %s", id)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to fetch product", err)
	}
	return product, nil
}

// ListProducts retrieves all products.
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to list products", err)
	}
	return products, nil
}

// DeleteProduct removes a product. Orders referencing it keep their raw
// reference; there is no integrity enforcement after order creation.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	productID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Newf(apperr.KindNotFound, "product not found: %s", id)
	}
	if err := s.store.DeleteProductByID(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.KindNotFound, "product not found: %s", id)
		}
		return apperr.Wrap(apperr.KindStorageUnavailable, "failed to delete product", err)
	}
	return nil
}

// CreateStoreRequest represents a request to create a store
type CreateStoreRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Owner       string `json:"owner"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category"`
	Latitude    string `json:"latitude,omitempty"`
	Longitude   string `json:"longitude,omitempty"`
}

// CreateStore validates and persists a store. Geo-coordinates, when present,
// must be decimal strings within [-90,90] and [-180,180].
func (s *CatalogService) CreateStore(ctx context.Context, req *CreateStoreRequest) (*models.Store, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateStore")
	defer span.End()

	if req.Name == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "name is required")
	}
	if req.Owner == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "owner is required")
	}
	if req.Category == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "category is required")
	}
	if err := validateCoordinate(req.Latitude, "latitude", 90); err != nil {
		return nil, err
	}
	if err := validateCoordinate(req.Longitude, "longitude", 180); err != nil {
		return nil, err
	}

	st := &models.Store{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Owner:       req.Owner,
		Image:       req.Image,
		Category:    req.Category,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}

	if err := s.store.InsertStore(ctx, st); err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to create store", err)
	}

	s.logger.Info("Store created", zap.String("store_id", st.ID.Hex()))
	return st, nil
}

func validateCoordinate(value, name string, limit float64) error {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return apperr.Newf(apperr.KindInvalidRequest, "%s %q is not a decimal value", name, value)
	}
	if f < -limit || f > limit {
		return apperr.Newf(apperr.KindInvalidRequest, "%s must be within [-%g, %g]", name, limit, limit)
	}
	return nil
}

// GetStore retrieves a store by id.
func (s *CatalogService) GetStore(ctx context.Context, id string) (*models.Store, error) {
	storeID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "store not found: %s", id)
	}
	st, err := s.store.GetStoreByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "store not found: %s", id)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to fetch store", err)
	}
	return st, nil
}

// ListStores retrieves all stores.
func (s *CatalogService) ListStores(ctx context.Context) ([]models.Store, error) {
	stores, err := s.store.ListStores(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to list stores", err)
	}
	return stores, nil
}

// DeleteStore removes a store and cascades deletion over its products.
func (s *CatalogService) DeleteStore(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteStore")
	defer span.End()

	storeID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Newf(apperr.KindNotFound, "store not found: %s", id)
	}

	if _, err := s.store.GetStoreByID(ctx, storeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.KindNotFound, "store not found: %s", id)
		}
		return apperr.Wrap(apperr.KindStorageUnavailable, "failed to fetch store", err)
	}

	deleted, err := s.store.DeleteProductsByStore(ctx, storeID)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, "failed to cascade product deletion", err)
	}

	if err := s.store.DeleteStoreByID(ctx, storeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.KindNotFound, "store not found: %s", id)
		}
		return apperr.Wrap(apperr.KindStorageUnavailable, "failed to delete store", err)
	}

	s.logger.Info("Store deleted",
		zap.String("store_id", id),
		zap.Int64("cascaded_products", deleted))
	return nil
}
