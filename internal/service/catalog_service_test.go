package service

import (
	"context"
	"errors"
	"testing"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIngestor struct {
	result string
	err    error
}

func (s *stubIngestor) Ingest(context.Context, string) (string, error) {
	return s.result, s.err
}

func TestCreateProductRequiredFields(t *testing.T) {
	svc := NewCatalogService(storetest.New(), nil)

	cases := []struct {
		name string
		req  CreateProductRequest
	}{
		{"missing name", CreateProductRequest{Price: "100", Category: "misc"}},
		{"missing price", CreateProductRequest{Name: "Sabun", Category: "misc"}},
		{"missing category", CreateProductRequest{Name: "Sabun", Price: "100"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), &tc.req)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
		})
	}
}

func TestCreateProductImageIngestion(t *testing.T) {
	storage := storetest.New()
	svc := NewCatalogService(storage, &stubIngestor{result: "data:image/jpeg;base64,ok"})

	product, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Name:     "Sabun Mandi",
		Price:    "8000",
		Category: "toiletries",
		Image:    "http://example.com/sabun.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,ok", product.ImageTemp)
	assert.Equal(t, "http://example.com/sabun.png", product.Image)
}

func TestCreateProductImageIngestionFailureIsIgnored(t *testing.T) {
	storage := storetest.New()
	svc := NewCatalogService(storage, &stubIngestor{err: errors.New("connection refused")})

	product, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Name:     "Sabun Mandi",
		Price:    "8000",
		Category: "toiletries",
		Image:    "http://example.com/sabun.png",
	})
	require.NoError(t, err)
	assert.Empty(t, product.ImageTemp)

	// The product must still be persisted.
	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestCreateStoreGeoValidation(t *testing.T) {
	svc := NewCatalogService(storetest.New(), nil)

	base := CreateStoreRequest{Name: "Toko Geo", Owner: "geo", Category: "misc"}

	bad := base
	bad.Latitude = "not-a-number"
	_, err := svc.CreateStore(context.Background(), &bad)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))

	bad = base
	bad.Latitude = "95.1"
	_, err = svc.CreateStore(context.Background(), &bad)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))

	bad = base
	bad.Longitude = "-190"
	_, err = svc.CreateStore(context.Background(), &bad)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))

	good := base
	good.Latitude = "-6.2088"
	good.Longitude = "106.8456"
	st, err := svc.CreateStore(context.Background(), &good)
	require.NoError(t, err)
	assert.True(t, st.IsActive)
}

func TestDeleteStoreCascadesProducts(t *testing.T) {
	storage := storetest.New()
	svc := NewCatalogService(storage, nil)

	storeID := storage.SeedStore(models.Store{Name: "Toko C", Owner: "c", Category: "misc"})
	storage.SeedProduct(models.Product{Name: "P1", Price: "100", Category: "misc", StoreID: storeID})
	storage.SeedProduct(models.Product{Name: "P2", Price: "200", Category: "misc", StoreID: storeID})
	storage.SeedProduct(models.Product{Name: "Standalone", Price: "300", Category: "misc"})

	require.NoError(t, svc.DeleteStore(context.Background(), storeID.Hex()))

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Standalone", products[0].Name)

	_, err = svc.GetStore(context.Background(), storeID.Hex())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteProductNotFound(t *testing.T) {
	svc := NewCatalogService(storetest.New(), nil)

	err := svc.DeleteProduct(context.Background(), "64b000000000000000000000")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Unparseable ids behave like missing documents.
	err = svc.DeleteProduct(context.Background(), "not-an-id")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
