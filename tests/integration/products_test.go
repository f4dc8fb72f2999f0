package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mjyuu/vocaloidshop/internal/database"
	"github.com/mjyuu/vocaloidshop/internal/store"
)

func TestCreateAndGetProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created := mustCreateProduct(t, db, "PRD-0001", "Nendoroid", 6800, 30)

	fetched, err := store.GetProduct(ctx, db, created.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if fetched.SKU != "PRD-0001" || fetched.Name != "Nendoroid" {
		t.Errorf("Unexpected product: %+v", fetched)
	}
	if fetched.Price != 6800 || fetched.StockQuantity != 30 {
		t.Errorf("Expected price 6800 and stock 30, got %d / %d", fetched.Price, fetched.StockQuantity)
	}

	_, err = store.GetProduct(ctx, db, 99999)
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found error, got: %v", err)
	}
}

func TestSetProductPrice(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := mustCreateProduct(t, db, "PRD-0002", "Repriceable", 1000, 5)

	if err := store.SetProductPrice(ctx, db, product.ID, 1200); err != nil {
		t.Fatalf("Set product price: %v", err)
	}

	fetched, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if fetched.Price != 1200 {
		t.Errorf("Expected price 1200, got %d", fetched.Price)
	}

	if err := store.SetProductPrice(ctx, db, 99999, 1); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found error, got: %v", err)
	}
}

func TestListProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreateProduct(t, db, fmt.Sprintf("LST-%04d", i), "Listed", 1000, 10)
	}

	page, err := store.ListProducts(ctx, db, 1, 3)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Expected total 5, got %d", page.Total)
	}
	if page.TotalPages != 2 {
		t.Errorf("Expected 2 pages, got %d", page.TotalPages)
	}
}
