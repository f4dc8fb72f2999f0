package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/mjyuu/vocaloidshop/internal/database"
	"github.com/mjyuu/vocaloidshop/internal/models"
	"github.com/mjyuu/vocaloidshop/internal/store"
)

func placeTestOrder(t *testing.T, db *sql.DB, email string) *models.Order {
	t.Helper()
	user := mustCreateUser(t, db, email)
	product := mustCreateProduct(t, db, "ST-"+email, "Status Product "+email, 1000, 100)
	mustAddToCart(t, db, user.ID, product.ID, 1)

	order, err := store.PlaceOrder(context.Background(), db, user.ID, nil)
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}
	return order
}

func TestAdvanceOrderStatusForward(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := placeTestOrder(t, db, "forward@example.com")

	sequence := []models.OrderStatus{
		models.StatusProcessing,
		models.StatusPreparing,
		models.StatusReadyForDelivery,
		models.StatusInDelivery,
		models.StatusDelivered,
	}

	for _, next := range sequence {
		updated, err := store.AdvanceOrderStatus(ctx, db, order.ID, next)
		if err != nil {
			t.Fatalf("Advance to %s: %v", next, err)
		}
		if updated.Status != next {
			t.Errorf("Expected status %s, got %s", next, updated.Status)
		}
	}
}

func TestAdvanceOrderStatusSkipAhead(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := placeTestOrder(t, db, "skip@example.com")

	// Jumping straight from PAYMENT_RECEIVED to DELIVERED is allowed.
	updated, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusDelivered)
	if err != nil {
		t.Fatalf("Skip ahead: %v", err)
	}
	if updated.Status != models.StatusDelivered {
		t.Errorf("Expected DELIVERED, got %s", updated.Status)
	}
}

func TestAdvanceOrderStatusSameStage(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := placeTestOrder(t, db, "same@example.com")

	updated, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusPaymentReceived)
	if err != nil {
		t.Fatalf("Same-stage transition: %v", err)
	}
	if updated.Status != models.StatusPaymentReceived {
		t.Errorf("Expected PAYMENT_RECEIVED, got %s", updated.Status)
	}
}

func TestAdvanceOrderStatusRejectsRegression(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := placeTestOrder(t, db, "revert@example.com")

	if _, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusPreparing); err != nil {
		t.Fatalf("Advance to PREPARING: %v", err)
	}

	_, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusProcessing)

	var transitionErr *store.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("Expected invalid transition error, got: %v", err)
	}
	if transitionErr.From != models.StatusPreparing || transitionErr.To != models.StatusProcessing {
		t.Errorf("Error should carry the rejected pair, got %s -> %s", transitionErr.From, transitionErr.To)
	}

	// Status must be unchanged after the rejected transition.
	reloaded, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if reloaded.Status != models.StatusPreparing {
		t.Errorf("Status should remain PREPARING, got %s", reloaded.Status)
	}

	// And skipping forward from there still works.
	updated, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusDelivered)
	if err != nil {
		t.Fatalf("Advance to DELIVERED: %v", err)
	}
	if updated.Status != models.StatusDelivered {
		t.Errorf("Expected DELIVERED, got %s", updated.Status)
	}
}

func TestCancelIsAlwaysLegal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	stages := []models.OrderStatus{
		models.StatusPaymentReceived,
		models.StatusProcessing,
		models.StatusPreparing,
		models.StatusReadyForDelivery,
		models.StatusInDelivery,
		models.StatusDelivered,
	}

	for i, stage := range stages {
		order := placeTestOrder(t, db, fmt.Sprintf("cancel%d@example.com", i))

		if stage != models.StatusPaymentReceived {
			if _, err := store.AdvanceOrderStatus(ctx, db, order.ID, stage); err != nil {
				t.Fatalf("Advance to %s: %v", stage, err)
			}
		}

		updated, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusCanceled)
		if err != nil {
			t.Fatalf("Cancel from %s: %v", stage, err)
		}
		if updated.Status != models.StatusCanceled {
			t.Errorf("Expected CANCELED from %s, got %s", stage, updated.Status)
		}
	}
}

func TestCanceledOrderAcceptsNoForwardStage(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := placeTestOrder(t, db, "sink@example.com")

	if _, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusCanceled); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusDelivered)
	var transitionErr *store.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("Expected invalid transition error, got: %v", err)
	}

	// Canceling again is a no-op success.
	updated, err := store.AdvanceOrderStatus(ctx, db, order.ID, models.StatusCanceled)
	if err != nil {
		t.Fatalf("Re-cancel: %v", err)
	}
	if updated.Status != models.StatusCanceled {
		t.Errorf("Expected CANCELED, got %s", updated.Status)
	}
}

func TestAdvanceOrderStatusNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := store.AdvanceOrderStatus(context.Background(), db, 99999, models.StatusProcessing)
	if !errors.Is(err, database.ErrOrderNotFound) {
		t.Errorf("Expected order not found error, got: %v", err)
	}
}
