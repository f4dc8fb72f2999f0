package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mjyuu/vocaloidshop/internal/database"
	"github.com/mjyuu/vocaloidshop/internal/models"
)

// AddToCart puts quantity units of a product into the user's cart. A product
// already in the cart has its quantity increased instead of gaining a second
// line; the line price is frozen at the product's price when first added.
func AddToCart(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	var item *models.CartItem

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}

		var price int64
		err := tx.QueryRowContext(ctx,
			"SELECT price FROM products WHERE id = $1", productID).Scan(&price)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("get product price: %w", err)
		}

		item = &models.CartItem{}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO cart_items (user_id, product_id, quantity, price, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 ON CONFLICT (user_id, product_id)
			 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
			 RETURNING id, user_id, product_id, quantity, price, created_at, updated_at`,
			userID, productID, quantity, price).Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert cart item: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// GetUserCart returns the user's cart lines in insertion order.
func GetUserCart(ctx context.Context, db *sql.DB, userID int64) ([]models.CartItem, error) {
	if _, err := GetUser(ctx, db, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, product_id, quantity, price, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY id`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpdateCartItemQuantity sets the line's quantity; zero or negative removes
// the line.
func UpdateCartItemQuantity(ctx context.Context, db *sql.DB, cartItemID int64, quantity int) error {
	var result sql.Result
	var err error

	if quantity <= 0 {
		result, err = db.ExecContext(ctx,
			"DELETE FROM cart_items WHERE id = $1", cartItemID)
	} else {
		result, err = db.ExecContext(ctx,
			"UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2",
			quantity, cartItemID)
	}
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

func RemoveFromCart(ctx context.Context, db *sql.DB, cartItemID int64) error {
	result, err := db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = $1", cartItemID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

func ClearCart(ctx context.Context, db *sql.DB, userID int64) error {
	if _, err := GetUser(ctx, db, userID); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return nil
}

func CartTotal(ctx context.Context, db *sql.DB, userID int64) (int64, error) {
	if _, err := GetUser(ctx, db, userID); err != nil {
		return 0, err
	}

	var total int64
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(price * quantity), 0) FROM cart_items WHERE user_id = $1",
		userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("cart total: %w", err)
	}

	return total, nil
}
