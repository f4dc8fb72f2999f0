package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mjyuu/vocaloidshop/internal/database"
	"github.com/mjyuu/vocaloidshop/internal/models"
)

// PlaceOrder converts the user's cart into an immutable order. In one
// transaction it validates the user and (optional) shipping address, walks
// the cart lines in insertion order checking and decrementing stock,
// freezes the current product price on each order item, writes the order
// with its embedded shipping snapshot, and clears the cart. Any failure
// rolls the whole thing back: no stock decrement, order row, or cart
// deletion survives.
func PlaceOrder(ctx context.Context, db *sql.DB, userID int64, addressID *int64) (*models.Order, error) {
	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}

		lines, err := cartLinesForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return database.ErrCartEmpty
		}

		var shipping *models.Address
		if addressID != nil {
			shipping, err = addressForOrder(ctx, tx, *addressID, userID)
			if err != nil {
				return err
			}
		}

		var totalAmount int64
		items := make([]models.OrderItem, 0, len(lines))

		for _, line := range lines {
			product, err := lockProduct(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}

			if product.StockQuantity < line.Quantity {
				return &InsufficientStockError{ProductName: product.Name}
			}

			if err := DecrementStock(ctx, tx, product, line.Quantity); err != nil {
				return err
			}

			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       product.Price,
			})
			totalAmount += product.Price * int64(line.Quantity)
		}

		order = &models.Order{
			UserID:      userID,
			Status:      models.StatusPaymentReceived,
			TotalAmount: totalAmount,
		}
		if shipping != nil {
			order.ShipRecipientName = shipping.RecipientName
			order.ShipLine1 = shipping.Line1
			order.ShipLine2 = shipping.Line2
			order.ShipCity = shipping.City
			order.ShipState = shipping.State
			order.ShipPostalCode = shipping.PostalCode
			order.ShipCountry = shipping.Country
			order.ShipPhone = shipping.Phone
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, status, total_amount, ordered_at,
			                     ship_recipient_name, ship_line1, ship_line2, ship_city,
			                     ship_state, ship_postal_code, ship_country, ship_phone,
			                     created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
			 RETURNING id, ordered_at, created_at, updated_at`,
			order.UserID, order.Status, order.TotalAmount,
			order.ShipRecipientName, order.ShipLine1, order.ShipLine2, order.ShipCity,
			order.ShipState, order.ShipPostalCode, order.ShipCountry, order.ShipPhone).Scan(
			&order.ID,
			&order.OrderedAt,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price, created_at)
				 VALUES ($1, $2, $3, $4, NOW())
				 RETURNING id, created_at`,
				items[i].OrderID, items[i].ProductID, items[i].Quantity, items[i].Price).Scan(
				&items[i].ID,
				&items[i].CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}
		order.Items = items

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// cartLinesForUpdate reads the user's cart lines in insertion order, locked
// so a concurrent placement or cart mutation cannot slip between the read
// and the final delete.
func cartLinesForUpdate(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, user_id, product_id, quantity, price, created_at, updated_at
		 FROM cart_items
		 WHERE user_id = $1
		 ORDER BY id
		 FOR UPDATE`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	defer rows.Close()

	var lines []models.CartItem
	for rows.Next() {
		var line models.CartItem
		err := rows.Scan(
			&line.ID,
			&line.UserID,
			&line.ProductID,
			&line.Quantity,
			&line.Price,
			&line.CreatedAt,
			&line.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// addressForOrder resolves the shipping address and enforces that it belongs
// to the ordering user.
func addressForOrder(ctx context.Context, tx *sql.Tx, addressID, userID int64) (*models.Address, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, addressID)

	addr, err := scanAddress(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrAddressNotFound
		}
		return nil, fmt.Errorf("get address: %w", err)
	}

	if addr.UserID != userID {
		return nil, database.ErrAddressForbidden
	}

	return addr, nil
}

// AdvanceOrderStatus moves an order to the requested status. CANCELED is
// accepted unconditionally from any state, DELIVERED included. Among the
// fulfillment stages only forward or same-stage moves succeed; a regression
// fails with InvalidTransitionError and leaves the row untouched.
func AdvanceOrderStatus(ctx context.Context, db *sql.DB, orderID int64, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("unknown order status %q", next)
	}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var current models.OrderStatus
		err := tx.QueryRowContext(ctx,
			"SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&current)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if !models.CanTransition(current, next) {
			return &InvalidTransitionError{From: current, To: next}
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
			next, orderID); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetOrder(ctx, db, orderID)
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, user_id, status, total_amount, ordered_at,
		       ship_recipient_name, ship_line1, ship_line2, ship_city,
		       ship_state, ship_postal_code, ship_country, ship_phone,
		       created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalAmount,
		&order.OrderedAt,
		&order.ShipRecipientName,
		&order.ShipLine1,
		&order.ShipLine2,
		&order.ShipCity,
		&order.ShipState,
		&order.ShipPostalCode,
		&order.ShipCountry,
		&order.ShipPhone,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsQuery := `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price, oi.created_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	rows, err := db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Items = items

	return order, nil
}

// ListUserOrders returns every order of the user, most recent first.
func ListUserOrders(ctx context.Context, db *sql.DB, userID int64) ([]models.Order, error) {
	if _, err := GetUser(ctx, db, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, status, total_amount, ordered_at,
		       ship_recipient_name, ship_line1, ship_line2, ship_city,
		       ship_state, ship_postal_code, ship_country, ship_phone,
		       created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY ordered_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// ListAllOrders pages through every order in the system in stable id order.
func ListAllOrders(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, user_id, status, total_amount, ordered_at,
		       ship_recipient_name, ship_line1, ship_line2, ship_city,
		       ship_state, ship_postal_code, ship_country, ship_phone,
		       created_at, updated_at
		FROM orders
		ORDER BY id
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	return &OffsetPage{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.TotalAmount,
			&order.OrderedAt,
			&order.ShipRecipientName,
			&order.ShipLine1,
			&order.ShipLine2,
			&order.ShipCity,
			&order.ShipState,
			&order.ShipPostalCode,
			&order.ShipCountry,
			&order.ShipPhone,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}
