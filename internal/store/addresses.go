package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mjyuu/vocaloidshop/internal/database"
	"github.com/mjyuu/vocaloidshop/internal/models"
)

type AddressParams struct {
	RecipientName string
	Line1         string
	Line2         string
	City          string
	State         string
	PostalCode    string
	Country       string
	Phone         string
	IsDefault     bool
}

const addressColumns = `id, user_id, recipient_name, line1, line2, city, state,
	postal_code, country, phone, is_default, created_at, updated_at`

func scanAddress(row interface {
	Scan(dest ...interface{}) error
}) (*models.Address, error) {
	addr := &models.Address{}
	err := row.Scan(
		&addr.ID,
		&addr.UserID,
		&addr.RecipientName,
		&addr.Line1,
		&addr.Line2,
		&addr.City,
		&addr.State,
		&addr.PostalCode,
		&addr.Country,
		&addr.Phone,
		&addr.IsDefault,
		&addr.CreatedAt,
		&addr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// CreateAddress saves a new address. When the address is flagged as the
// default, every other default for the user is cleared in the same
// transaction so at most one default exists at any time.
func CreateAddress(ctx context.Context, db *sql.DB, userID int64, params AddressParams) (*models.Address, error) {
	var addr *models.Address

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}

		if params.IsDefault {
			if err := clearDefaultAddresses(ctx, tx, userID); err != nil {
				return err
			}
		}

		row := tx.QueryRowContext(ctx,
			`INSERT INTO addresses (user_id, recipient_name, line1, line2, city, state,
			                        postal_code, country, phone, is_default, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			 RETURNING `+addressColumns,
			userID, params.RecipientName, params.Line1, params.Line2, params.City,
			params.State, params.PostalCode, params.Country, params.Phone, params.IsDefault)

		var err error
		if addr, err = scanAddress(row); err != nil {
			return fmt.Errorf("create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return addr, nil
}

func GetAddress(ctx context.Context, db *sql.DB, id int64) (*models.Address, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id)

	addr, err := scanAddress(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrAddressNotFound
		}
		return nil, fmt.Errorf("get address: %w", err)
	}

	return addr, nil
}

func ListUserAddresses(ctx context.Context, db *sql.DB, userID int64) ([]models.Address, error) {
	if _, err := GetUser(ctx, db, userID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, *addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return addresses, nil
}

// UpdateAddress rewrites every field of the address. Promoting an address to
// default clears the flag on its siblings in the same transaction.
func UpdateAddress(ctx context.Context, db *sql.DB, id int64, params AddressParams) (*models.Address, error) {
	var addr *models.Address

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var userID int64
		err := tx.QueryRowContext(ctx,
			"SELECT user_id FROM addresses WHERE id = $1 FOR UPDATE", id).Scan(&userID)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrAddressNotFound
			}
			return fmt.Errorf("lock address: %w", err)
		}

		if params.IsDefault {
			if err := clearDefaultAddresses(ctx, tx, userID); err != nil {
				return err
			}
		}

		row := tx.QueryRowContext(ctx,
			`UPDATE addresses
			 SET recipient_name = $1, line1 = $2, line2 = $3, city = $4, state = $5,
			     postal_code = $6, country = $7, phone = $8, is_default = $9, updated_at = NOW()
			 WHERE id = $10
			 RETURNING `+addressColumns,
			params.RecipientName, params.Line1, params.Line2, params.City, params.State,
			params.PostalCode, params.Country, params.Phone, params.IsDefault, id)

		if addr, err = scanAddress(row); err != nil {
			return fmt.Errorf("update address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return addr, nil
}

func DeleteAddress(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM addresses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrAddressNotFound
	}

	return nil
}

// SetDefaultAddress makes the given address the user's single default. The
// read, the sibling clear, and the set happen in one transaction, so no
// interleaving can leave two defaults behind.
func SetDefaultAddress(ctx context.Context, db *sql.DB, userID, addressID int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var ownerID int64
		err := tx.QueryRowContext(ctx,
			"SELECT user_id FROM addresses WHERE id = $1 FOR UPDATE", addressID).Scan(&ownerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrAddressNotFound
			}
			return fmt.Errorf("lock address: %w", err)
		}

		if ownerID != userID {
			return database.ErrAddressForbidden
		}

		if err := clearDefaultAddresses(ctx, tx, userID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE addresses SET is_default = TRUE, updated_at = NOW() WHERE id = $1",
			addressID); err != nil {
			return fmt.Errorf("set default address: %w", err)
		}

		return nil
	})
}

func clearDefaultAddresses(ctx context.Context, tx *sql.Tx, userID int64) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE addresses SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default",
		userID); err != nil {
		return fmt.Errorf("clear default addresses: %w", err)
	}
	return nil
}
