package models

import "time"

// All monetary amounts are int64 in the smallest currency unit.

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID            int64     `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         int64     `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Address struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	RecipientName string    `json:"recipient_name"`
	Line1         string    `json:"line1"`
	Line2         string    `json:"line2,omitempty"`
	City          string    `json:"city"`
	State         string    `json:"state,omitempty"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `json:"country"`
	Phone         string    `json:"phone"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CartItem is one line of a user's pending cart. Price is frozen at the
// moment the product was added; there is at most one line per
// (user, product) pair.
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c CartItem) Subtotal() int64 {
	return c.Price * int64(c.Quantity)
}

// Order is immutable after placement except for Status. The ship_* fields
// are a flat copy of the chosen address taken at order time, so later edits
// or deletion of the address never touch the order.
type Order struct {
	ID                int64       `json:"id"`
	UserID            int64       `json:"user_id"`
	Status            OrderStatus `json:"status"`
	TotalAmount       int64       `json:"total_amount"`
	OrderedAt         time.Time   `json:"ordered_at"`
	ShipRecipientName string      `json:"ship_recipient_name,omitempty"`
	ShipLine1         string      `json:"ship_line1,omitempty"`
	ShipLine2         string      `json:"ship_line2,omitempty"`
	ShipCity          string      `json:"ship_city,omitempty"`
	ShipState         string      `json:"ship_state,omitempty"`
	ShipPostalCode    string      `json:"ship_postal_code,omitempty"`
	ShipCountry       string      `json:"ship_country,omitempty"`
	ShipPhone         string      `json:"ship_phone,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	Items             []OrderItem `json:"items,omitempty"`
}

// OrderItem freezes the product price and requested quantity at order time.
// ProductName is joined in on reads for display only.
type OrderItem struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

func (i OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}
