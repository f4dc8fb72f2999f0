package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mjyuu/vocaloidshop/internal/events"
	"github.com/mjyuu/vocaloidshop/internal/models"
	"github.com/mjyuu/vocaloidshop/internal/store"
)

type Handler struct {
	db     *sql.DB
	events *events.Publisher
	logger zerolog.Logger
}

func NewHandler(db *sql.DB, publisher *events.Publisher, logger zerolog.Logger) *Handler {
	return &Handler{db: db, events: publisher, logger: logger}
}

func (h *Handler) Register(e *echo.Echo) {
	e.POST("/users", h.CreateUser)
	e.GET("/users/:id", h.GetUser)

	e.POST("/products", h.CreateProduct)
	e.GET("/products", h.ListProducts)
	e.GET("/products/:id", h.GetProduct)
	e.PUT("/products/:id/price", h.SetProductPrice)

	e.POST("/users/:id/cart", h.AddToCart)
	e.GET("/users/:id/cart", h.GetCart)
	e.GET("/users/:id/cart/total", h.GetCartTotal)
	e.DELETE("/users/:id/cart", h.ClearCart)
	e.PUT("/cart/:id", h.UpdateCartItem)
	e.DELETE("/cart/:id", h.RemoveCartItem)

	e.POST("/users/:id/addresses", h.CreateAddress)
	e.GET("/users/:id/addresses", h.ListAddresses)
	e.PUT("/users/:id/addresses/:addressID/default", h.SetDefaultAddress)
	e.GET("/addresses/:id", h.GetAddress)
	e.PUT("/addresses/:id", h.UpdateAddress)
	e.DELETE("/addresses/:id", h.DeleteAddress)

	e.POST("/users/:id/orders", h.PlaceOrder)
	e.GET("/users/:id/orders", h.ListUserOrders)
	e.GET("/orders", h.ListAllOrders)
	e.GET("/orders/:id", h.GetOrder)
	e.PUT("/orders/:id/status", h.AdvanceOrderStatus)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := store.CreateUser(c.Request().Context(), h.db, req.Email, req.Name)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	user, err := store.GetUser(c.Request().Context(), h.db, id)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *Handler) CreateProduct(c echo.Context) error {
	var req struct {
		SKU         string `json:"sku"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       int64  `json:"price"`
		Stock       int    `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	product, err := store.CreateProduct(c.Request().Context(), h.db,
		req.SKU, req.Name, req.Description, req.Price, req.Stock)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, product)
}

func (h *Handler) ListProducts(c echo.Context) error {
	page, pageSize := pageParams(c)

	result, err := store.ListProducts(c.Request().Context(), h.db, page, pageSize)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid product id")
	}

	product, err := store.GetProduct(c.Request().Context(), h.db, id)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *Handler) SetProductPrice(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid product id")
	}

	var req struct {
		Price int64 `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := store.SetProductPrice(c.Request().Context(), h.db, id, req.Price); err != nil {
		return h.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddToCart(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Quantity <= 0 {
		return badRequest(c, "quantity must be positive")
	}

	item, err := store.AddToCart(c.Request().Context(), h.db, userID, req.ProductID, req.Quantity)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) GetCart(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	items, err := store.GetUserCart(c.Request().Context(), h.db, userID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetCartTotal(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	total, err := store.CartTotal(c.Request().Context(), h.db, userID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]int64{"total": total})
}

func (h *Handler) ClearCart(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	if err := store.ClearCart(c.Request().Context(), h.db, userID); err != nil {
		return h.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateCartItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid cart item id")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := store.UpdateCartItemQuantity(c.Request().Context(), h.db, id, req.Quantity); err != nil {
		return h.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveCartItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid cart item id")
	}

	if err := store.RemoveFromCart(c.Request().Context(), h.db, id); err != nil {
		return h.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type addressRequest struct {
	RecipientName string `json:"recipient_name"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
	IsDefault     bool   `json:"is_default"`
}

func (r addressRequest) params() store.AddressParams {
	return store.AddressParams{
		RecipientName: r.RecipientName,
		Line1:         r.Line1,
		Line2:         r.Line2,
		City:          r.City,
		State:         r.State,
		PostalCode:    r.PostalCode,
		Country:       r.Country,
		Phone:         r.Phone,
		IsDefault:     r.IsDefault,
	}
}

func (h *Handler) CreateAddress(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	addr, err := store.CreateAddress(c.Request().Context(), h.db, userID, req.params())
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, addr)
}

func (h *Handler) ListAddresses(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	addresses, err := store.ListUserAddresses(c.Request().Context(), h.db, userID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, addresses)
}

func (h *Handler) GetAddress(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid address id")
	}

	addr, err := store.GetAddress(c.Request().Context(), h.db, id)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, addr)
}

func (h *Handler) UpdateAddress(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid address id")
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	addr, err := store.UpdateAddress(c.Request().Context(), h.db, id, req.params())
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, addr)
}

func (h *Handler) DeleteAddress(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid address id")
	}

	if err := store.DeleteAddress(c.Request().Context(), h.db, id); err != nil {
		return h.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetDefaultAddress(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	addressID, err := paramID(c, "addressID")
	if err != nil {
		return badRequest(c, "invalid address id")
	}

	if err := store.SetDefaultAddress(c.Request().Context(), h.db, userID, addressID); err != nil {
		return h.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PlaceOrder(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var req struct {
		AddressID *int64 `json:"address_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	order, err := store.PlaceOrder(c.Request().Context(), h.db, userID, req.AddressID)
	if err != nil {
		return h.respondError(c, err)
	}

	h.events.OrderPlaced(c.Request().Context(), order)

	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListUserOrders(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	orders, err := store.ListUserOrders(c.Request().Context(), h.db, userID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *Handler) ListAllOrders(c echo.Context) error {
	page, pageSize := pageParams(c)

	result, err := store.ListAllOrders(c.Request().Context(), h.db, page, pageSize)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid order id")
	}

	order, err := store.GetOrder(c.Request().Context(), h.db, id)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *Handler) AdvanceOrderStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid order id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return badRequest(c, err.Error())
	}

	order, err := store.AdvanceOrderStatus(c.Request().Context(), h.db, id, status)
	if err != nil {
		return h.respondError(c, err)
	}

	h.events.OrderStatusChanged(c.Request().Context(), order)

	return c.JSON(http.StatusOK, order)
}

func paramID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}
