package stock

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stocktide/stocktide/internal/auth"
	"github.com/stocktide/stocktide/internal/presentation/http/response"
	stockrepo "github.com/stocktide/stocktide/internal/repository/stock"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

// Handler exposes the stock ledger over HTTP. Writes here are the manual
// adjustments; order creation decrements stock through its own transaction.
type Handler struct {
	stocks *stockrepo.Repository
}

// NewHandler constructs a stock Handler.
func NewHandler(stocks *stockrepo.Repository) *Handler {
	return &Handler{stocks: stocks}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, authn *auth.Authenticator) {
	g := e.Group("/stock", authn.Middleware())
	g.POST("", h.create)
	g.GET("/:productId", h.get)
	g.PUT("/:productId", h.update)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.ProductID == "" {
		return b.WithError(errorbank.BadRequest("productId is required")).Build()
	}
	if payload.Quantity < 0 {
		return b.WithError(errorbank.BadRequest("quantity must not be negative")).Build()
	}

	if err := h.stocks.Set(c.Request().Context(), auth.Tenant(c), payload.ProductID, payload.Quantity); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(payload).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	productID := c.Param("productId")

	stock, err := h.stocks.Get(c.Request().Context(), auth.Tenant(c), productID)
	if err != nil {
		return b.WithError(err).Build()
	}
	if stock == nil {
		return b.WithError(errorbank.NotFound("stock not found", errorbank.WithDetail("product_id", productID))).Build()
	}
	return b.WithData(stock).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	productID := c.Param("productId")

	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Quantity < 0 {
		return b.WithError(errorbank.BadRequest("quantity must not be negative")).Build()
	}

	tenant := auth.Tenant(c)
	existing, err := h.stocks.Get(c.Request().Context(), tenant, productID)
	if err != nil {
		return b.WithError(err).Build()
	}
	if existing == nil {
		return b.WithError(errorbank.NotFound("stock not found", errorbank.WithDetail("product_id", productID))).Build()
	}

	if err := h.stocks.Set(c.Request().Context(), tenant, productID, payload.Quantity); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"productId": productID, "quantity": payload.Quantity}).Build()
}
