package product

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stocktide/stocktide/internal/auth"
	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/presentation/http/response"
	productrepo "github.com/stocktide/stocktide/internal/repository/product"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

// Handler exposes the product catalog over HTTP.
type Handler struct {
	products *productrepo.Repository
}

// NewHandler constructs a product Handler.
func NewHandler(products *productrepo.Repository) *Handler {
	return &Handler{products: products}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, authn *auth.Authenticator) {
	g := e.Group("/products", authn.Middleware())
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload entity.Product
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Name == "" {
		return b.WithError(errorbank.BadRequest("name is required")).Build()
	}
	if payload.Price < 0 {
		return b.WithError(errorbank.BadRequest("price must not be negative")).Build()
	}
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}

	if err := h.products.Save(c.Request().Context(), auth.Tenant(c), &payload); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(payload).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	product, err := h.products.Get(c.Request().Context(), auth.Tenant(c), id)
	if err != nil {
		if err == productrepo.ErrNotFound {
			return b.WithError(errorbank.ProductNotFound(id)).Build()
		}
		return b.WithError(err).Build()
	}
	return b.WithData(product).Build()
}
