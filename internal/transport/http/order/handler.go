package order

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stocktide/stocktide/internal/auth"
	"github.com/stocktide/stocktide/internal/dto"
	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/presentation/http/response"
	service "github.com/stocktide/stocktide/internal/service/order"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/stocktide/stocktide/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, authn *auth.Authenticator) {
	g := e.Group("/orders", authn.Middleware())
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.GET("/status/:status", h.listByStatus)
	g.GET("/supplier/:supplierId", h.listBySupplier)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int("order.items", len(payload.Items)),
	))
	defer span.End()

	ord, err := h.svc.Create(ctx, auth.Tenant(c), payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(ord)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, auth.Tenant(c), c.QueryParam("sort"), c.QueryParam("_order"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	ord, err := h.svc.Get(ctx, auth.Tenant(c), id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(ord)).Build()
}

func (h *Handler) listByStatus(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listByStatus")
	defer span.End()

	orders, err := h.svc.ListByStatus(ctx, auth.Tenant(c), c.Param("status"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) listBySupplier(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listBySupplier")
	defer span.End()

	orders, err := h.svc.ListBySupplier(ctx, auth.Tenant(c), c.Param("supplierId"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var payload dto.OrderUpdate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	ord, err := h.svc.Update(ctx, auth.Tenant(c), id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(ord)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	found, err := h.svc.Delete(ctx, auth.Tenant(c), id)
	if err != nil {
		return b.WithError(err).Build()
	}
	if !found {
		return b.WithError(errorbank.OrderNotFound(id)).Build()
	}

	return b.WithData(map[string]string{"message": "order deleted"}).Build()
}

func toDTO(ord *entity.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:                ord.ID,
		Items:             ord.Items,
		Status:            ord.Status,
		Supplier:          ord.Supplier,
		CustomerID:        ord.CustomerID,
		CreatedAt:         ord.CreatedAt,
		OriginalTotal:     ord.OriginalTotal,
		Discount:          ord.Discount,
		Total:             ord.Total,
		AppliedPromotions: ord.AppliedPromotions,
	}
}

func toDTOs(orders []entity.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		out[i] = toDTO(&orders[i])
	}
	return out
}
