package promotion

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stocktide/stocktide/internal/auth"
	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/presentation/http/response"
	promotionrepo "github.com/stocktide/stocktide/internal/repository/promotion"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

// Handler exposes the shared promotion catalog over HTTP. Promotions are
// global; authentication still applies but no tenant prefix is involved.
type Handler struct {
	promotions *promotionrepo.Repository
}

// NewHandler constructs a promotion Handler.
func NewHandler(promotions *promotionrepo.Repository) *Handler {
	return &Handler{promotions: promotions}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, authn *auth.Authenticator) {
	g := e.Group("/promotions", authn.Middleware())
	g.POST("", h.create)
	g.GET("", h.list)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload entity.Promotion
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Type != entity.PromotionTypePercentage {
		return b.WithError(errorbank.BadRequest("type must be percentage")).Build()
	}
	if payload.Category == "" {
		return b.WithError(errorbank.BadRequest("category is required")).Build()
	}
	if payload.DiscountPercent <= 0 || payload.DiscountPercent > 100 {
		return b.WithError(errorbank.BadRequest("discountPercent must be between 0 and 100")).Build()
	}
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}

	if err := h.promotions.Save(c.Request().Context(), &payload); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(payload).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	promos, err := h.promotions.ListActive(c.Request().Context())
	if err != nil {
		return b.WithError(err).Build()
	}
	if promos == nil {
		promos = []entity.Promotion{}
	}
	return b.WithData(promos).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	if err := h.promotions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"message": "promotion deleted"}).Build()
}
