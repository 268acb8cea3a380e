package audit

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stocktide/stocktide/internal/audit"
	"github.com/stocktide/stocktide/internal/auth"
	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/presentation/http/response"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

// Handler exposes the audit trail over HTTP.
type Handler struct {
	trail *audit.Trail
}

// NewHandler constructs an audit Handler.
func NewHandler(trail *audit.Trail) *Handler {
	return &Handler{trail: trail}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, authn *auth.Authenticator) {
	g := e.Group("/audit", authn.Middleware())
	g.GET("", h.recent)
}

func (h *Handler) recent(c echo.Context) error {
	b := response.New(c)

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return b.WithError(errorbank.BadRequest("limit must be a positive integer")).Build()
		}
		limit = parsed
	}

	entries, err := h.trail.Recent(c.Request().Context(), limit)
	if err != nil {
		return b.WithError(err).Build()
	}
	if entries == nil {
		entries = []entity.AuditEntry{}
	}
	return b.WithData(entries).Build()
}
