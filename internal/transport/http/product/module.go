package product

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	"github.com/stocktide/stocktide/internal/auth"
)

// Module wires HTTP product handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, authn *auth.Authenticator) {
		Register(e, h, authn)
	}),
)
