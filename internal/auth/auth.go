// Package auth resolves the tenant behind each request from a JWT bearer
// token. Every tenant-scoped route goes through the middleware.
package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/stocktide/stocktide/internal/config"
	"github.com/stocktide/stocktide/internal/presentation/http/response"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

const tenantContextKey = "auth.tenant"

// devTenantHeader supplies the tenant when auth is disabled (local runs, tests).
const devTenantHeader = "X-Tenant-ID"

// Module provides the authenticator to Fx.
var Module = fx.Provide(NewAuthenticator)

// Authenticator builds the echo middleware guarding tenant routes.
type Authenticator struct {
	enabled bool
	secret  []byte
	logger  *zap.Logger
}

// NewAuthenticator wires an Authenticator from configuration.
func NewAuthenticator(cfg config.Config, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		enabled: cfg.Auth.Enabled,
		secret:  []byte(cfg.Auth.JWTSecret),
		logger:  logger,
	}
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved tenant id on the request context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !a.enabled {
				c.Set(tenantContextKey, c.Request().Header.Get(devTenantHeader))
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return response.New(c).WithError(errorbank.Unauthorized("missing bearer token")).Build()
			}

			token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
				return a.secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				a.logger.Debug("token rejected", zap.Error(err))
				return response.New(c).WithError(errorbank.Unauthorized("invalid token", errorbank.WithCause(err))).Build()
			}

			tenant, err := token.Claims.GetSubject()
			if err != nil || tenant == "" {
				return response.New(c).WithError(errorbank.Unauthorized("token has no subject")).Build()
			}

			c.Set(tenantContextKey, tenant)
			return next(c)
		}
	}
}

// Tenant returns the tenant id resolved for the request, or "".
func Tenant(c echo.Context) string {
	tenant, _ := c.Get(tenantContextKey).(string)
	return tenant
}

// SetTenant stores a tenant id on the context; used by tests that bypass the
// middleware.
func SetTenant(c echo.Context, tenant string) {
	c.Set(tenantContextKey, tenant)
}
