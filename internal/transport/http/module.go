// Package http aggregates the HTTP transport handlers.
package http

import (
	"go.uber.org/fx"

	"github.com/stocktide/stocktide/internal/transport/http/audit"
	"github.com/stocktide/stocktide/internal/transport/http/order"
	"github.com/stocktide/stocktide/internal/transport/http/product"
	"github.com/stocktide/stocktide/internal/transport/http/promotion"
	"github.com/stocktide/stocktide/internal/transport/http/stock"
)

// Module bundles every HTTP handler module.
var Module = fx.Options(
	order.Module,
	product.Module,
	stock.Module,
	promotion.Module,
	audit.Module,
)
