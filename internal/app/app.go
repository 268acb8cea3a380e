package app

import (
	"go.uber.org/fx"

	"github.com/stocktide/stocktide/internal/audit"
	"github.com/stocktide/stocktide/internal/auth"
	"github.com/stocktide/stocktide/internal/config"
	"github.com/stocktide/stocktide/internal/logger"
	"github.com/stocktide/stocktide/internal/messaging"
	"github.com/stocktide/stocktide/internal/notify"
	"github.com/stocktide/stocktide/internal/observability"
	repositoryorder "github.com/stocktide/stocktide/internal/repository/order"
	repositoryproduct "github.com/stocktide/stocktide/internal/repository/product"
	repositorypromotion "github.com/stocktide/stocktide/internal/repository/promotion"
	repositorystock "github.com/stocktide/stocktide/internal/repository/stock"
	httpserver "github.com/stocktide/stocktide/internal/server/http"
	serviceorder "github.com/stocktide/stocktide/internal/service/order"
	"github.com/stocktide/stocktide/internal/store"
	transporthttp "github.com/stocktide/stocktide/internal/transport/http"
	"github.com/stocktide/stocktide/internal/worker"
	workerorder "github.com/stocktide/stocktide/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	store.Module,
	messaging.Module,
	observability.Module,
	audit.Module,
	notify.Module,
	repositoryorder.Module,
	repositoryproduct.Module,
	repositorystock.Module,
	repositorypromotion.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	auth.Module,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
