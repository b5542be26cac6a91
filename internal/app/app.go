package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/mesa/internal/cache"
	"github.com/Additional-Code/mesa/internal/config"
	"github.com/Additional-Code/mesa/internal/database"
	"github.com/Additional-Code/mesa/internal/eventbus"
	"github.com/Additional-Code/mesa/internal/logger"
	"github.com/Additional-Code/mesa/internal/messaging"
	"github.com/Additional-Code/mesa/internal/observability"
	repositoryorder "github.com/Additional-Code/mesa/internal/repository/order"
	repositoryrestaurant "github.com/Additional-Code/mesa/internal/repository/restaurant"
	httpserver "github.com/Additional-Code/mesa/internal/server/http"
	serviceorder "github.com/Additional-Code/mesa/internal/service/order"
	transporthttp "github.com/Additional-Code/mesa/internal/transport/http"
	"github.com/Additional-Code/mesa/internal/worker"
	workerorder "github.com/Additional-Code/mesa/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	eventbus.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryorder.Module,
	repositoryrestaurant.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
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
