package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/checkout/internal/app/api/server"
	"github.com/fatflowers/checkout/internal/app/repository"
	"github.com/fatflowers/checkout/internal/app/service/checkout"
	notificationhandler "github.com/fatflowers/checkout/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/checkout/internal/app/service/notification_log"
	"github.com/fatflowers/checkout/internal/app/service/order"
	"github.com/fatflowers/checkout/internal/app/service/reconcile"
	"github.com/fatflowers/checkout/internal/app/service/statistics"
	"github.com/fatflowers/checkout/internal/app/service/transaction"
	"github.com/fatflowers/checkout/internal/platform/cache"
	"github.com/fatflowers/checkout/internal/platform/db"
	"github.com/fatflowers/checkout/internal/platform/events"
	"github.com/fatflowers/checkout/internal/platform/sep"
	"github.com/fatflowers/checkout/pkg/config"
	"github.com/fatflowers/checkout/pkg/logger"
	"github.com/fatflowers/checkout/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	cache.Module,
	events.Module,
	sep.Module,
	repository.Module,
	order.Module,
	checkout.Module,
	reconcile.Module,
	transaction.Module,
	statistics.Module,
	notificationlog.Module,
	fx.Provide(func(s *notificationlog.Service) notificationhandler.LogWriter { return s }),
	notificationhandler.Module,
	server.Module,
)
