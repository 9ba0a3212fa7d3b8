package cmd

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/config"
	"example.com/gamestore/services/games/internal/cache"
	"example.com/gamestore/services/games/internal/database"
	"example.com/gamestore/services/games/internal/events"
	"example.com/gamestore/services/games/internal/eventstore"
	"example.com/gamestore/services/games/internal/messaging"
	"example.com/gamestore/services/games/internal/metrics"
	"example.com/gamestore/services/games/internal/payment"
	"example.com/gamestore/services/games/internal/repositories"
	"example.com/gamestore/services/games/internal/search"
	"example.com/gamestore/services/games/internal/services"
	"example.com/gamestore/services/games/internal/tracing"
)

// deps bundles everything a command needs after wiring
type deps struct {
	db              *database.DB
	tracer          tracing.Tracer
	metrics         *metrics.Metrics
	eventLog        eventstore.EventStore
	bus             events.Bus
	notifier        messaging.ServiceBusClient
	gameService     *services.GameService
	purchaseService *services.PurchaseService
	searchService   *services.SearchService
}

// initDependencies builds the full dependency graph shared by the api and
// worker commands. The search provider is chosen here once: Elasticsearch
// when enabled, otherwise the no-op variant.
func initDependencies(cfg config.Config) (*deps, error) {
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.AutoMigrate(); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize tracer")
	}

	var gameCache services.GameCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		} else {
			gameCache = redisCache
		}
	}

	var provider search.GameSearchProvider
	if cfg.Elastic.Enabled {
		elastic, err := search.NewElasticProvider(cfg.Elastic)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize Elasticsearch")
		}
		provider = elastic
	} else {
		provider = search.NewNoopProvider()
	}

	metricsCollector := metrics.NewMetrics()
	eventLog := eventstore.NewGormEventStore(db.Write, db.Read)
	gameRepo := repositories.NewGameRepository(db.Write, db.Read)
	purchaseRepo := repositories.NewPurchaseRepository(db.Write, db.Read)
	gateway := payment.NewClient(cfg.Payment, tracer)
	bus := events.NewInMemoryBus()

	gameService := services.NewGameService(gameRepo, gameCache, provider, eventLog, metricsCollector)
	purchaseService := services.NewPurchaseService(
		db.Write, gameRepo, purchaseRepo, gateway, bus, eventLog,
		metricsCollector, cfg.Payment.GatewayEnabled,
	)
	searchService := services.NewSearchService(provider, purchaseRepo)

	d := &deps{
		db:              db,
		tracer:          tracer,
		metrics:         metricsCollector,
		eventLog:        eventLog,
		bus:             bus,
		gameService:     gameService,
		purchaseService: purchaseService,
		searchService:   searchService,
	}

	// Event handler chain: payment approved -> purchase registration ->
	// purchase completed -> notification.
	bus.Subscribe(events.PaymentApproved, events.NewPaymentApprovedHandler(purchaseService, bus))
	bus.Subscribe(events.PurchaseCompleted, events.NewPurchaseCompletedHandler(bus))

	if cfg.Azure.ConnectionString != "" {
		notifier, err := messaging.NewServiceBusClient(cfg.Azure, cfg.Azure.NotificationQueue, cfg.Azure.PaymentQueue, "games")
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize Service Bus client")
		}
		d.notifier = notifier
		bus.Subscribe(events.Notification, events.NewNotificationHandler(notifier))
	} else {
		log.Warn().Msg("Service Bus connection string not set, notifications will not be delivered")
	}

	return d, nil
}

// close releases connections held by the dependency graph
func (d *deps) close() {
	if d.notifier != nil {
		if err := d.notifier.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Service Bus client")
		}
	}
	d.tracer.Close()
	if err := d.db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connections")
	}
}
