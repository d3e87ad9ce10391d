package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"stayrates/internal/app/commands"
	availabilityapp "stayrates/internal/app/handlers/availability"
	quoteapp "stayrates/internal/app/handlers/quote"
	rulesapp "stayrates/internal/app/handlers/rules"
	"stayrates/internal/app/middleware"
	appoutbox "stayrates/internal/app/outbox"
	"stayrates/internal/app/policies"
	"stayrates/internal/app/queries"
	"stayrates/internal/app/uow"
	domaincalendarevents "stayrates/internal/domain/calendarevents"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/money"
	infraavailability "stayrates/internal/infra/availability"
	"stayrates/internal/infra/broker/kafka"
	infraevents "stayrates/internal/infra/calendarevents"
	"stayrates/internal/infra/config"
	mongodb "stayrates/internal/infra/db/mongo"
	ginserver "stayrates/internal/infra/http/gin"
	"stayrates/internal/infra/obs"
	infraoutbox "stayrates/internal/infra/outbox"
	infrapricing "stayrates/internal/infra/pricing"
	"stayrates/internal/infra/storage/memory"
	redisstore "stayrates/internal/infra/storage/redis"
	s3store "stayrates/internal/infra/storage/s3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := obs.NewMetrics(registry)

	app, err := buildApplication(cfg, logger, metrics)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, registry, app.handlers)

	if app.properties != nil {
		path := getenv("PROPERTIES_FIXTURES", "")
		if path == "" {
			path = defaultFixturesPath("properties.json")
		}
		if err := app.loadPropertyFixtures(ctx, path, logger); err != nil {
			logger.Warn("property fixtures load failed", "error", err, "path", path)
		}
	}
	if app.events != nil {
		path := cfg.EventsFixtures
		if path == "" {
			path = defaultFixturesPath("events.json")
		}
		if err := app.loadEventFixtures(path, logger); err != nil {
			logger.Warn("event fixtures load failed", "error", err, "path", path)
		}
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	ready      func() error
	worker     *infraoutbox.Worker
	properties domainproperty.Repository
	events     *memory.EventsSource
	closers    []func() error
}

func buildApplication(cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (application, error) {
	app := application{ready: func() error { return nil }}

	var (
		uowFactory  uow.UoWFactory
		rulesRepo   domainpricing.RuleSetRepository
		properties  domainproperty.Repository
		ledger      policies.BookingLedgerPort
		outboxStore appoutbox.Outbox
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		app.closers = append(app.closers, func() error {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Close(closeCtx)
		})

		rulesRepo = mongodb.NewRuleSetRepository(client.DB)
		rateRows := mongodb.NewRateRowRepository(client.DB)
		audit := mongodb.NewAuditRepository(client.DB)
		properties = mongodb.NewPropertyRepository(client.DB)
		ledger = mongodb.NewBookingLedger(client.DB)
		uowFactory = mongodb.Factory{
			DB:           client.DB,
			RulesRepo:    rulesRepo,
			RateRowsRepo: rateRows,
			AuditLog:     audit,
			Properties:   properties,
		}

		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, fmt.Errorf("kafka connect: %w", err)
		}
		app.closers = append(app.closers, producer.Close)
		app.worker = &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Metrics:     metrics,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
		}

		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
	default:
		rules := memory.NewRuleSetRepository()
		rateRows := memory.NewRateRowRepository()
		audit := memory.NewChangeLog()
		props := memory.NewPropertyRepository()
		rulesRepo = rules
		properties = props
		ledger = memory.NewBookingLedger()
		outboxStore = memory.NewOutbox(nil)
		uowFactory = memory.Factory{
			RulesRepo:    rules,
			RateRowsRepo: rateRows,
			AuditLog:     audit,
			Properties:   props,
		}
		app.properties = props
	}

	var (
		locker  middleware.Locker
		idStore middleware.IdempotencyStore
	)
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		app.closers = append(app.closers, rdb.Close)
		locker = &redisstore.Locker{Client: rdb, TTL: cfg.PropertyLockTTL}
		idStore = &redisstore.IdempotencyStore{Client: rdb, TTL: cfg.IdempotencyTTL}
	} else {
		locker = memory.NewLocker()
		idStore = memory.NewIdempotencyStore()
	}

	var eventsPort policies.EventsPort
	if cfg.EventsURL != "" {
		eventsPort = &infraevents.HTTPSource{
			Endpoint: cfg.EventsURL,
			Client:   &http.Client{Timeout: cfg.QuoteTimeout},
			Logger:   logger,
		}
	} else {
		src := memory.NewEventsSource()
		app.events = src
		eventsPort = src
	}

	var archive policies.ImportArchivePort = s3store.NoopArchive{}
	if s3client, err := s3store.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger); err != nil {
		logger.Warn("import archive disabled", "error", err)
	} else {
		archive = s3client
	}

	resolver := &infraavailability.Resolver{
		Rules:      rulesRepo,
		Properties: properties,
		Ledger:     ledger,
	}
	quoter := &infrapricing.Composer{
		Rules:        rulesRepo,
		Properties:   properties,
		Availability: resolver,
		Events:       eventsPort,
		Logger:       logger,
		Metrics:      metrics,
		Timeout:      cfg.QuoteTimeout,
	}

	commandBus := commands.NewInMemoryBus()
	saveHandler := &rulesapp.SaveRuleSetHandler{
		Logger:     logger,
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, rulesapp.SaveRuleSetCommand{}.Key(), saveHandler)
	parseHandler := &rulesapp.ParseRateSheetHandler{
		Logger:  logger,
		Archive: archive,
	}
	commands.RegisterHandler(commandBus, rulesapp.ParseRateSheetCommand{}.Key(), parseHandler)
	commitHandler := &rulesapp.CommitRateSheetHandler{
		Logger:     logger,
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, rulesapp.CommitRateSheetCommand{}.Key(), commitHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, quoteapp.GetQuoteQuery{}.Key(), &quoteapp.GetQuoteHandler{
		Logger: logger,
		Quoter: quoter,
	})
	queries.RegisterHandler(queryBus, rulesapp.ListRateRowsQuery{}.Key(), &rulesapp.ListRateRowsHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, rulesapp.ListHistoryQuery{}.Key(), &rulesapp.ListHistoryHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		Logger:     logger,
		UoWFactory: uowFactory,
		Ledger:     ledger,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(),
		middleware.PropertyLock(locker),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(),
	)

	app.handlers = ginserver.Handlers{
		Quote: ginserver.QuoteHandler{
			Queries: queryBusWithMiddleware,
		},
		Pricing: ginserver.PricingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Metrics:  metrics,
		},
		Availability: ginserver.AvailabilityHandler{
			Queries: queryBusWithMiddleware,
		},
	}
	return app, nil
}

func (a application) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}

func (a application) loadPropertyFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("property fixtures file empty", "path", path)
		return nil
	}

	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures {
		prop, err := fx.toDomain()
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		if err := a.properties.Save(ctx, prop); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", prop.ID)
	}
	return nil
}

func (a application) loadEventFixtures(path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("event fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures []eventFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures {
		ev, err := fx.toDomain()
		if err != nil {
			logger.Error("fixture invalid", "event", fx.Name, "error", err)
			continue
		}
		a.events.Add(ev)
		logger.Info("event fixture imported", "event", ev.Name)
	}
	return nil
}

type propertyFixture struct {
	ID         string            `json:"id"`
	Host       string            `json:"host"`
	Name       string            `json:"name"`
	City       string            `json:"city"`
	Region     string            `json:"region"`
	Currency   string            `json:"currency"`
	UnitCount  int               `json:"unit_count"`
	Categories []categoryFixture `json:"categories"`
}

type categoryFixture struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	BaseRate int64  `json:"base_rate"`
	Units    int    `json:"units"`
}

func (fx propertyFixture) toDomain() (*domainproperty.Property, error) {
	if strings.TrimSpace(fx.ID) == "" {
		return nil, errors.New("property id is required")
	}
	if fx.UnitCount <= 0 {
		return nil, errors.New("unit_count must be positive")
	}
	prop := &domainproperty.Property{
		ID:        domainproperty.ID(fx.ID),
		HostID:    fx.Host,
		Name:      fx.Name,
		City:      fx.City,
		Region:    fx.Region,
		Currency:  strings.ToUpper(fx.Currency),
		UnitCount: fx.UnitCount,
	}
	for _, cat := range fx.Categories {
		rate, err := money.New(cat.BaseRate, prop.Currency)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Code, err)
		}
		prop.Categories = append(prop.Categories, domainproperty.RoomCategory{
			Code:     cat.Code,
			Name:     cat.Name,
			BaseRate: rate,
			Units:    cat.Units,
		})
	}
	return prop, nil
}

type eventFixture struct {
	Name       string  `json:"name"`
	Impact     string  `json:"impact"`
	Multiplier float64 `json:"multiplier"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	City       string  `json:"city"`
	Region     string  `json:"region"`
	Nationwide bool    `json:"nationwide"`
}

func (fx eventFixture) toDomain() (domaincalendarevents.Event, error) {
	var zero domaincalendarevents.Event
	start, err := time.Parse("2006-01-02", fx.StartDate)
	if err != nil {
		return zero, fmt.Errorf("start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", fx.EndDate)
	if err != nil {
		return zero, fmt.Errorf("end_date: %w", err)
	}
	if end.Before(start) {
		return zero, errors.New("end_date before start_date")
	}
	if fx.Multiplier < 1 {
		return zero, errors.New("multiplier must be at least 1.0")
	}
	impact := domaincalendarevents.Impact(strings.ToLower(fx.Impact))
	switch impact {
	case domaincalendarevents.ImpactLow, domaincalendarevents.ImpactMedium, domaincalendarevents.ImpactHigh:
	default:
		return zero, fmt.Errorf("unknown impact %q", fx.Impact)
	}
	return domaincalendarevents.Event{
		Name:       fx.Name,
		Impact:     impact,
		Multiplier: fx.Multiplier,
		Start:      start,
		End:        end,
		City:       fx.City,
		Region:     fx.Region,
		Nationwide: fx.Nationwide,
	}, nil
}

func defaultFixturesPath(name string) string {
	candidates := []string{
		filepath.Join("data", name),
		filepath.Join("backend", "data", name),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
