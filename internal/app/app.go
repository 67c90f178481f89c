package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/northpack/cartapi/config"
	"github.com/northpack/cartapi/internal/adapter/httphandler"
	"github.com/northpack/cartapi/internal/adapter/kafka"
	"github.com/northpack/cartapi/internal/adapter/storage"
	"github.com/northpack/cartapi/internal/core/service"
	"github.com/northpack/cartapi/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type App struct {
	ctx            context.Context
	cfg            config.Config
	cartEventSerde schema.Serde
	sqldb          storage.SQLDB
	eventsProducer kafka.CartEventsProducer
	eventsConsumer kafka.CartEventsConsumer
	activityProc   *kafka.CartActivityProcessor
	activityView   kafka.CartActivityView
	service        *service.Service
	httpServer     httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initSerdes()
	app.initStorage()
	app.initBrokerAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	urls := app.cfg.Broker.SchemaRegistryURLs
	ctx := app.ctx

	srClient, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	cartEventSubject := app.cfg.Broker.Topics.CartEvents + "-value"
	cartEventSerde, err := schema.NewSerdeCartEventV1(
		ctx,
		schema.SubjectOpt(cartEventSubject),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.cartEventSerde = cartEventSerde
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.sqldb = sqldb
}

func (app *App) initBrokerAdapters() {
	const op = "App.initBrokerAdapters"

	ctx := app.ctx
	seedBrokers := app.cfg.Broker.SeedBrokers
	cartEventsTopic := app.cfg.Broker.Topics.CartEvents
	activityTable := app.cfg.Broker.Topics.CartActivityTable

	eventsProducer, err := kafka.NewCartEventsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, cartEventsTopic),
		kafka.ProducerEncoderOpt(app.cartEventSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.eventsProducer = eventsProducer

	eventsConsumer, err := kafka.NewCartEventsConsumer(
		kafka.ConsumerClientOpt(
			seedBrokers,
			cartEventsTopic,
			app.cfg.Broker.Consumers.CartEventsArchiveGroup,
		),
		kafka.ConsumerDecoderOpt(app.cartEventSerde),
		kafka.CartEventsSaverOpt(storage.NewCartEventsRepository(app.sqldb)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.eventsConsumer = eventsConsumer

	activityProc, err := kafka.NewCartActivityProc(
		seedBrokers, cartEventsTopic, activityTable, app.cartEventSerde,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.activityProc = activityProc

	activityView, err := kafka.NewCartActivityView(seedBrokers, activityTable)
	if err != nil {
		app.fallDown(op, err)
	}
	app.activityView = activityView
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	cartStorage, err := storage.NewFileCartStorage(app.cfg.CartStorageDir)
	if err != nil {
		app.fallDown(op, err)
	}

	app.service = service.New(
		cartStorage,
		storage.NewProductsRepository(app.sqldb),
		app.eventsProducer,
	)
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	mux := http.NewServeMux()
	httphandler.RegisterCarts(mux, app.service, app.service)
	httphandler.RegisterProducts(mux, app.service, app.service)
	httphandler.RegisterBackoffice(mux, app.activityView)

	handler := httphandler.AllowJSON(mux)
	app.httpServer = httphandler.NewHTTPServer(addr, handler)
}

// Run starts the broker adapters and the HTTP server.
//
// Blocks while the activity processor prepares its group table.
func (app *App) Run(stopFn context.CancelFunc) {
	var wg sync.WaitGroup
	wg.Add(1)
	go app.activityProc.Run(app.ctx, stopFn, &wg)
	wg.Wait()

	go app.eventsConsumer.Run(app.ctx)
	go app.activityView.Run(app.ctx)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.eventsConsumer.Close()
	app.eventsProducer.Close()
	app.activityProc.Close()
	app.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
