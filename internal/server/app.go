// Package server wires the geodash server together: storage, change feed,
// location lookup, the user workflow and its gRPC and REST transports.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/geodash/internal/dbx"
	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/dmitrijs2005/geodash/internal/server/changefeed"
	"github.com/dmitrijs2005/geodash/internal/server/config"
	"github.com/dmitrijs2005/geodash/internal/server/geo"
	"github.com/dmitrijs2005/geodash/internal/server/httpapi"
	"github.com/dmitrijs2005/geodash/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/geodash/internal/server/store"
	"github.com/dmitrijs2005/geodash/internal/server/workflow"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/geodash/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	feed    feedRunner
	closers []io.Closer
	users   *workflow.Service
}

// feedRunner is a change feed source that runs until ctx is cancelled.
type feedRunner interface {
	Run(ctx context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	rm, err := repomanager.NewRepositoryManager(c.StoreDriver)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenDB(ctx, rm.Dialect(), c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	broker := changefeed.NewBroker()
	publisher, err := app.initFeed(rm.Dialect(), broker)
	if err != nil {
		db.Close()
		return nil, err
	}

	st := store.New(db, rm, broker, publisher, logger)
	gc := geo.NewClient(c.GeoBaseURL, c.GeoAPIKey,
		geo.WithCountryCode(c.GeoCountryCode),
		geo.WithTimeout(c.GeoTimeout),
		geo.WithLogger(logger),
	)
	app.users = workflow.NewService(gc, st, logger)

	return app, nil
}

// initFeed picks the change feed source. The returned publisher is what the
// store announces its own writes to; it is nil when the database notifies.
func (app *App) initFeed(d dbx.Dialect, b *changefeed.Broker) (changefeed.Publisher, error) {
	switch app.config.ChangeFeed {
	case config.FeedPostgres:
		if d != dbx.DialectPostgres {
			return nil, fmt.Errorf("change feed %q requires the postgres store driver", config.FeedPostgres)
		}
		app.feed = changefeed.NewPGListener(app.config.DatabaseDSN, b, app.logger)
		return nil, nil
	case config.FeedRedis:
		client, err := changefeed.NewRedisClient(app.config.RedisURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client)
		rs := changefeed.NewRedisStream(client, b, app.logger)
		app.feed = rs
		return rs, nil
	case config.FeedLocal:
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported change feed %q", app.config.ChangeFeed)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a signal arrives or a component fails,
// then releases the database and feed connections.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver, "feed", app.config.ChangeFeed)

	app.initSignalHandler(cancelFunc)

	grpcServer, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.users, app.config.SecretKey)
	if err != nil {
		return err
	}
	httpServer := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.users, app.config.SecretKey)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return grpcServer.Run(ctx) })
	g.Go(func() error { return httpServer.Run(ctx) })
	if app.feed != nil {
		g.Go(func() error { return app.feed.Run(ctx) })
	}

	err = g.Wait()
	if err != nil {
		app.logger.Error(ctx, "app stopped", "error", err)
	}

	for _, c := range app.closers {
		c.Close()
	}
	app.db.Close()

	app.logger.Info(context.Background(), "App stopped")
	return err
}
