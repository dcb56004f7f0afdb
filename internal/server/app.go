// Package server wires the Turismap backend together: storage, services,
// the change feed and the gRPC and health endpoints.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/dmitrijs2005/turismap/internal/server/changefeed"
	"github.com/dmitrijs2005/turismap/internal/server/config"
	"github.com/dmitrijs2005/turismap/internal/server/health"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/turismap/internal/server/services"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/turismap/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	repos     repomanager.RepositoryManager
	hub       *changefeed.Hub
	kafka     *changefeed.KafkaPublisher
	relay     *changefeed.Relay
	users     *services.UserService
	documents *services.DocumentService
	media     gs.MediaService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(logging.Config{Level: c.LogLevel, Format: c.LogFormat, Service: "turismap-server"})
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	rm, err := repomanager.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, repos: rm, hub: changefeed.NewHub()}

	var publisher changefeed.Publisher = app.hub
	if len(c.KafkaBrokers) > 0 {
		origin := uuid.NewString()
		app.kafka = changefeed.NewKafkaPublisher(c.KafkaBrokers, c.KafkaTopic, origin, logger)
		app.relay = changefeed.NewKafkaRelay(c.KafkaBrokers, c.KafkaTopic, origin, app.hub, logger)
		publisher = changefeed.Fanout{app.hub, app.kafka}
	}

	places, err := services.LoadPlaces(c.PlacesFile)
	if err == nil {
		var n int
		n, err = services.SeedPlaces(ctx, rm, places, time.Now().UTC())
		logger.Info(ctx, "places seeded", "added", n)
	}
	if err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("places: %w", err)
	}

	app.users = services.NewUserService(rm, publisher, c)
	app.documents = services.NewDocumentService(rm, publisher, app.hub)

	ms, err := services.NewMediaService(ctx, c)
	if err != nil {
		logger.Warn(ctx, "media storage disabled", "error", err)
	} else {
		app.media = ms
	}

	return app, nil
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

// Run serves until a signal arrives or one of the endpoints fails, then
// releases the broker and storage connections.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend)
	app.initSignalHandler(cancelFunc)

	err := app.serve(ctx)

	app.close(context.WithoutCancel(ctx))
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.users, app.documents, app.media)
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := health.NewServer(app.config.EndpointAddrHTTP, app.repos, app.logger).Run(ctx); err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	if app.relay != nil {
		g.Go(func() error { return app.relay.Run(ctx) })
	}

	return g.Wait()
}

func (app *App) close(ctx context.Context) {
	if app.relay != nil {
		if err := app.relay.Close(); err != nil {
			app.logger.Warn(ctx, "kafka reader close", "error", err)
		}
	}
	if app.kafka != nil {
		if err := app.kafka.Close(); err != nil {
			app.logger.Warn(ctx, "kafka writer close", "error", err)
		}
	}
	if err := app.repos.Close(ctx); err != nil {
		app.logger.Warn(ctx, "storage close", "error", err)
	}
}
