package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	redisClient    *redis.Client
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
//
//nolint:funlen
func NewApp(configFile, envFile string) (AppProvider, error) {
	config, err := LoadAndInitConfigs(configFile, envFile, GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	// ensure the logs folder exists and setup the logging module.
	err = os.MkdirAll(config.LogFolder, 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, NewTickClock(clock))

	app := &App{
		logger:   logger,
		config:   config,
		cleanups: []func() error{flusher, logWriter.Close},
	}

	// the redis client serves the redis store and the mirror queue.
	if config.Store.Driver == DriverRedis || config.Mirror.Enable {
		app.redisClient, err = GetRedisClient(config)
		if err != nil {
			_ = app.redisClient.Close()
			app.Clean()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		app.cleanups = append([]func() error{app.closeRedis}, app.cleanups...)
	}

	bookStorage, storeCloser, err := NewBookStorage(logger, config, app.redisClient)
	if err != nil {
		app.Clean()
		return nil, err
	}
	app.cleanups = append([]func() error{storeCloser}, app.cleanups...)

	var queue Queuer
	if config.Mirror.Enable {
		mirrorConfig := config.Mirror.BoltDB()
		mirrorClient, err := GetBoltDBClient(mirrorConfig)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to open mirror database: %s", err)
		}
		app.cleanups = append([]func() error{mirrorClient.Close}, app.cleanups...)

		queue = NewRedisQueue(app.redisClient, config.Mirror.QueueName)
		mirror := NewMirrorConsumer(logger, queue, NewBoltBookStorage(logger, mirrorConfig, mirrorClient))
		app.queueConsumers = append(app.queueConsumers, mirror.Consume)
	}

	bookService := NewBookService(logger, config, NewObjectIDHandler(), bookStorage, queue)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		bookService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	// Build the api server definition.
	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        TimeoutHandler(router, config.Server.RequestTimeout),
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	return app, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.String("store.driver", app.config.Store.Driver),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions. Storage clients
// are released first and logs are flushed last.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		if err := f(); err != nil {
			fmt.Fprintln(os.Stderr, "error during app cleanup:", err)
		}
	}
	app.cleanups = nil
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("store.driver", app.config.Store.Driver),
			zap.Bool("mirror.enabled", app.config.Mirror.Enable),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}

		// unblock queue consumers waiting on redis.
		if err = app.closeRedis(); err != nil {
			app.logger.Error("failed to close redis client", zap.Error(err))
		}
		return nil
	}
}

// closeRedis closes the redis client if any. It can be called more than once.
func (app *App) closeRedis() error {
	if app.redisClient == nil {
		return nil
	}
	if err := app.redisClient.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
