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

	"github.com/boltdb/bolt"
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
	logger   *zap.Logger
	config   *Config
	server   *http.Server
	cleanups []func()
	workers  []func(context.Context) error
}

// NewApp wires the whole service out of the given configuration.
func NewApp(config *Config) (AppProvider, error) {
	clock := NewClock(config.IsProduction)

	// ensure the logs folder exists and setup the logging module.
	if err := os.MkdirAll(config.LogFolder, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, clock)

	app := &App{logger: logger, config: config}
	app.cleanups = append(app.cleanups,
		func() {
			if err := flusher(); err != nil {
				fmt.Println("error during flushing of logs: ", err)
			}
		},
		func() {
			if err := logWriter.Close(); err != nil {
				fmt.Println("error during closing of log file: ", err)
			}
		},
	)

	idsHandler := NewIDsHandler()
	useRedis := config.Session.Store == StoreRedis || config.Activity.Enable
	useBolt := config.Session.Store == StoreBolt || config.Activity.Enable

	var redisClient *redis.Client
	if useRedis {
		client, err := GetRedisClient(config)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		redisClient = client
		app.prependCleanup(func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("failed to close redis client", zap.Error(err))
			}
		})
	}

	var boltClient *bolt.DB
	if useBolt {
		buckets := []string{config.Session.StateBucket}
		if config.Activity.Enable {
			buckets = append(buckets, config.Activity.Bucket)
		}
		client, err := GetBoltDBClient(config, buckets...)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to open bolt database: %s", err)
		}
		boltClient = client
		app.prependCleanup(func() {
			if err := boltClient.Close(); err != nil {
				logger.Error("failed to close bolt database", zap.Error(err))
			}
		})
	}

	var store StateStore
	switch config.Session.Store {
	case StoreRedis:
		store = NewRedisStateStore(logger, redisClient, config.Session.StateTTL)
	case StoreBolt:
		store = NewBoltStateStore(logger, boltClient, clock, config.Session.StateBucket, config.Session.StateTTL)
	default:
		store = NewMemoryStateStore(clock, config.Session.StateTTL)
	}

	var recorder ActivityRecorder = NopRecorder{}
	var journal ActivityJournal
	if config.Activity.Enable {
		queue := NewRedisQueue(redisClient, config.Activity.Queue, idsHandler)
		journal = NewBoltJournal(logger, boltClient, config.Activity.Bucket)
		recorder = queue
		consumer := NewJournalConsumer(logger, queue, journal)
		app.workers = append(app.workers, consumer.Consume)
	}

	clients := NewClients(NewBackendHTTPClient(&config.Backend), config.Backend.BaseURL)
	deps := WorkspaceDeps{
		Logger:   logger,
		Clock:    clock,
		Clients:  clients,
		Recorder: recorder,
		TTL:      config.Notification.Timeout,
	}
	registry := NewWorkspaceRegistry(logger, &config.Session, NewTickClock(clock), store, func(id string) *Workspace {
		return NewWorkspace(deps, id)
	})
	app.workers = append(app.workers, registry.Run)

	stats := &Statistics{
		version:   config.GitTag,
		container: IsAppRunningInDocker(),
		started:   clock.Now(),
		runtime:   runtime.Version(),
		platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	// Use git commit in case the tag is not set.
	if stats.version == "" {
		stats.version = config.GitCommit
	}
	apiService := NewAPIHandler(logger, config, stats, clock, idsHandler, registry, clients, journal)

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresAdmin, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			admin:  middlewaresAdmin.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        requestTimeout(router, config.Server.RequestTimeout, NotificationsStreamPath),
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
		ConnContext:    SaveConnInContext,
	}
	return app, nil
}

// prependCleanup registers f to run before the logging cleanups.
func (app *App) prependCleanup(f func()) {
	app.cleanups = append([]func(){f}, app.cleanups...)
}

// Run starts the api web server, the background workers and a goroutine
// which is responsible to stop the server.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	for _, work := range app.workers {
		work := work
		g.Go(func() error {
			return work(gCtx)
		})
	}
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("backend.base_url", app.config.Backend.BaseURL),
			zap.String("session.store", app.config.Session.Store),
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
// the graceful did not complete successfully. It returns `nil` so that the
// errorgroup only reports the `Serve` result.
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
		return nil
	}
}
