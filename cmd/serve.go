package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/resumatch/internal/adapters/http/api"
	"github.com/okian/resumatch/internal/adapters/http/swagger"
	service "github.com/okian/resumatch/internal/app"
	"github.com/okian/resumatch/internal/config"
	"github.com/okian/resumatch/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// ErrWorkerNeedsBroker is returned when a worker process is configured with
// the in-memory queue, which nothing else could publish to.
var ErrWorkerNeedsBroker = errors.New("worker mode requires the amqp queue backend")

type runMode struct {
	api     bool
	workers bool
}

func newServeCmd() *cobra.Command {
	var workers bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, runMode{api: true, workers: workers})
		},
	}
	cmd.Flags().BoolVar(&workers, "workers", true, "also consume analysis tasks in this process")
	return cmd
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume analysis tasks from the broker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, runMode{workers: true})
		},
	}
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if cfgFile != "" {
		if err := os.Setenv(config.ConfigFileEnv, cfgFile); err != nil {
			return nil, fmt.Errorf("set %s: %w", config.ConfigFileEnv, err)
		}
	}
	return config.Load(ctx)
}

// run starts the service and an HTTP listener and blocks until ctx is done.
func run(ctx context.Context, mode runMode) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if mode.workers && !mode.api && cfg.QueueBackend != config.QueueAMQP {
		return ErrWorkerNeedsBroker
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON), logger.WithLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := service.FromConfig(ctx, cfg, log, mode.workers)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		_ = svc.Stop(context.Background())
		return fmt.Errorf("start service: %w", err)
	}

	server := api.NewServer(svc,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithCORSOrigins(cfg.CORSOrigins()),
		api.WithLogger(log.Named("http")),
	)
	var handler *gin.Engine
	if mode.api {
		handler = server.Handler()
		swagger.Register(handler)
	} else {
		handler = server.OpsHandler()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("api", mode.api),
			logger.Bool("workers", mode.workers),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), svc.Stop(shutdownCtx))
	})

	err = g.Wait()
	log.Info(ctx, "stopped")
	return err
}
