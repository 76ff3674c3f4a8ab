package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CryptoPulse/internal/middleware"
	"CryptoPulse/internal/scheduler"
	"CryptoPulse/internal/usecase"
	pkgch "CryptoPulse/pkg/clickhouse"
	"CryptoPulse/pkg/config"
	xhttp "CryptoPulse/pkg/http"
	pkgkafka "CryptoPulse/pkg/kafka"
	applogger "CryptoPulse/pkg/logger"
	pkgmongo "CryptoPulse/pkg/mongo"
)

// App encapsulates the entire application lifecycle: scheduler, alert
// pipeline, optional Kafka consumer and the HTTP server.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	sched      *scheduler.Scheduler
	pipeline   *middleware.AlertPipeline[*usecase.AlertJob]
	writer     *usecase.ResultWriter
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	mongo      *pkgmongo.Client
	httpServer *xhttp.Server
	handler    xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	sched *scheduler.Scheduler,
	pipeline *middleware.AlertPipeline[*usecase.AlertJob],
	writer *usecase.ResultWriter,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	mongo *pkgmongo.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		sched:    sched,
		pipeline: pipeline,
		writer:   writer,
		consumer: consumer,
		kh:       kh,
		chClient: chClient,
		mongo:    mongo,
		handler:  handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.pipeline.Start(ctx)
	a.log.Info("alert pipeline started")

	if err := a.sched.Start(ctx); err != nil {
		a.log.Error("scheduler start error", applogger.Error(err))
		return err
	}
	a.log.Info("scheduler started")

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.sched.Stop()
	a.pipeline.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.writer != nil {
		a.writer.Close()
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Close(shutdownCtx); err != nil {
			a.log.Warn("mongo close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
