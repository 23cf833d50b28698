package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"floodmap-api/internal/config"
	"floodmap-api/internal/handler"
	"floodmap-api/internal/mapsurface"
	"floodmap-api/internal/observability"
	"floodmap-api/internal/repository"
	"floodmap-api/internal/scheduler"
	"floodmap-api/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//	@title			Flood Map API
//	@version		1.0
//	@description	Flood report session: location updates, report creation, pin selection and deletion.
//	@BasePath		/
func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := observability.NewLogger(config.LogLevel, config.LogFormat)
	log.Logger = logger
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Report store
	store, closeStore, err := openStore(ctx, config, logger)
	if err != nil {
		log.Fatal().Err(err).Str("backend", config.StoreBackend).Msg("cannot open report store")
	}
	defer closeStore()

	// Session
	board := mapsurface.NewBoard()
	controller := service.NewFloodReportController(
		store,
		board,
		service.Options{
			ReportTitle:      config.ReportTitle,
			RegionSpanMeters: config.RegionSpanMeters,
			BackendTimeout:   config.BackendTimeout,
		},
		clockwork.NewRealClock(),
		metrics,
		logger,
	)

	sessionCtx, stopSession := context.WithCancel(context.Background())
	go controller.Run(sessionCtx)
	controller.Load()

	if config.RefreshSchedule != "" {
		refresher, err := scheduler.NewRefresher(config.RefreshSchedule, controller, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot schedule refresh")
		}
		refresher.Start()
		defer refresher.Stop()
	}

	reportHandler := handler.NewReportHandler(controller, board)
	srv := &http.Server{
		Addr:    config.ServerAddress,
		Handler: handler.NewRouter(reportHandler),
	}

	go func() {
		logger.Info().Str("addr", config.ServerAddress).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}

	stopSession()
	<-controller.Done()
	logger.Info().Msg("shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (service.ReportStore, func(), error) {
	storeLogger := logger.With().Str("component", "repository").Str("backend", cfg.StoreBackend).Logger()

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		// Database connection
		conn, err := pgxpool.New(ctx, cfg.DBSource)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot connect to db: %w", err)
		}
		store := repository.NewPostgresStore(conn, storeLogger)
		if err := store.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, conn.Close, nil

	case config.BackendFirestore:
		client, err := repository.NewFirestoreClient(ctx, cfg.FirestoreProjectID, cfg.FirebaseCredentials)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("firestore close error")
			}
		}
		return repository.NewFirestoreStore(client, cfg.ReportCollection, storeLogger), closeClient, nil

	case config.BackendMemory:
		return repository.NewMemoryStore(storeLogger), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
