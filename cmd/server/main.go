package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jmarq76/beerstock/internal/adapter/handler"
	"github.com/jmarq76/beerstock/internal/adapter/storage"
	"github.com/jmarq76/beerstock/internal/config"
	"github.com/jmarq76/beerstock/internal/core/service"
	"github.com/jmarq76/beerstock/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	logger.Info("storage ready", zap.String("driver", cfg.StorageDriver))

	// Start movement journal workers
	journal := service.NewJournal(backend.Movements, cfg.JournalQueueSize, cfg.JournalWorkers, logger)
	logger.Info("started journal workers", zap.Int("workers", cfg.JournalWorkers))

	// Initialize services
	beerService := service.NewBeerService(backend.Beers,
		service.WithLogger(logger),
		service.WithMovementPublisher(journal),
	)
	movementService := service.NewMovementService(backend.Beers, backend.Movements)
	countryService := service.NewCountryService(backend.Countries)

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterBeerServer(grpcServer, handler.NewGRPCHandler(beerService))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(handler.BeerServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(beerService, movementService, countryService, logger)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.NewRouter(httpHandler, limiter),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown, on signal or when either server fails
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		logger.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	// Drain the journal before closing storage
	journal.Close()
	logger.Info("journal workers stopped")

	if err := backend.Close(); err != nil {
		logger.Error("failed to close storage", zap.Error(err))
	}
	logger.Info("connections closed")
}
