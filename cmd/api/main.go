package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HeoJeongBo/expo-live-activity/internal/api"
	"github.com/HeoJeongBo/expo-live-activity/internal/auth"
	"github.com/HeoJeongBo/expo-live-activity/internal/config"
	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/events"
	"github.com/HeoJeongBo/expo-live-activity/internal/module"
	"github.com/HeoJeongBo/expo-live-activity/internal/persistence/memory"
	"github.com/HeoJeongBo/expo-live-activity/internal/persistence/postgres"
	"github.com/HeoJeongBo/expo-live-activity/internal/platform"
	httptransport "github.com/HeoJeongBo/expo-live-activity/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var repo domain.Repository = memory.NewRepository()
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		pgRepo := postgres.NewRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		repo = pgRepo
	}

	publisher := events.NewPublisherWithBuffer(cfg.EventBufferSize)
	defer publisher.Close()

	var platformOpts []platform.Option
	if !cfg.PlatformSupported {
		platformOpts = append(platformOpts, platform.WithoutSupport())
	}
	if !cfg.PlatformPermitted {
		platformOpts = append(platformOpts, platform.WithoutPermission())
	}
	manager := platform.NewLocalManager(platformOpts...)

	validator := domain.NewValidator()
	service := domain.NewService(manager, repo, validator, publisher)

	hostModule := module.New(service, manager, validator, publisher)
	defer hostModule.Close()

	manager.SetActionHandler(hostModule.HandleUserAction)

	sweeper := domain.NewExpirySweeper(service, cfg.ExpiryPollInterval)
	go sweeper.Start(ctx)

	var relay *events.KafkaRelay
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		stream, unsubscribe := publisher.Subscribe()
		defer unsubscribe()

		relay = events.NewKafkaRelay(producer)
		go relay.Start(ctx, stream)
	}

	handler := api.NewHandler(hostModule)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:     cfg.HTTPAddress,
		ReadTimeout: 5 * time.Second,
		// WriteTimeout stays unset: the event stream holds connections open.
		IdleTimeout: 60 * time.Second,
	}, authMiddleware.Wrap(logger(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("live-activity service listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	sweeper.Wait()
	if relay != nil {
		relay.Wait()
	}
}
