package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/constraint"
	"dispatch/internal/handler"
	"dispatch/internal/partner"
	"dispatch/internal/pricing"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	tripCache := internalRedis.NewTripCache(redisClient)

	// Initialize repositories.
	driverRepo := postgres.NewDriverRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	taRepo := postgres.NewTripAssignmentRepository(db)
	mappingRepo := postgres.NewPartnerMappingRepository(db)

	// Initialize domain engines.
	engine := constraint.NewEngine(constraint.Config{
		Enabled:                 cfg.Constraint.Enabled,
		AllowedOriginCities:     cfg.Constraint.AllowedOriginCities,
		MinBookingLead:          cfg.Constraint.MinBookingLead,
		MinDistanceKm:           cfg.Constraint.MinDistanceKm,
		MaxDistanceKm:           cfg.Constraint.MaxDistanceKm,
		AvailableVehicleClasses: cfg.Constraint.AvailableVehicleClasses,
		StartLeadWindow:         cfg.Constraint.StartLeadWindow,
		ArriveWindow:            cfg.Constraint.ArriveWindow,
		NoShowMinDelay:          cfg.Constraint.NoShowMinDelay,
		GeofenceRadiusM:         cfg.Constraint.GeofenceRadiusM,
	})
	rateCard := pricing.NewRateCard()
	partnerClient := partner.NewHTTPClient(cfg.Partner.BaseURL, cfg.Partner.Token, cfg.Partner.Timeout)

	// Initialize services.
	tripService := service.NewTripService(db, tripRepo, taRepo, assignmentRepo, engine, rateCard, service.HaversineResolver{})
	assignmentService := service.NewAssignmentService(assignmentRepo, driverRepo, vehicleRepo)
	dispatchService := service.NewDispatchService(partnerClient, driverRepo, vehicleRepo, assignmentRepo, mappingRepo)
	orchestrator := service.NewOrchestrator(
		tripService,
		assignmentService,
		dispatchService,
		service.NewFleetScopeAuthorizer(),
		locationStore,
		tripCache,
	)

	// Initialize handlers.
	tripHandler := handler.NewTripHandler(orchestrator)
	assignmentHandler := handler.NewAssignmentHandler(orchestrator)
	driverHandler := handler.NewDriverHandler(driverRepo)
	vehicleHandler := handler.NewVehicleHandler(vehicleRepo)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:       tripHandler,
		AssignmentHandler: assignmentHandler,
		DriverHandler:     driverHandler,
		VehicleHandler:    vehicleHandler,
		RedisClient:       redisClient,
		NewRelicApp:       nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
