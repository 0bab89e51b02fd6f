package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rentory/internal/clock"
	"rentory/internal/config"
	"rentory/internal/database"
	"rentory/internal/middleware"
	"rentory/internal/modules/availability"
	"rentory/internal/modules/reservation"
	"rentory/internal/modules/sweeper"
	"rentory/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg)
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal(err)
	}

	clk := clock.NewSystem()

	reservationRepo := repository.NewReservationRepository(db)
	capacityRepo := repository.NewCapacityRepository(db)

	availabilityService := availability.NewService(reservationRepo, capacityRepo, clk)
	availabilityHandler := availability.NewHandler(availabilityService)

	reservationService := reservation.NewService(
		reservationRepo,
		availabilityService,
		clk,
		reservation.WithHoldTTL(cfg.HoldTTL),
	)
	reservationHandler := reservation.NewHandler(reservationService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sw := sweeper.New(reservationRepo, reservationService, clk, logger, cfg.SweepInterval)
	go sw.Run(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		availabilityHandler.RegisterRoutes(v1)
		reservationHandler.RegisterRoutes(v1)
	}

	logger.Info("starting server", zap.String("port", cfg.AppPort))
	if err := r.Run(":" + cfg.AppPort); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}

	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return logger
}
