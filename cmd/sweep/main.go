// One-shot expiry sweep, meant to be run from cron when the API server's
// background loop is disabled.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rentory/internal/clock"
	"rentory/internal/config"
	"rentory/internal/database"
	"rentory/internal/modules/availability"
	"rentory/internal/modules/reservation"
	"rentory/internal/modules/sweeper"
	"rentory/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	clk := clock.NewSystem()
	reservationRepo := repository.NewReservationRepository(db)
	capacityRepo := repository.NewCapacityRepository(db)

	availabilityService := availability.NewService(reservationRepo, capacityRepo, clk)
	reservationService := reservation.NewService(reservationRepo, availabilityService, clk)

	sw := sweeper.New(reservationRepo, reservationService, clk, logger, cfg.SweepInterval)

	released, err := sw.SweepOnce(context.Background())
	if err != nil {
		logger.Fatal("sweep failed", zap.Int("released", released), zap.Error(err))
	}
	logger.Info("sweep completed", zap.Int("released", released))
}
