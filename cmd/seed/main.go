// Seeds service capacities and sample reservations for local development.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"rentory/internal/database"
	"rentory/internal/domain"
	"rentory/internal/repository"
)

func main() {
	db, err := database.Connect("rentory.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("running migrations...")
	if err := repository.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	log.Println("cleaning old data...")
	db.Exec("DELETE FROM reservations")
	db.Exec("DELETE FROM service_capacities")

	ctx := context.Background()
	capacities := repository.NewCapacityRepository(db)
	reservations := repository.NewReservationRepository(db)

	log.Println("creating service capacities...")
	services := []domain.ServiceCapacity{
		{ServiceID: "svc-camera-kit", Name: "Camera kit rental", TotalQuantity: 5},
		{ServiceID: "svc-event-hall", Name: "Event hall", TotalQuantity: 1},
		{ServiceID: "svc-catering-staff", Name: "Catering staff slots", TotalQuantity: 12},
	}
	for i := range services {
		if err := capacities.Upsert(ctx, &services[i]); err != nil {
			log.Fatal("seed capacity failed:", err)
		}
	}

	log.Println("creating sample reservations...")
	now := time.Now().UTC().Truncate(time.Hour)
	customer := "cust-001"
	holdExpiry := now.Add(15 * time.Minute)

	samples := []domain.Reservation{
		{
			ID:               uuid.NewString(),
			ServiceID:        "svc-camera-kit",
			StartDate:        now.AddDate(0, 0, 1),
			EndDate:          now.AddDate(0, 0, 3),
			QuantityReserved: 2,
			Type:             domain.TypeBooking,
			Status:           domain.StatusConfirmed,
			CustomerID:       &customer,
			Notes:            "weekend shoot",
		},
		{
			ID:               uuid.NewString(),
			ServiceID:        "svc-camera-kit",
			StartDate:        now.AddDate(0, 0, 2),
			EndDate:          now.AddDate(0, 0, 4),
			QuantityReserved: 1,
			Type:             domain.TypeSoftHold,
			Status:           domain.StatusPending,
			ExpiresAt:        &holdExpiry,
			CustomerID:       &customer,
		},
		{
			ID:               uuid.NewString(),
			ServiceID:        "svc-event-hall",
			StartDate:        now.AddDate(0, 0, 5),
			EndDate:          now.AddDate(0, 0, 6),
			QuantityReserved: 1,
			Type:             domain.TypeMaintenance,
			Status:           domain.StatusConfirmed,
			Notes:            "floor refinishing",
		},
	}

	for i := range samples {
		samples[i].CreatedAt = now
		samples[i].UpdatedAt = now
		if err := reservations.Create(ctx, &samples[i]); err != nil {
			log.Fatal("seed reservation failed:", err)
		}
	}

	log.Printf("seed completed: %d services, %d reservations", len(services), len(samples))
}
