package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/isbx/locations/backend/internal/adapters/database"
	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/postgres"
	"github.com/isbx/locations/backend/pkg/config"
)

const seedTimezone = "America/Los_Angeles"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := pgClient.DB()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := db.ExecContext(ctx, `
			TRUNCATE TABLE
				location_coupon,
				user_location,
				mobile_check_in,
				location_rating,
				location_delivery_time_slot,
				location_holiday,
				location_delivery_hours,
				location_hours,
				location,
				organization
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	// 1. Organization with off-hours enabled
	var orgID int64
	err = db.QueryRowContext(ctx, `
		INSERT INTO organization (name, pos_id, allow_off_hours)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (pos_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, "Pharmacies", "pos-pharmacy").Scan(&orgID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create organization")
	}

	// 2. Four West LA locations with equal priority so distance from ISBX
	// decides their default order
	locations := []entities.Location{
		{Name: "ISBX", City: "Santa Monica", State: "CA", AddressLine1: "2120 Colorado Ave", Coordinates: &geo.Point{Longitude: -118.424138, Latitude: 34.020575}},
		{Name: "CVS", City: "Los Angeles", State: "CA", Coordinates: &geo.Point{Longitude: -118.4195, Latitude: 34.0256}, OrganizationID: &orgID},
		{Name: "Burger King", City: "Los Angeles", State: "CA", Coordinates: &geo.Point{Longitude: -118.4101, Latitude: 34.0317}, IsDeliveryAvailable: true},
		{Name: "Westfield Century", City: "Century City", State: "CA", Coordinates: &geo.Point{Longitude: -118.4176, Latitude: 34.0584}},
	}

	locationRepo := database.NewLocationAdapter(pgClient)
	hoursRepo := database.NewHoursAdapter(pgClient)

	for i := range locations {
		loc := locations[i]
		loc.Timezone = seedTimezone
		if err := locationRepo.Create(ctx, &loc); err != nil {
			log.Error().Err(err).Str("name", loc.Name).Msg("failed to create location")
			continue
		}

		// 3. Open every day 08:00-20:00
		rules := make([]entities.HourRule, 7)
		for day := range rules {
			rules[day] = entities.HourRule{DayOfWeek: day, IsOpen: true, StartTime: "08:00", EndTime: "20:00"}
		}
		if _, err := hoursRepo.Upsert(ctx, entities.HoursKindRegular, loc.ID, rules); err != nil {
			log.Error().Err(err).Str("name", loc.Name).Msg("failed to seed hours")
		}
		if loc.IsDeliveryAvailable {
			if _, err := hoursRepo.Upsert(ctx, entities.HoursKindDelivery, loc.ID, rules); err != nil {
				log.Error().Err(err).Str("name", loc.Name).Msg("failed to seed delivery hours")
			}
		}

		log.Info().Int64("id", loc.ID).Str("name", loc.Name).Msg("seeded location")
	}

	log.Info().Msg("seeding completed")
}
