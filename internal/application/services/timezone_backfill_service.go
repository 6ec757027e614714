package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	"github.com/isbx/locations/backend/pkg/retry"
)

// BackfillBatchSize is how many locations are listed per page
const BackfillBatchSize = 100

// BackfillSummary reports the outcome of a backfill run
type BackfillSummary struct {
	TotalProcessed int
	SuccessCount   int
	FailureCount   int
}

// TimezoneBackfillService fills the timezone of stored locations that have
// coordinates but were saved without one
type TimezoneBackfillService struct {
	locationRepo repositories.LocationRepository
	timezones    providers.TimezoneProvider
	workerCount  int
	retryConfig  retry.Config
}

// NewTimezoneBackfillService creates a backfill with the given worker count
// and per-location attempt limit
func NewTimezoneBackfillService(
	locationRepo repositories.LocationRepository,
	timezones providers.TimezoneProvider,
	workers int,
	maxAttempts int,
) *TimezoneBackfillService {
	if workers <= 0 {
		workers = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = maxAttempts
	retryConfig.InitialDelay = 200 * time.Millisecond
	retryConfig.MaxTotalTimeout = 30 * time.Second

	return &TimezoneBackfillService{
		locationRepo: locationRepo,
		timezones:    timezones,
		workerCount:  workers,
		retryConfig:  retryConfig,
	}
}

// BackfillAll pages through every location missing a timezone. Failed
// locations are counted and skipped; they stay eligible for the next run.
func (s *TimezoneBackfillService) BackfillAll(ctx context.Context) (*BackfillSummary, error) {
	logger := observability.LoggerFromContext(ctx)
	var processed, success, failure int64

	work := make(chan *entities.Location, BackfillBatchSize)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for location := range work {
				err := s.backfill(ctx, location)
				atomic.AddInt64(&processed, 1)
				if err != nil {
					atomic.AddInt64(&failure, 1)
					logger.Warn().Err(err).Int64("location_id", location.ID).Msg("failed to backfill timezone")
				} else {
					atomic.AddInt64(&success, 1)
				}
			}
		}()
	}

	var listErr error
	afterID := int64(0)
produce:
	for {
		batch, err := s.locationRepo.ListMissingTimezone(ctx, afterID, BackfillBatchSize)
		if err != nil {
			listErr = fmt.Errorf("failed to list locations without timezone: %w", err)
			break
		}
		for _, location := range batch {
			select {
			case work <- location:
			case <-ctx.Done():
				listErr = ctx.Err()
				break produce
			}
		}
		if len(batch) < BackfillBatchSize {
			break
		}
		afterID = batch[len(batch)-1].ID
	}

	close(work)
	wg.Wait()

	return &BackfillSummary{
		TotalProcessed: int(processed),
		SuccessCount:   int(success),
		FailureCount:   int(failure),
	}, listErr
}

// BackfillSingle resolves and stores the timezone of one location
func (s *TimezoneBackfillService) BackfillSingle(ctx context.Context, locationID int64) error {
	row, err := s.locationRepo.GetByID(ctx, locationID, true)
	if err != nil {
		return err
	}
	if row.Coordinates == nil {
		return fmt.Errorf("location %d has no coordinates", locationID)
	}
	return s.backfill(ctx, &row.Location)
}

func (s *TimezoneBackfillService) backfill(ctx context.Context, location *entities.Location) error {
	var tz string
	err := retry.Do(ctx, s.retryConfig, func() error {
		var err error
		tz, err = s.timezones.TimezoneAt(ctx, location.Coordinates.Latitude, location.Coordinates.Longitude)
		return err
	})
	if err != nil {
		return err
	}
	if tz == "" {
		return fmt.Errorf("no timezone for location %d", location.ID)
	}
	return s.locationRepo.SetTimezone(ctx, location.ID, tz)
}
