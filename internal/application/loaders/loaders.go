package loaders

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

const batchWait = 2 * time.Millisecond

// Loaders batch the per-location lookups used to enrich search results
type Loaders struct {
	HoursLoader         *dataloader.Loader[int64, []entities.HourRule]
	DeliveryHoursLoader *dataloader.Loader[int64, []entities.HourRule]
	HolidayLoader       *dataloader.Loader[int64, []entities.HolidayOverride]
}

// NewLoaders creates a fresh set of loaders. Each set is meant to live for
// a single request so nothing is cached across calls.
func NewLoaders(hoursRepo repositories.HoursRepository, holidayRepo repositories.HolidayRepository) *Loaders {
	return &Loaders{
		HoursLoader:         newHoursLoader(hoursRepo, entities.HoursKindRegular),
		DeliveryHoursLoader: newHoursLoader(hoursRepo, entities.HoursKindDelivery),
		HolidayLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []int64) []*dataloader.Result[[]entities.HolidayOverride] {
			results := make([]*dataloader.Result[[]entities.HolidayOverride], len(keys))
			byLocation, err := holidayRepo.ListByLocations(ctx, keys)
			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[[]entities.HolidayOverride]{Error: err}
				} else {
					results[i] = &dataloader.Result[[]entities.HolidayOverride]{Data: byLocation[key]}
				}
			}
			return results
		}, dataloader.WithWait[int64, []entities.HolidayOverride](batchWait)),
	}
}

func newHoursLoader(repo repositories.HoursRepository, kind entities.HoursKind) *dataloader.Loader[int64, []entities.HourRule] {
	return dataloader.NewBatchedLoader(func(ctx context.Context, keys []int64) []*dataloader.Result[[]entities.HourRule] {
		results := make([]*dataloader.Result[[]entities.HourRule], len(keys))
		byLocation, err := repo.ListByLocations(ctx, kind, keys)
		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[[]entities.HourRule]{Error: err}
			} else {
				results[i] = &dataloader.Result[[]entities.HourRule]{Data: byLocation[key]}
			}
		}
		return results
	}, dataloader.WithWait[int64, []entities.HourRule](batchWait))
}

// For returns the loaders attached to ctx, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}
