package timezone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/pkg/retry"
)

// BreakerTimezoneProvider stops calling an upstream that keeps failing
type BreakerTimezoneProvider struct {
	next    providers.TimezoneProvider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerTimezoneProvider trips after consecutiveFailures and probes again after cooldown
func NewBreakerTimezoneProvider(next providers.TimezoneProvider, consecutiveFailures uint32, cooldown time.Duration) *BreakerTimezoneProvider {
	settings := gobreaker.Settings{
		Name:        "timezone-lookup",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	}
	return &BreakerTimezoneProvider{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// TimezoneAt delegates through the circuit breaker. Rejections while the
// breaker is open are marked permanent so callers do not retry into it.
func (b *BreakerTimezoneProvider) TimezoneAt(ctx context.Context, latitude, longitude float64) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.TimezoneAt(ctx, latitude, longitude)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", retry.Permanent(fmt.Errorf("timezone provider unavailable: %w", err))
	}
	if err != nil {
		return "", fmt.Errorf("timezone provider unavailable: %w", err)
	}
	return result.(string), nil
}

// State reports the breaker state, e.g. "closed" or "open"
func (b *BreakerTimezoneProvider) State() string {
	return b.breaker.State().String()
}
