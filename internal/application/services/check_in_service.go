package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// CheckInService records mobile check-ins, at most one per number per local
// calendar day
type CheckInService struct {
	locationRepo repositories.LocationRepository
	checkInRepo  repositories.CheckInRepository
	publisher    *EventPublisher
	now          func() time.Time
}

// NewCheckInService creates a new check-in service. now defaults to time.Now.
func NewCheckInService(
	locationRepo repositories.LocationRepository,
	checkInRepo repositories.CheckInRepository,
	publisher *EventPublisher,
	now func() time.Time,
) *CheckInService {
	if now == nil {
		now = time.Now
	}
	return &CheckInService{
		locationRepo: locationRepo,
		checkInRepo:  checkInRepo,
		publisher:    publisher,
		now:          now,
	}
}

// CheckIn records that mobileNumber arrived at locationID. The day boundary
// is the local day of the location of the number's latest check-in.
// Concurrent check-ins for one number are not serialized.
func (s *CheckInService) CheckIn(ctx context.Context, locationID int64, mobileNumber string) (*entities.MobileCheckIn, error) {
	ctx, span := observability.StartSpan(ctx, "CheckInService.CheckIn",
		attribute.Int64("location.id", locationID),
	)
	defer span.End()

	mobileNumber = strings.TrimSpace(mobileNumber)
	if mobileNumber == "" {
		return nil, apperrors.MobileNumberRequired()
	}

	latest, err := s.checkInRepo.LatestByMobile(ctx, mobileNumber)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if latest != nil && sameLocalDay(latest.Created, s.now(), latest.LocationTimezone) {
		return nil, apperrors.CheckinRestricted()
	}

	if _, err := s.locationRepo.GetByID(ctx, locationID, false); err != nil {
		return nil, err
	}

	checkIn := &entities.MobileCheckIn{LocationID: locationID, MobileNumber: mobileNumber}
	if err := s.checkInRepo.Create(ctx, checkIn); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.publisher.Publish(ctx, entities.NewLocationEvent(locationID, entities.LocationEventCheckIn,
		map[string]interface{}{"checkInId": checkIn.ID, "mobileNumber": mobileNumber}))
	return checkIn, nil
}

// GetCheckIn returns a check-in by id
func (s *CheckInService) GetCheckIn(ctx context.Context, id int64) (*entities.MobileCheckIn, error) {
	return s.checkInRepo.GetByID(ctx, id)
}

func sameLocalDay(a, b time.Time, tz string) bool {
	loc, err := time.LoadLocation(tz)
	if tz == "" || err != nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
