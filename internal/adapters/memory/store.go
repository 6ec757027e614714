// Package memory provides in-process implementations of every repository.
// It backs unit tests and the STORE_DRIVER=memory development mode, and
// mirrors the filtering and ordering rules of the Postgres adapters.
package memory

import (
	"sync"
	"time"

	"github.com/isbx/locations/backend/internal/domain/entities"
)

// Store holds all tables behind a single lock
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	ids map[string]int64

	locations     map[int64]*entities.Location
	organizations map[int64]*entities.Organization
	userLocations []entities.UserLocation
	coupons       map[int64]map[int64]bool
	hours         map[entities.HoursKind]map[int64]map[int]entities.HourRule
	holidays      map[int64][]entities.HolidayOverride
	reviews       map[int64]*entities.LocationRating
	checkIns      map[int64]*entities.MobileCheckIn
	timeSlots     map[int64][]entities.DeliveryTimeSlot
}

// NewStore creates an empty store. now defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:           now,
		ids:           make(map[string]int64),
		locations:     make(map[int64]*entities.Location),
		organizations: make(map[int64]*entities.Organization),
		coupons:       make(map[int64]map[int64]bool),
		hours: map[entities.HoursKind]map[int64]map[int]entities.HourRule{
			entities.HoursKindRegular:  {},
			entities.HoursKindDelivery: {},
		},
		holidays:  make(map[int64][]entities.HolidayOverride),
		reviews:   make(map[int64]*entities.LocationRating),
		checkIns:  make(map[int64]*entities.MobileCheckIn),
		timeSlots: make(map[int64][]entities.DeliveryTimeSlot),
	}
}

func (s *Store) nextID(table string) int64 {
	s.ids[table]++
	return s.ids[table]
}

// AddOrganization inserts an organization and returns its id
func (s *Store) AddOrganization(org entities.Organization) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if org.ID == 0 {
		org.ID = s.nextID("organization")
	} else if org.ID > s.ids["organization"] {
		s.ids["organization"] = org.ID
	}
	now := s.now()
	org.Created, org.Modified = now, now
	s.organizations[org.ID] = &org
	return org.ID
}

// AssignUser records a live user/location membership
func (s *Store) AssignUser(userID, locationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocations = append(s.userLocations, entities.UserLocation{UserID: userID, LocationID: locationID})
}

// AssignCoupon attaches a coupon to a location
func (s *Store) AssignCoupon(couponID, locationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupons[couponID] == nil {
		s.coupons[couponID] = make(map[int64]bool)
	}
	s.coupons[couponID][locationID] = true
}

// AddHoliday stores a holiday override
func (s *Store) AddHoliday(h entities.HolidayOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.nextID("holiday")
	s.holidays[h.LocationID] = append(s.holidays[h.LocationID], h)
}

func (s *Store) isAssigned(userID, locationID int64) bool {
	for _, ul := range s.userLocations {
		if ul.UserID == userID && ul.LocationID == locationID && !ul.Deleted {
			return true
		}
	}
	return false
}

// Repositories groups the store's repository views
type Repositories struct {
	Locations     *LocationRepository
	Organizations *OrganizationRepository
	UserLocations *UserLocationRepository
	Hours         *HoursRepository
	Holidays      *HolidayRepository
	Reviews       *ReviewRepository
	CheckIns      *CheckInRepository
	TimeSlots     *DeliveryTimeSlotRepository
}

// Repositories returns repository views over the store
func (s *Store) Repositories() Repositories {
	return Repositories{
		Locations:     &LocationRepository{s: s},
		Organizations: &OrganizationRepository{s: s},
		UserLocations: &UserLocationRepository{s: s},
		Hours:         &HoursRepository{s: s},
		Holidays:      &HolidayRepository{s: s},
		Reviews:       &ReviewRepository{s: s},
		CheckIns:      &CheckInRepository{s: s},
		TimeSlots:     &DeliveryTimeSlotRepository{s: s},
	}
}
