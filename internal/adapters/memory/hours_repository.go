package memory

import (
	"context"
	"sort"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/schedule"
)

// HoursRepository implements repositories.HoursRepository
type HoursRepository struct {
	s *Store
}

// ListByLocation returns rules sorted by day
func (r *HoursRepository) ListByLocation(ctx context.Context, kind entities.HoursKind, locationID int64) ([]entities.HourRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.rules(kind, locationID), nil
}

// ListByLocations batch-loads rules
func (r *HoursRepository) ListByLocations(ctx context.Context, kind entities.HoursKind, locationIDs []int64) (map[int64][]entities.HourRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[int64][]entities.HourRule, len(locationIDs))
	for _, id := range locationIDs {
		if rules := r.s.rules(kind, id); len(rules) > 0 {
			out[id] = rules
		}
	}
	return out, nil
}

// Upsert writes rules by day of week
func (r *HoursRepository) Upsert(ctx context.Context, kind entities.HoursKind, locationID int64, rules []entities.HourRule) ([]entities.HourRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byDay := r.s.hours[kind][locationID]
	if byDay == nil {
		byDay = make(map[int]entities.HourRule)
		r.s.hours[kind][locationID] = byDay
	}
	now := r.s.now()
	for _, rule := range rules {
		rule.LocationID = locationID
		if existing, ok := byDay[rule.DayOfWeek]; ok {
			rule.ID, rule.Created = existing.ID, existing.Created
		} else {
			rule.ID, rule.Created = r.s.nextID("hours:"+string(kind)), now
		}
		rule.Modified = now
		byDay[rule.DayOfWeek] = rule
	}
	return r.s.rules(kind, locationID), nil
}

func (s *Store) rules(kind entities.HoursKind, locationID int64) []entities.HourRule {
	byDay := s.hours[kind][locationID]
	out := make([]entities.HourRule, 0, len(byDay))
	for _, rule := range byDay {
		out = append(out, rule)
	}
	schedule.SortRules(out)
	return out
}

// HolidayRepository implements repositories.HolidayRepository
type HolidayRepository struct {
	s *Store
}

// ListByLocation returns holidays ordered by date
func (r *HolidayRepository) ListByLocation(ctx context.Context, locationID int64) ([]entities.HolidayOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.holidayList(locationID), nil
}

// ListByLocations batch-loads holidays
func (r *HolidayRepository) ListByLocations(ctx context.Context, locationIDs []int64) (map[int64][]entities.HolidayOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[int64][]entities.HolidayOverride, len(locationIDs))
	for _, id := range locationIDs {
		if list := r.s.holidayList(id); len(list) > 0 {
			out[id] = list
		}
	}
	return out, nil
}

func (s *Store) holidayList(locationID int64) []entities.HolidayOverride {
	out := append([]entities.HolidayOverride(nil), s.holidays[locationID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DeliveryTimeSlotRepository implements repositories.DeliveryTimeSlotRepository
type DeliveryTimeSlotRepository struct {
	s *Store
}

// ListByLocation returns slots ordered by day number then slot
func (r *DeliveryTimeSlotRepository) ListByLocation(ctx context.Context, locationID int64) ([]entities.DeliveryTimeSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.slotList(locationID, ""), nil
}

// ListByLocationAndDay returns one day's slots
func (r *DeliveryTimeSlotRepository) ListByLocationAndDay(ctx context.Context, locationID int64, day string) ([]entities.DeliveryTimeSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.slotList(locationID, day), nil
}

// Upsert writes slots keyed by (day, time slot)
func (r *DeliveryTimeSlotRepository) Upsert(ctx context.Context, locationID int64, slots []entities.DeliveryTimeSlot) ([]entities.DeliveryTimeSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing := r.s.timeSlots[locationID]
	for _, slot := range slots {
		slot.LocationID = locationID
		replaced := false
		for i := range existing {
			if existing[i].Day == slot.Day && existing[i].TimeSlot == slot.TimeSlot {
				slot.ID = existing[i].ID
				existing[i] = slot
				replaced = true
				break
			}
		}
		if !replaced {
			slot.ID = r.s.nextID("time_slot")
			existing = append(existing, slot)
		}
	}
	r.s.timeSlots[locationID] = existing
	return r.s.slotList(locationID, ""), nil
}

func (s *Store) slotList(locationID int64, day string) []entities.DeliveryTimeSlot {
	var out []entities.DeliveryTimeSlot
	for _, slot := range s.timeSlots[locationID] {
		if day == "" || slot.Day == day {
			out = append(out, slot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayNum != out[j].DayNum {
			return out[i].DayNum < out[j].DayNum
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out
}
