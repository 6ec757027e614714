package schedule

import (
	"sort"

	"github.com/isbx/locations/backend/internal/domain/entities"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// ValidateRules checks and normalizes a set of weekly rules for one location
// before they are saved. Later rules for the same day replace earlier ones.
// The returned slice is sorted by day of week.
func ValidateRules(locationID int64, rules []entities.HourRule) ([]entities.HourRule, error) {
	byDay := make(map[int]entities.HourRule, len(rules))
	for _, rule := range rules {
		if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
			return nil, apperrors.InvalidTime()
		}
		rule.LocationID = locationID

		if rule.IsOpen {
			start, err := ParseTimeOfDay(rule.StartTime)
			if err != nil {
				return nil, err
			}
			end, err := ParseTimeOfDay(rule.EndTime)
			if err != nil {
				return nil, err
			}
			if start >= end {
				return nil, apperrors.InvalidTimeRange()
			}
			rule.StartTime, rule.EndTime = start.String(), end.String()
		} else {
			// closed days keep whichever times were given
			var err error
			if rule.StartTime, err = normalizeOptional(rule.StartTime); err != nil {
				return nil, err
			}
			if rule.EndTime, err = normalizeOptional(rule.EndTime); err != nil {
				return nil, err
			}
		}
		byDay[rule.DayOfWeek] = rule
	}

	out := make([]entities.HourRule, 0, len(byDay))
	for _, rule := range byDay {
		out = append(out, rule)
	}
	SortRules(out)
	return out, nil
}

func normalizeOptional(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return Normalize(s)
}

// SortRules orders rules by day of week, Sunday first
func SortRules(rules []entities.HourRule) {
	sort.Slice(rules, func(i, j int) bool { return rules[i].DayOfWeek < rules[j].DayOfWeek })
}
