package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// TimeOfDay is a local wall-clock time expressed as seconds after midnight
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" in 24-hour form
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, apperrors.InvalidTime()
	}
	limits := []int{23, 59, 59}
	total := 0
	for i, part := range parts {
		if len(part) == 0 || len(part) > 2 {
			return 0, apperrors.InvalidTime()
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, apperrors.InvalidTime()
		}
		switch i {
		case 0:
			total += n * 3600
		case 1:
			total += n * 60
		default:
			total += n
		}
	}
	return TimeOfDay(total), nil
}

// TimeOfDayOf returns the wall-clock time of t in t's own location
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// String renders the canonical "HH:MM:SS" form
func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// Format renders t with a Go time layout such as "03:04 PM"
func (t TimeOfDay) Format(layout string) string {
	s := int(t)
	return time.Date(2000, time.January, 1, s/3600, (s%3600)/60, s%60, 0, time.UTC).Format(layout)
}

// Normalize rewrites a time string into canonical "HH:MM:SS" form
func Normalize(s string) (string, error) {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}
