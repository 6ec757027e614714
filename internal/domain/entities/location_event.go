package entities

import (
	"time"

	"github.com/google/uuid"
)

// LocationEventType represents the type of location event
type LocationEventType string

const (
	LocationEventCreated         LocationEventType = "location.created"
	LocationEventUpdated         LocationEventType = "location.updated"
	LocationEventRemoved         LocationEventType = "location.removed"
	LocationEventOffHoursUpdated LocationEventType = "location.off_hours_updated"
	LocationEventHoursUpdated    LocationEventType = "location.hours_updated"
	LocationEventCheckIn         LocationEventType = "checkin.created"
	LocationEventReviewCreated   LocationEventType = "review.created"
)

// LocationEvent is published after a location-scoped write commits
type LocationEvent struct {
	ID            string                 `json:"id"`
	LocationID    int64                  `json:"locationId"`
	EventType     LocationEventType      `json:"eventType"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changedFields,omitempty"`
}

// NewLocationEvent creates a new location event
func NewLocationEvent(locationID int64, eventType LocationEventType, changedFields map[string]interface{}) *LocationEvent {
	return &LocationEvent{
		ID:            uuid.NewString(),
		LocationID:    locationID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		ChangedFields: changedFields,
	}
}
