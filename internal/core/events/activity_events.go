package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeActivityRecorded = "activity.recorded"

// ActivityRecordedEvent carries one audit entry from the API layer to the activity log sink.
type ActivityRecordedEvent struct {
	BaseEvent
	LogName     string                 `json:"log_name"`
	Event       string                 `json:"event"`
	Description string                 `json:"description"`
	CauserID    *string                `json:"causer_id,omitempty"`
	Properties  map[string]interface{} `json:"properties"`
}

func NewActivityRecordedEvent(logName, event, description string, causerID *string, properties map[string]interface{}) *ActivityRecordedEvent {
	return &ActivityRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeActivityRecorded,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"log_name": logName,
				"event":    event,
			},
		},
		LogName:     logName,
		Event:       event,
		Description: description,
		CauserID:    causerID,
		Properties:  properties,
	}
}
