package publishers

import (
	"encoding/json"
	"time"
)

// Event represents a job lifecycle change published downstream.
type Event struct {
	Type           string          `json:"type"`
	JobID          string          `json:"job_id"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Environment    string          `json:"environment"`
	Job            json.RawMessage `json:"job,omitempty"`
	ObservedAt     time.Time       `json:"observed_at"`
}

// NewEvent constructs an Event for a job observed in the given state.
func NewEvent(typ, environment, jobID, previous, status string, job json.RawMessage) Event {
	return Event{
		Type:           typ,
		JobID:          jobID,
		Status:         status,
		PreviousStatus: previous,
		Environment:    environment,
		Job:            job,
		ObservedAt:     time.Now().UTC(),
	}
}

// attributes are copied onto broker message metadata so subscribers can filter.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"job_id":     e.JobID,
		"status":     e.Status,
	}
}
