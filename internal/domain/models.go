package domain

import "time"

// Job statuses reported by the API.
const (
	StatusQueued      = "queued"
	StatusAvailable   = "available"
	StatusPending     = "pending"
	StatusReviewable  = "reviewable"
	StatusRevising    = "revising"
	StatusApproved    = "approved"
	StatusCancelled   = "cancelled"
	StatusHold        = "hold"
	EventStatusChange = "job.status_changed"
	EventJobRemoved   = "job.removed"
)

// TrackedJob is a job id recorded in the local ledger with its last known status.
type TrackedJob struct {
	ID        string
	Status    string
	ExpiresAt time.Time
}

// Terminal reports whether no further transition is expected for status.
func Terminal(status string) bool {
	switch status {
	case StatusApproved, StatusCancelled:
		return true
	default:
		return false
	}
}
