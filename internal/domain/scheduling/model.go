package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. scheduled is the only non-terminal state; completed
// and cancelled accept no further transitions.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const DefaultDurationMinutes = 60

func ValidStatus(s string) bool {
	return s == StatusScheduled || s == StatusCompleted || s == StatusCancelled
}

// Appointment is a counseling session slot. OfficerID and CounselorID are
// both optional at the type level; the service enforces which combinations
// each creation path allows.
type Appointment struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OfficerID       *uuid.UUID `json:"officer_id" db:"officer_id"`
	CounselorID     *uuid.UUID `json:"counselor_id" db:"counselor_id"`
	ScheduledAt     time.Time  `json:"scheduled_at" db:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Status          string     `json:"status" db:"status"`
	Notes           *string    `json:"notes" db:"notes"`
	CreatedBy       uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Filter narrows appointment listings.
type Filter struct {
	OfficerID   *uuid.UUID
	CounselorID *uuid.UUID
	Status      string
}
