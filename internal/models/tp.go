package models

import "time"

// TP represents a time-boxed practical-work exercise period.
// Access is allowed between StartTime and
// min(StartTime + MaxAccessHours, EndTime + GraceMinutes).
type TP struct {
	TPID           int       `db:"tp_id" json:"tp_id"`
	Name           string    `db:"name" json:"name"`
	Description    *string   `db:"description" json:"description,omitempty"`
	StartTime      time.Time `db:"start_time" json:"start_time"`
	EndTime        time.Time `db:"end_time" json:"end_time"`
	GraceMinutes   int       `db:"grace_minutes" json:"grace_minutes"`
	MaxAccessHours int       `db:"max_access_hours" json:"max_access_hours"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CreateTPRequest is the admin payload for opening a new exercise period.
type CreateTPRequest struct {
	Name           string    `json:"name" validate:"required"`
	Description    *string   `json:"description,omitempty"`
	StartTime      time.Time `json:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" validate:"required"`
	GraceMinutes   int       `json:"grace_minutes" validate:"min=0"`
	MaxAccessHours int       `json:"max_access_hours" validate:"required,min=1"`
}

// TPView is the public representation of a TP including its computed window
// end.
type TPView struct {
	TP
	EffectiveEnd time.Time `json:"effective_end"`
}

// EffectiveEnd computes the latest instant at which the TP still accepts
// registrations and logins.
func (t *TP) EffectiveEnd() time.Time {
	maxAccessEnd := t.StartTime.Add(time.Duration(t.MaxAccessHours) * time.Hour)
	hardEnd := t.EndTime.Add(time.Duration(t.GraceMinutes) * time.Minute)
	if maxAccessEnd.Before(hardEnd) {
		return maxAccessEnd
	}
	return hardEnd
}
