package models

import "time"

// Activity action keys recorded in the audit trail.
const (
	ActionRegistration = "registration"
	ActionLogin        = "login"
	ActionSubmission   = "submission"
	ActionError        = "error"
	ActionTPCreate     = "tp_create"
)

// ActivityLog is an append-only audit record. It is written by the
// orchestration services and only ever read back by admins.
type ActivityLog struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	TPID      *int      `db:"tp_id" json:"tp_id,omitempty"`
	ActionKey string    `db:"action_key" json:"action_key"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActivityFilter captures paging parameters for the admin log listing.
type ActivityFilter struct {
	ActionKey string
	Page      int
	PageSize  int
}
