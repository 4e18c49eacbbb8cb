package models

import "time"

// SubmissionStatusUploaded is the initial (and currently only) status.
const SubmissionStatusUploaded = "uploaded"

// Submission links a submitted file to its TP and student.
type Submission struct {
	ID              int64     `db:"id" json:"id"`
	TPID            int       `db:"tp_id" json:"tp_id"`
	UserID          string    `db:"user_id" json:"user_id"`
	FileID          string    `db:"file_id" json:"file_id"`
	FileType        string    `db:"file_type" json:"file_type"`
	Status          string    `db:"status" json:"status"`
	ServerTimestamp time.Time `db:"server_timestamp" json:"server_timestamp"`
}

// SubmissionSummary is a reporting row joining users with their latest
// submission state.
type SubmissionSummary struct {
	StudentID   string     `db:"student_id" json:"student_id"`
	FullName    string     `db:"full_name" json:"full_name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	FileType    *string    `db:"file_type" json:"file_type,omitempty"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	Submitted   bool       `db:"submitted" json:"submitted"`
}
