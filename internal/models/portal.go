package models

import "time"

// RegistrationRequest is the student-facing registration payload.
type RegistrationRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	TPID      int    `json:"tp_id" validate:"required,min=1"`
}

// StudentLoginRequest re-opens an existing allocation.
type StudentLoginRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	TPID      int    `json:"tp_id" validate:"required,min=1"`
}

// NameLoginRequest is the legacy name-keyed login payload. The archive is
// resolved from the blob store; when a student id is supplied the user row
// is created if absent so the student can submit later.
type NameLoginRequest struct {
	StudentID string `json:"student_id"`
	FullName  string `json:"full_name" validate:"required"`
}

// AllocationResult describes a student's dataset allocation. AssignedAuthors
// holds the persisted author names; PackageRef is the blob store id of the
// uploaded archive.
type AllocationResult struct {
	StudentID        string   `json:"student_id"`
	FullName         string   `json:"full_name"`
	TPID             int      `json:"tp_id"`
	AssignedAuthors  []string `json:"assigned_authors"`
	PackageRef       string   `json:"package_ref"`
	PackagePath      string   `json:"package_path"`
	AlreadyAllocated bool     `json:"already_allocated"`
}

// SubmissionRequest carries one uploaded work file.
type SubmissionRequest struct {
	StudentID        string `validate:"required"`
	TPID             int    `validate:"min=1"`
	FileKind         string `validate:"required"`
	OriginalFilename string `validate:"required"`
	Content          []byte `validate:"required,min=1"`
}

// SubmissionResult reports where a submission landed.
type SubmissionResult struct {
	StoredFilename string    `json:"stored_filename"`
	Path           string    `json:"path"`
	CommitURL      string    `json:"commit_url"`
	FileType       string    `json:"file_type"`
	HasSubmitted   bool      `json:"has_submitted"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
