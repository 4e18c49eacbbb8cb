package models

import "time"

// File types recorded for uploaded artifacts.
const (
	FileTypeDatasetZip = "dataset_zip"
	FileTypeEmbeddings = "embeddings"
)

// FileRecord tracks one uploaded artifact: the generated dataset package or a
// submission. RemoteRef carries the blob store file id for packages and the
// commit URL for submissions. Append-only.
type FileRecord struct {
	ID               string    `db:"id" json:"id"`
	TPID             *int      `db:"tp_id" json:"tp_id,omitempty"`
	UserID           *string   `db:"user_id" json:"user_id,omitempty"`
	RemoteRef        string    `db:"remote_ref" json:"remote_ref"`
	Path             string    `db:"path" json:"path"`
	OriginalFilename *string   `db:"original_filename" json:"original_filename,omitempty"`
	StoredFilename   *string   `db:"stored_filename" json:"stored_filename,omitempty"`
	FileType         string    `db:"file_type" json:"file_type"`
	SizeBytes        *int64    `db:"size_bytes" json:"size_bytes,omitempty"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploaded_at"`
}
