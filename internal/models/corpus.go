package models

// CorpusRecord is one row of the shared corpus metadata table. AuthorID is a
// stable surrogate for Author; rows whose AuthorID does not parse are dropped
// at load time.
type CorpusRecord struct {
	Author   string
	AuthorID int
	FileName string
	FilePath string
}
