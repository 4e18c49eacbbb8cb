package corpus

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/pkg/blobstore"
)

// HiddenTest pairs a manifest index with the withheld ground-truth label.
type HiddenTest struct {
	TextID      int
	GroundTruth int
}

// Index holds the shared corpus metadata loaded once per process. All
// read operations are safe for concurrent use after Load.
type Index struct {
	store        blobstore.Store
	rootFolderID string
	metadataName string
	logger       *zap.Logger

	mu      sync.RWMutex
	records []models.CorpusRecord
	authors []string
}

// NewIndex constructs an unloaded corpus index.
func NewIndex(store blobstore.Store, rootFolderID, metadataName string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metadataName == "" {
		metadataName = "metadata.csv"
	}
	return &Index{store: store, rootFolderID: rootFolderID, metadataName: metadataName, logger: logger}
}

// Load downloads and parses the metadata table from the blob store root.
// Rows with a missing or unparsable AuthorID are dropped.
func (i *Index) Load(ctx context.Context) error {
	fileID, exists, err := i.store.FindItem(ctx, i.rootFolderID, i.metadataName, false)
	if err != nil {
		return fmt.Errorf("locate %s: %w", i.metadataName, err)
	}
	if !exists {
		return fmt.Errorf("%s not found in blob store root %q", i.metadataName, i.rootFolderID)
	}

	raw, err := i.store.Download(ctx, fileID)
	if err != nil {
		return fmt.Errorf("download %s: %w", i.metadataName, err)
	}

	records, dropped, err := parseMetadata(raw)
	if err != nil {
		return err
	}

	authors := make([]string, 0)
	seen := make(map[string]struct{})
	for _, rec := range records {
		if _, ok := seen[rec.Author]; ok {
			continue
		}
		seen[rec.Author] = struct{}{}
		authors = append(authors, rec.Author)
	}

	i.mu.Lock()
	i.records = records
	i.authors = authors
	i.mu.Unlock()

	i.logger.Info("corpus metadata loaded",
		zap.Int("records", len(records)),
		zap.Int("dropped_rows", dropped),
		zap.Int("authors", len(authors)))
	return nil
}

func parseMetadata(raw []byte) ([]models.CorpusRecord, int, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read metadata header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[name] = idx
	}
	for _, required := range []string{"Author", "AuthorID", "FileName", "FilePath"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("metadata is missing column %q", required)
		}
	}

	var records []models.CorpusRecord
	dropped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read metadata row: %w", err)
		}
		if len(row) <= cols["FilePath"] {
			dropped++
			continue
		}
		authorID, err := strconv.Atoi(row[cols["AuthorID"]])
		if err != nil {
			dropped++
			continue
		}
		records = append(records, models.CorpusRecord{
			Author:   row[cols["Author"]],
			AuthorID: authorID,
			FileName: row[cols["FileName"]],
			FilePath: row[cols["FilePath"]],
		})
	}
	return records, dropped, nil
}

// Authors returns the unique author names in first-seen order.
func (i *Index) Authors() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]string, len(i.authors))
	copy(out, i.authors)
	return out
}

// SampleAuthors draws up to n distinct authors uniformly at random without
// replacement.
func (i *Index) SampleAuthors(rng *rand.Rand, n int) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if n > len(i.authors) {
		n = len(i.authors)
	}
	if n <= 0 {
		return nil
	}
	perm := rng.Perm(len(i.authors))
	sample := make([]string, 0, n)
	for _, idx := range perm[:n] {
		sample = append(sample, i.authors[idx])
	}
	return sample
}

// FilesForAuthors returns every record whose author is in the given set,
// preserving the metadata order.
func (i *Index) FilesForAuthors(authors []string) []models.CorpusRecord {
	wanted := make(map[string]struct{}, len(authors))
	for _, a := range authors {
		wanted[a] = struct{}{}
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	var slice []models.CorpusRecord
	for _, rec := range i.records {
		if _, ok := wanted[rec.Author]; ok {
			slice = append(slice, rec)
		}
	}
	return slice
}

// SelectHiddenTests picks max(1, floor(0.10*len(slice))) distinct slice
// indices as withheld test items. An empty slice yields no hidden tests.
func SelectHiddenTests(rng *rand.Rand, slice []models.CorpusRecord) []HiddenTest {
	n := len(slice)
	if n == 0 {
		return nil
	}
	numHidden := n / 10
	if numHidden < 1 {
		numHidden = 1
	}

	hidden := make([]HiddenTest, 0, numHidden)
	for _, idx := range rng.Perm(n)[:numHidden] {
		hidden = append(hidden, HiddenTest{TextID: idx, GroundTruth: slice[idx].AuthorID})
	}
	return hidden
}
