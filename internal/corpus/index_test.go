package corpus

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/pkg/blobstore"
)

const metadataCSV = `Author,AuthorID,FileName,FilePath
Balzac,1,b1.txt,data/Balzac/b1.txt
Balzac,1,b2.txt,data/Balzac/b2.txt
Zola,2,z1.txt,data/Zola/z1.txt
Hugo,3,h1.txt,data/Hugo/h1.txt
Hugo,bad-id,h2.txt,data/Hugo/h2.txt
Dumas,4,d1.txt,data/Dumas/d1.txt
`

func loadedIndex(t *testing.T) *Index {
	t.Helper()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	root, err := store.EnsureFolder(ctx, "", "NLP_M1")
	require.NoError(t, err)
	_, err = store.UploadBytes(ctx, root, []byte(metadataCSV), "metadata.csv", "text/csv")
	require.NoError(t, err)

	index := NewIndex(store, root, "metadata.csv", zap.NewNop())
	require.NoError(t, index.Load(ctx))
	return index
}

func TestLoadDropsUnparsableAuthorIDs(t *testing.T) {
	index := loadedIndex(t)

	assert.Equal(t, []string{"Balzac", "Zola", "Hugo", "Dumas"}, index.Authors())
	files := index.FilesForAuthors([]string{"Hugo"})
	require.Len(t, files, 1)
	assert.Equal(t, "h1.txt", files[0].FileName)
}

func TestLoadFailsWithoutMetadata(t *testing.T) {
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	index := NewIndex(store, "NLP_M1", "metadata.csv", zap.NewNop())
	assert.Error(t, index.Load(context.Background()))
}

func TestSampleAuthorsWithoutReplacement(t *testing.T) {
	index := loadedIndex(t)
	rng := rand.New(rand.NewSource(7))

	sample := index.SampleAuthors(rng, 3)
	require.Len(t, sample, 3)
	seen := make(map[string]struct{})
	for _, author := range sample {
		_, dup := seen[author]
		assert.False(t, dup, "author %q sampled twice", author)
		seen[author] = struct{}{}
	}

	// Requesting more authors than exist caps at the universe size.
	assert.Len(t, index.SampleAuthors(rng, 10), 4)
}

func TestSampleAuthorsReproducible(t *testing.T) {
	index := loadedIndex(t)

	first := index.SampleAuthors(rand.New(rand.NewSource(42)), 2)
	second := index.SampleAuthors(rand.New(rand.NewSource(42)), 2)
	assert.Equal(t, first, second)
}

func TestFilesForAuthorsPreservesOrder(t *testing.T) {
	index := loadedIndex(t)

	files := index.FilesForAuthors([]string{"Zola", "Balzac"})
	require.Len(t, files, 3)
	assert.Equal(t, "b1.txt", files[0].FileName)
	assert.Equal(t, "b2.txt", files[1].FileName)
	assert.Equal(t, "z1.txt", files[2].FileName)
}

func TestSelectHiddenTestsCount(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		size int
		want int
	}{
		{0, 0},
		{1, 1},
		{5, 1},
		{10, 1},
		{20, 2},
		{35, 3},
	}
	for _, tc := range cases {
		slice := make([]models.CorpusRecord, tc.size)
		for i := range slice {
			slice[i] = models.CorpusRecord{AuthorID: i}
		}
		hidden := SelectHiddenTests(rng, slice)
		assert.Len(t, hidden, tc.want, "slice size %d", tc.size)

		seen := make(map[int]struct{})
		for _, h := range hidden {
			assert.GreaterOrEqual(t, h.TextID, 0)
			assert.Less(t, h.TextID, tc.size)
			_, dup := seen[h.TextID]
			assert.False(t, dup)
			seen[h.TextID] = struct{}{}
			assert.Equal(t, h.TextID, h.GroundTruth)
		}
	}
}
