package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/pkg/codehost"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
)

type memSubmissionFiles struct {
	records     []models.FileRecord
	submissions []models.Submission
}

func (m *memSubmissionFiles) Create(ctx context.Context, file *models.FileRecord) error {
	file.ID = "f1"
	m.records = append(m.records, *file)
	return nil
}

func (m *memSubmissionFiles) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	m.submissions = append(m.submissions, *sub)
	return nil
}

type stubPusher struct {
	paths []string
	err   error
}

func (p *stubPusher) PutFile(ctx context.Context, path string, content []byte, commitMessage string) (*codehost.Commit, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.paths = append(p.paths, path)
	return &codehost.Commit{SHA: "abc123", HTMLURL: "https://example.com/commit/abc123"}, nil
}

type subFixture struct {
	users    *memUsers
	files    *memSubmissionFiles
	activity *memActivity
	pusher   *stubPusher
	svc      *SubmissionService
}

func newSubFixture(t *testing.T) *subFixture {
	t.Helper()
	fx := &subFixture{
		users:    newMemUsers(),
		files:    &memSubmissionFiles{},
		activity: &memActivity{},
		pusher:   &stubPusher{},
	}
	user := &models.User{StudentID: "22012345", FullName: "Alice Martin"}
	require.NoError(t, fx.users.Create(context.Background(), user))
	fx.svc = NewSubmissionService(fx.users, fx.files, fx.activity, fx.pusher, nil, nil)
	return fx
}

func notebookRequest() models.SubmissionRequest {
	return models.SubmissionRequest{
		StudentID:        "22012345",
		TPID:             1,
		FileKind:         "ipynb_classifier",
		OriginalFilename: "work.ipynb",
		Content:          []byte("{}"),
	}
}

func TestSubmitNotebook(t *testing.T) {
	fx := newSubFixture(t)

	result, err := fx.svc.Submit(context.Background(), notebookRequest())
	require.NoError(t, err)

	assert.Equal(t, "classifier_22012345_Alice_Martin.ipynb", result.StoredFilename)
	assert.Equal(t, "22012345_Alice_Martin/classifier_22012345_Alice_Martin.ipynb", result.Path)
	assert.Equal(t, "https://example.com/commit/abc123", result.CommitURL)
	assert.False(t, result.HasSubmitted)

	require.Len(t, fx.files.records, 1)
	require.Len(t, fx.files.submissions, 1)
	assert.Equal(t, "f1", fx.files.submissions[0].FileID)
	// Notebook kinds never close the gate.
	assert.False(t, fx.users.byStudent["22012345"].HasSubmitted)
	assert.Contains(t, fx.activity.actions(), models.ActionSubmission)
}

func TestSubmitEmbeddingsClosesGate(t *testing.T) {
	fx := newSubFixture(t)

	req := notebookRequest()
	req.FileKind = "embeddings"
	req.OriginalFilename = "vectors.txt"

	result, err := fx.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.HasSubmitted)
	assert.Equal(t, "embeddings_22012345_Alice_Martin.txt", result.StoredFilename)
	assert.True(t, fx.users.byStudent["22012345"].HasSubmitted)
}

func TestSubmitAfterGateClosed(t *testing.T) {
	fx := newSubFixture(t)
	fx.users.byStudent["22012345"].HasSubmitted = true

	for _, kind := range []string{"ipynb_classifier", "ipynb_textprocess", "embeddings"} {
		req := notebookRequest()
		req.FileKind = kind
		if kind == "embeddings" {
			req.OriginalFilename = "vectors.txt"
		}
		_, err := fx.svc.Submit(context.Background(), req)
		require.Error(t, err, "kind %s", kind)
		assert.True(t, appErrors.Is(err, appErrors.ErrAlreadySubmitted), "kind %s", kind)
	}
}

func TestSubmitValidatesPayload(t *testing.T) {
	fx := newSubFixture(t)

	empty := notebookRequest()
	empty.Content = nil
	_, err := fx.svc.Submit(context.Background(), empty)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	noTP := notebookRequest()
	noTP.TPID = 0
	_, err = fx.svc.Submit(context.Background(), noTP)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubmitUnknownStudent(t *testing.T) {
	fx := newSubFixture(t)

	req := notebookRequest()
	req.StudentID = "nobody"
	_, err := fx.svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSubmitPushFailure(t *testing.T) {
	fx := newSubFixture(t)
	fx.pusher.err = errors.New("upstream said no")

	_, err := fx.svc.Submit(context.Background(), notebookRequest())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstreamWriteFailed))
	assert.Empty(t, fx.files.records)
	assert.Contains(t, fx.activity.actions(), models.ActionError)
	// The gate stays open after a failed push.
	assert.False(t, fx.users.byStudent["22012345"].HasSubmitted)
}

func TestValidateFileKind(t *testing.T) {
	cases := []struct {
		kind     string
		filename string
		ok       bool
	}{
		{"ipynb_classifier", "work.ipynb", true},
		{"ipynb_classifier", "work.txt", false},
		{"ipynb_textprocess", "Work.IPYNB", true},
		{"ipynb", "notes.py", false},
		{"embeddings", "vectors.txt", true},
		{"embeddings", "vectors.bin", false},
		{"report", "report.pdf", true},
	}
	for _, tc := range cases {
		err := validateFileKind(tc.kind, tc.filename)
		if tc.ok {
			assert.NoError(t, err, "%s/%s", tc.kind, tc.filename)
		} else {
			require.Error(t, err, "%s/%s", tc.kind, tc.filename)
			assert.True(t, appErrors.Is(err, appErrors.ErrInvalidFileType))
		}
	}
}
