package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nlp-m1/tp-portal-api/internal/corpus"
	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/internal/repository"
	"github.com/nlp-m1/tp-portal-api/pkg/archive"
	"github.com/nlp-m1/tp-portal-api/pkg/blobstore"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
)

const (
	studentsFolderName = "students"
	packageArchiveName = "data.zip"
	manifestName       = "meta.csv"
	persistedAuthors   = 3
)

type registrationUserRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, userID string, ts time.Time) error
	SubmittedFullNames(ctx context.Context) ([]string, error)
}

type allocationRepository interface {
	FindByTPAndUser(ctx context.Context, tpID int, userID string) (*models.AssignedClasses, error)
	Create(ctx context.Context, assigned *models.AssignedClasses) error
	CreateHiddenTests(ctx context.Context, hidden []models.HiddenTestID) error
	ListHiddenTests(ctx context.Context, tpID int, userID string) ([]models.HiddenTestID, error)
}

type datasetFileRepository interface {
	Create(ctx context.Context, file *models.FileRecord) error
	FindDataset(ctx context.Context, tpID int, userID string) (*models.FileRecord, error)
}

type activityWriter interface {
	Create(ctx context.Context, log *models.ActivityLog) error
}

type corpusSource interface {
	SampleAuthors(rng *rand.Rand, n int) []string
	FilesForAuthors(authors []string) []models.CorpusRecord
}

type allocationLocker interface {
	Acquire(ctx context.Context, tpID int, studentID string) bool
	Release(ctx context.Context, tpID int, studentID string)
}

type rosterValidator interface {
	IsValidName(fullName string) bool
	AllNames() []string
}

// RegistrationOptions tunes the allocation routine.
type RegistrationOptions struct {
	AuthorsPerStudent int
	RootFolderID      string
	DataFolderName    string
	// Seed fixes the sampling sequence; zero seeds from the clock.
	Seed int64
}

// RegistrationService implements registration, login and dataset retrieval.
type RegistrationService struct {
	users      registrationUserRepository
	tps        tpReader
	allocs     allocationRepository
	files      datasetFileRepository
	activity   activityWriter
	corpus     corpusSource
	store      blobstore.Store
	lock       allocationLocker
	roster     rosterValidator
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
	opts       RegistrationOptions
	now        func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	users registrationUserRepository,
	tps tpReader,
	allocs allocationRepository,
	files datasetFileRepository,
	activity activityWriter,
	corpusIdx corpusSource,
	store blobstore.Store,
	lock allocationLocker,
	roster rosterValidator,
	validate *validator.Validate,
	logger *zap.Logger,
	opts RegistrationOptions,
) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if opts.AuthorsPerStudent <= 0 {
		opts.AuthorsPerStudent = 4
	}
	if opts.DataFolderName == "" {
		opts.DataFolderName = "data"
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RegistrationService{
		users:     users,
		tps:       tps,
		allocs:    allocs,
		files:     files,
		activity:  activity,
		corpus:    corpusIdx,
		store:     store,
		lock:      lock,
		roster:    roster,
		validator: validate,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// WithMetrics attaches instrumentation; safe to skip.
func (s *RegistrationService) WithMetrics(m *MetricsService) *RegistrationService {
	s.metrics = m
	return s
}

var nameSanitizer = struct {
	strip    *regexp.Regexp
	collapse *regexp.Regexp
}{
	strip:    regexp.MustCompile(`[^\p{L}\p{N}_\s-]`),
	collapse: regexp.MustCompile(`[-\s]+`),
}

var nameTrim = regexp.MustCompile(`^[\s-]+|[\s-]+$`)

// SanitizeName normalizes a full name for use as a storage path segment.
// Every place that derives a path from a name must go through here.
func SanitizeName(fullName string) string {
	cleaned := nameSanitizer.strip.ReplaceAllString(fullName, "")
	cleaned = nameTrim.ReplaceAllString(cleaned, "")
	return nameSanitizer.collapse.ReplaceAllString(cleaned, "_")
}

func (s *RegistrationService) studentDirName(studentID, fullName string) string {
	return fmt.Sprintf("%s_%s", studentID, SanitizeName(fullName))
}

// Register allocates a dataset package for a student, or returns the
// existing allocation when one is already complete.
func (s *RegistrationService) Register(ctx context.Context, req models.RegistrationRequest) (*models.AllocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	user, err := s.findUser(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	tp, err := resolveTPWindow(ctx, s.tps, req.TPID, s.now())
	if err != nil {
		return nil, err
	}

	if user != nil && user.Email != nil && *user.Email != req.Email {
		s.audit(ctx, &user.ID, &tp.TPID, models.ActionError,
			fmt.Sprintf("registration rejected for %s: email mismatch", req.StudentID))
		return nil, appErrors.Clone(appErrors.ErrEmailMismatch, "")
	}

	if user != nil {
		result, complete, err := s.existingAllocation(ctx, tp.TPID, user)
		if err != nil {
			return nil, err
		}
		if complete {
			s.metrics.RecordRegistration("idempotent")
			s.touchLogin(ctx, user, tp.TPID)
			return result, nil
		}
	}

	if !s.lock.Acquire(ctx, tp.TPID, req.StudentID) {
		// Another request is mid-allocation for the same student. Re-read in
		// case it finished, otherwise ask the caller to retry.
		if user != nil {
			if result, complete, err := s.existingAllocation(ctx, tp.TPID, user); err == nil && complete {
				return result, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already in progress, retry shortly")
	}
	defer s.lock.Release(ctx, tp.TPID, req.StudentID)

	result, err := s.allocate(ctx, tp, user, req)
	if err != nil {
		var userID *string
		if user != nil {
			userID = &user.ID
		}
		s.audit(ctx, userID, &tp.TPID, models.ActionError,
			fmt.Sprintf("allocation failed for %s: %v", req.StudentID, err))
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			s.metrics.RecordRegistration("rejected")
			return nil, err
		}
		s.metrics.RecordRegistration("failed")
		s.logger.Error("allocation failed",
			zap.String("student_id", req.StudentID),
			zap.Int("tp_id", tp.TPID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "registration failed")
	}
	s.metrics.RecordRegistration("allocated")
	return result, nil
}

// ensureUser returns the row for studentID, creating it when absent. A
// unique violation means a concurrent request inserted the row first; the
// existing row wins.
func (s *RegistrationService) ensureUser(ctx context.Context, studentID, fullName string, email *string) (*models.User, bool, error) {
	user, err := s.findUser(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}
	user = &models.User{StudentID: studentID, FullName: fullName, Email: email}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			existing, ferr := s.findUser(ctx, studentID)
			if ferr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("persist user: %w", err)
	}
	return user, true, nil
}

func (s *RegistrationService) findUser(ctx context.Context, studentID string) (*models.User, error) {
	user, err := s.users.FindByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	return user, nil
}

// existingAllocation reports whether the student already has both the
// allocation row and the dataset record. A half-written pair is reported as
// incomplete so the caller can rebuild it.
func (s *RegistrationService) existingAllocation(ctx context.Context, tpID int, user *models.User) (*models.AllocationResult, bool, error) {
	assigned, err := s.allocs.FindByTPAndUser(ctx, tpID, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch allocation")
	}

	dataset, err := s.files.FindDataset(ctx, tpID, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch dataset record")
	}

	return &models.AllocationResult{
		StudentID:        user.StudentID,
		FullName:         user.FullName,
		TPID:             tpID,
		AssignedAuthors:  assigned.Classes(),
		PackageRef:       dataset.RemoteRef,
		PackagePath:      dataset.Path,
		AlreadyAllocated: true,
	}, true, nil
}

func (s *RegistrationService) allocate(ctx context.Context, tp *models.TP, user *models.User, req models.RegistrationRequest) (*models.AllocationResult, error) {
	// Re-check under the lock. A concurrent request may have completed the
	// allocation between our first read and acquiring the lock.
	if user != nil {
		if result, complete, err := s.existingAllocation(ctx, tp.TPID, user); err != nil {
			return nil, err
		} else if complete {
			return result, nil
		}
	}

	// A half-written allocation (row without dataset record) is repaired by
	// rebuilding the package from the persisted authors.
	if user != nil {
		assigned, err := s.allocs.FindByTPAndUser(ctx, tp.TPID, user.ID)
		if err == nil {
			return s.repairAllocation(ctx, tp, user, assigned)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch allocation")
		}
	}

	s.rngMu.Lock()
	sampled := s.corpus.SampleAuthors(s.rng, s.opts.AuthorsPerStudent)
	slice := s.corpus.FilesForAuthors(sampled)
	hidden := corpus.SelectHiddenTests(s.rng, slice)
	s.rngMu.Unlock()

	if len(sampled) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInsufficientCorpus, "")
	}

	dirName := s.studentDirName(req.StudentID, req.FullName)
	hiddenSet := make(map[int]struct{}, len(hidden))
	for _, h := range hidden {
		hiddenSet[h.TextID] = struct{}{}
	}

	packageRef, size, err := s.buildAndUpload(ctx, dirName, sampled, slice, hiddenSet)
	if err != nil {
		return nil, err
	}

	if user == nil {
		var created bool
		user, created, err = s.ensureUser(ctx, req.StudentID, req.FullName, &req.Email)
		if err != nil {
			return nil, err
		}
		if !created {
			// Lost the user-row race; the winner may have already allocated.
			if result, complete, rerr := s.existingAllocation(ctx, tp.TPID, user); rerr == nil && complete {
				return result, nil
			}
		}
	}

	persisted := sampled
	if len(persisted) > persistedAuthors {
		persisted = persisted[:persistedAuthors]
	}
	assigned := &models.AssignedClasses{TPID: tp.TPID, UserID: user.ID}
	if len(persisted) > 0 {
		assigned.Class1 = persisted[0]
	}
	if len(persisted) > 1 {
		assigned.Class2 = persisted[1]
	}
	if len(persisted) > 2 {
		assigned.Class3 = persisted[2]
	}
	if err := s.allocs.Create(ctx, assigned); err != nil {
		if repository.IsUniqueViolation(err) {
			s.metrics.RecordAllocationConflict()
			// Lost the race despite the lock; the winner's allocation stands.
			if result, complete, rerr := s.existingAllocation(ctx, tp.TPID, user); rerr == nil && complete {
				return result, nil
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration already in progress, retry shortly")
		}
		return nil, fmt.Errorf("persist allocation: %w", err)
	}

	hiddenRows := make([]models.HiddenTestID, 0, len(hidden))
	for _, h := range hidden {
		hiddenRows = append(hiddenRows, models.HiddenTestID{
			TPID:        tp.TPID,
			UserID:      user.ID,
			TextID:      h.TextID,
			GroundTruth: h.GroundTruth,
		})
	}
	if err := s.allocs.CreateHiddenTests(ctx, hiddenRows); err != nil {
		return nil, fmt.Errorf("persist hidden tests: %w", err)
	}

	packagePath := fmt.Sprintf("%s/%s/%s", studentsFolderName, dirName, packageArchiveName)
	record := &models.FileRecord{
		TPID:      &tp.TPID,
		UserID:    &user.ID,
		RemoteRef: packageRef,
		Path:      packagePath,
		FileType:  models.FileTypeDatasetZip,
		SizeBytes: &size,
	}
	if err := s.files.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist dataset record: %w", err)
	}

	s.audit(ctx, &user.ID, &tp.TPID, models.ActionRegistration,
		fmt.Sprintf("allocated %d authors, %d files, %d hidden tests", len(sampled), len(slice), len(hidden)))
	s.logger.Info("student registered",
		zap.String("student_id", req.StudentID),
		zap.Int("tp_id", tp.TPID),
		zap.Strings("authors", sampled),
		zap.Int("files", len(slice)))

	return &models.AllocationResult{
		StudentID:       user.StudentID,
		FullName:        user.FullName,
		TPID:            tp.TPID,
		AssignedAuthors: assigned.Classes(),
		PackageRef:      packageRef,
		PackagePath:     packagePath,
	}, nil
}

// repairAllocation rebuilds the uploaded package for an allocation row whose
// dataset record is missing.
func (s *RegistrationService) repairAllocation(ctx context.Context, tp *models.TP, user *models.User, assigned *models.AssignedClasses) (*models.AllocationResult, error) {
	authors := assigned.Classes()
	slice := s.corpus.FilesForAuthors(authors)

	hiddenRows, err := s.allocs.ListHiddenTests(ctx, tp.TPID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch hidden tests: %w", err)
	}
	hiddenSet := make(map[int]struct{}, len(hiddenRows))
	for _, h := range hiddenRows {
		if h.TextID < len(slice) {
			hiddenSet[h.TextID] = struct{}{}
		}
	}

	dirName := s.studentDirName(user.StudentID, user.FullName)
	packageRef, size, err := s.buildAndUpload(ctx, dirName, authors, slice, hiddenSet)
	if err != nil {
		return nil, err
	}

	packagePath := fmt.Sprintf("%s/%s/%s", studentsFolderName, dirName, packageArchiveName)
	record := &models.FileRecord{
		TPID:      &tp.TPID,
		UserID:    &user.ID,
		RemoteRef: packageRef,
		Path:      packagePath,
		FileType:  models.FileTypeDatasetZip,
		SizeBytes: &size,
	}
	if err := s.files.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist dataset record: %w", err)
	}

	s.audit(ctx, &user.ID, &tp.TPID, models.ActionRegistration,
		fmt.Sprintf("repaired allocation for %s, rebuilt package", user.StudentID))
	s.logger.Warn("rebuilt missing dataset package",
		zap.String("student_id", user.StudentID),
		zap.Int("tp_id", tp.TPID))

	return &models.AllocationResult{
		StudentID:       user.StudentID,
		FullName:        user.FullName,
		TPID:            tp.TPID,
		AssignedAuthors: authors,
		PackageRef:      packageRef,
		PackagePath:     packagePath,
	}, nil
}

// buildAndUpload stages the package on the local filesystem, archives it and
// uploads the archive to the student's folder. The staging directory is
// removed on every exit path.
func (s *RegistrationService) buildAndUpload(ctx context.Context, dirName string, authors []string, slice []models.CorpusRecord, hidden map[int]struct{}) (string, int64, error) {
	tmpDir, err := os.MkdirTemp("", "tp-package-*")
	if err != nil {
		return "", 0, fmt.Errorf("create staging dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			s.logger.Warn("staging cleanup failed", zap.String("dir", tmpDir), zap.Error(rmErr))
		}
	}()

	pkgDir := filepath.Join(tmpDir, dirName)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create package dir: %w", err)
	}

	if err := writeManifest(filepath.Join(pkgDir, manifestName), slice, hidden); err != nil {
		return "", 0, err
	}

	if err := s.stageCorpusFiles(ctx, pkgDir, authors, slice); err != nil {
		return "", 0, err
	}

	zipPath := filepath.Join(tmpDir, packageArchiveName)
	if err := archive.ZipDir(pkgDir, zipPath); err != nil {
		return "", 0, fmt.Errorf("archive package: %w", err)
	}
	info, err := os.Stat(zipPath)
	if err != nil {
		return "", 0, fmt.Errorf("stat archive: %w", err)
	}

	studentsID, err := s.store.EnsureFolder(ctx, s.opts.RootFolderID, studentsFolderName)
	if err != nil {
		return "", 0, fmt.Errorf("ensure students folder: %w", err)
	}
	studentFolderID, err := s.store.EnsureFolder(ctx, studentsID, dirName)
	if err != nil {
		return "", 0, fmt.Errorf("ensure student folder: %w", err)
	}
	ref, err := s.store.UploadFile(ctx, studentFolderID, zipPath, packageArchiveName)
	if err != nil {
		return "", 0, fmt.Errorf("upload package: %w", err)
	}
	return ref, info.Size(), nil
}

// stageCorpusFiles downloads every sliced file into a directory per author.
// A missing author folder aborts the build; a missing single file is skipped
// with a warning.
func (s *RegistrationService) stageCorpusFiles(ctx context.Context, pkgDir string, authors []string, slice []models.CorpusRecord) error {
	dataID, exists, err := s.store.FindItem(ctx, s.opts.RootFolderID, s.opts.DataFolderName, true)
	if err != nil {
		return fmt.Errorf("locate data folder: %w", err)
	}
	if !exists {
		return fmt.Errorf("data folder %q not found in blob store", s.opts.DataFolderName)
	}

	authorFolders := make(map[string]string, len(authors))
	for _, author := range authors {
		folderID, exists, err := s.store.FindItem(ctx, dataID, author, true)
		if err != nil {
			return fmt.Errorf("locate author folder %q: %w", author, err)
		}
		if !exists {
			return fmt.Errorf("author folder %q not found in blob store", author)
		}
		authorFolders[author] = folderID
		if err := os.MkdirAll(filepath.Join(pkgDir, SanitizeName(author)), 0o755); err != nil {
			return fmt.Errorf("create author dir: %w", err)
		}
	}

	for _, rec := range slice {
		folderID, ok := authorFolders[rec.Author]
		if !ok {
			continue
		}
		fileID, exists, err := s.store.FindItem(ctx, folderID, rec.FileName, false)
		if err != nil {
			return fmt.Errorf("locate file %q: %w", rec.FileName, err)
		}
		if !exists {
			s.logger.Warn("corpus file missing, skipped",
				zap.String("author", rec.Author),
				zap.String("file", rec.FileName))
			continue
		}
		content, err := s.store.Download(ctx, fileID)
		if err != nil {
			return fmt.Errorf("download %q: %w", rec.FileName, err)
		}
		dest := filepath.Join(pkgDir, SanitizeName(rec.Author), rec.FileName)
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return fmt.Errorf("write %q: %w", dest, err)
		}
	}
	return nil
}

// writeManifest emits the student-facing listing. It never contains ground
// truth labels, only an availability flag per item.
func writeManifest(path string, slice []models.CorpusRecord, hidden map[int]struct{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer file.Close() //nolint:errcheck

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"id", "FilePath", "label_is_available"}); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}
	for idx, rec := range slice {
		available := "1"
		if _, ok := hidden[idx]; ok {
			available = "0"
		}
		if err := writer.Write([]string{strconv.Itoa(idx), rec.FilePath, available}); err != nil {
			return fmt.Errorf("write manifest row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Login re-opens an existing allocation. Read-only apart from audit and
// last-login bookkeeping.
func (s *RegistrationService) Login(ctx context.Context, req models.StudentLoginRequest) (*models.AllocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	tp, err := resolveTPWindow(ctx, s.tps, req.TPID, s.now())
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s is not registered", req.StudentID))
	}

	result, complete, err := s.existingAllocation(ctx, tp.TPID, user)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, appErrors.Clone(appErrors.ErrIncompleteRegistration, "")
	}

	s.touchLogin(ctx, user, tp.TPID)
	return result, nil
}

// LoginByName is the legacy name-keyed path. It validates the name against
// the roster and resolves a pre-built archive in the blob store. A supplied
// student id creates the user row if absent so the student can submit later.
func (s *RegistrationService) LoginByName(ctx context.Context, req models.NameLoginRequest) (*models.AllocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	if !s.roster.IsValidName(req.FullName) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "name is not on the student roster")
	}

	var user *models.User
	if req.StudentID != "" {
		var err error
		user, _, err = s.ensureUser(ctx, req.StudentID, req.FullName, nil)
		if err != nil {
			return nil, err
		}
	}

	sanitized := SanitizeName(req.FullName)
	studentsID, exists, err := s.store.FindItem(ctx, s.opts.RootFolderID, studentsFolderName, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "blob store lookup failed")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no student packages exist yet")
	}
	folderID, exists, err := s.store.FindItem(ctx, studentsID, sanitized, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "blob store lookup failed")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no package found for %s", req.FullName))
	}

	archiveName := fmt.Sprintf("%s_books.zip", sanitized)
	fileID, exists, err := s.store.FindItem(ctx, folderID, archiveName, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "blob store lookup failed")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no archive found for %s", req.FullName))
	}

	var userID *string
	if user != nil {
		userID = &user.ID
	}
	s.audit(ctx, userID, nil, models.ActionLogin, fmt.Sprintf("name-keyed login by %s", req.FullName))
	return &models.AllocationResult{
		StudentID:        req.StudentID,
		FullName:         req.FullName,
		PackageRef:       fileID,
		PackagePath:      fmt.Sprintf("%s/%s/%s", studentsFolderName, sanitized, archiveName),
		AlreadyAllocated: true,
	}, nil
}

// GetStudentZip returns the raw bytes of a student's dataset archive.
func (s *RegistrationService) GetStudentZip(ctx context.Context, tpID int, studentID string) ([]byte, error) {
	record, err := s.datasetRecord(ctx, tpID, studentID)
	if err != nil {
		return nil, err
	}
	content, err := s.store.Download(ctx, record.RemoteRef)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to download package")
	}
	return content, nil
}

// GetStudentMeta extracts the manifest from a student's dataset archive.
func (s *RegistrationService) GetStudentMeta(ctx context.Context, tpID int, studentID string) ([]byte, error) {
	raw, err := s.GetStudentZip(ctx, tpID, studentID)
	if err != nil {
		return nil, err
	}
	meta, err := archive.ExtractFile(raw, manifestName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "manifest not found in package")
	}
	return meta, nil
}

// ListStudents returns the roster names that have not yet submitted.
func (s *RegistrationService) ListStudents(ctx context.Context) ([]string, error) {
	submitted, err := s.users.SubmittedFullNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	submittedSet := make(map[string]struct{}, len(submitted))
	for _, name := range submitted {
		submittedSet[name] = struct{}{}
	}

	names := s.roster.AllNames()
	remaining := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := submittedSet[name]; ok {
			continue
		}
		remaining = append(remaining, name)
	}
	return remaining, nil
}

func (s *RegistrationService) datasetRecord(ctx context.Context, tpID int, studentID string) (*models.FileRecord, error) {
	user, err := s.findUser(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s is not registered", studentID))
	}
	record, err := s.files.FindDataset(ctx, tpID, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrIncompleteRegistration, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch dataset record")
	}
	return record, nil
}

func (s *RegistrationService) touchLogin(ctx context.Context, user *models.User, tpID int) {
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}
	s.audit(ctx, &user.ID, &tpID, models.ActionLogin, fmt.Sprintf("login by %s", user.StudentID))
}

func (s *RegistrationService) audit(ctx context.Context, userID *string, tpID *int, action, details string) {
	entry := &models.ActivityLog{UserID: userID, TPID: tpID, ActionKey: action, Details: details}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write activity log", zap.String("action", action), zap.Error(err))
	}
}
