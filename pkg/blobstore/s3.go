package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"
)

// S3Store implements Store on top of an S3 (or compatible) bucket. Folders
// are key prefixes; an empty marker object with a trailing slash pins a
// folder that has no files yet. Item ids are object keys.
type S3Store struct {
	client *s3.S3
	bucket string
	logger *zap.Logger
}

// S3Options configures the S3 backend. Credentials come from the default AWS
// chain (env, shared config, instance profile).
type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string
}

// NewS3Store builds an S3-backed store.
func NewS3Store(opts S3Options, logger *zap.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 blobstore requires a bucket name")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	awsCfg := aws.Config{Region: aws.String(opts.Region)}
	if opts.Endpoint != "" {
		awsCfg.Endpoint = aws.String(opts.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return &S3Store{client: s3.New(sess), bucket: opts.Bucket, logger: logger}, nil
}

// FindItem checks for a direct child of parentID by name.
func (s *S3Store) FindItem(ctx context.Context, parentID, name string, isFolder bool) (string, bool, error) {
	key := childKey(parentID, name)
	if isFolder {
		prefix := key + "/"
		out, err := s.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(s.bucket),
			Prefix:  aws.String(prefix),
			MaxKeys: aws.Int64(1),
		})
		if err != nil {
			return "", false, fmt.Errorf("list s3 prefix %q: %w", prefix, err)
		}
		if aws.Int64Value(out.KeyCount) == 0 {
			return "", false, nil
		}
		return key, true, nil
	}

	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("head s3 object %q: %w", key, err)
	}
	return key, true, nil
}

// EnsureFolder creates the folder marker when the prefix is empty.
func (s *S3Store) EnsureFolder(ctx context.Context, parentID, name string) (string, error) {
	id, exists, err := s.FindItem(ctx, parentID, name, true)
	if err != nil {
		return "", err
	}
	if exists {
		return id, nil
	}

	key := childKey(parentID, name)
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key + "/"),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return "", fmt.Errorf("create s3 folder marker %q: %w", key, err)
	}
	return key, nil
}

// Download returns the content of the object identified by fileID.
func (s *S3Store) Download(ctx context.Context, fileID string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get s3 object %q: %w", fileID, err)
	}
	defer out.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object %q: %w", fileID, err)
	}
	return data, nil
}

// UploadFile streams a local file into the folder.
func (s *S3Store) UploadFile(ctx context.Context, folderID, localPath, name string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer file.Close() //nolint:errcheck

	key := childKey(folderID, name)
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("put s3 object %q: %w", key, err)
	}
	return key, nil
}

// UploadBytes stores raw bytes into the folder.
func (s *S3Store) UploadBytes(ctx context.Context, folderID string, data []byte, name, mime string) (string, error) {
	key := childKey(folderID, name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if mime != "" {
		input.ContentType = aws.String(mime)
	}
	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("put s3 object %q: %w", key, err)
	}
	return key, nil
}

func childKey(parentID, name string) string {
	return path.Join(strings.Trim(parentID, "/"), name)
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return strings.Contains(err.Error(), "404")
}
