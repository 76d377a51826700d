// Package archive uploads session analysis artifacts to S3-compatible
// object storage.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/onnwee/livesight/internal/storage"
)

// objectPutter is the slice of the S3 API the uploader uses.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds object-storage settings. Endpoint is required so the uploader
// works against R2 and MinIO as well as AWS.
type Config struct {
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Uploader copies a session's analysis directory into a bucket, keyed by
// room and session directory names.
type Uploader struct {
	client objectPutter
	bucket string
	logger *slog.Logger
}

// NewUploader creates an uploader from config.
func NewUploader(cfg Config, logger *slog.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("credentials are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})
	return &Uploader{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// ArchiveSession uploads every file under <sessionDir>/analysis/ to
// <room>/<session>/analysis/<name>. A session with no analysis directory is
// a no-op.
func (u *Uploader) ArchiveSession(ctx context.Context, sessionDir string) error {
	dir := filepath.Join(sessionDir, storage.AnalysisDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read analysis dir: %w", err)
	}

	abs, err := filepath.Abs(sessionDir)
	if err != nil {
		return err
	}
	room := filepath.Base(filepath.Dir(abs))
	session := filepath.Base(abs)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		key := fmt.Sprintf("%s/%s/%s/%s", room, session, storage.AnalysisDir, entry.Name())
		if err := u.putFile(ctx, filepath.Join(dir, entry.Name()), key); err != nil {
			return err
		}
		u.logger.Debug("artifact uploaded", "bucket", u.bucket, "key", key)
	}
	return nil
}

func (u *Uploader) putFile(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
