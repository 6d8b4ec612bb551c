// Package archive uploads scan result reports to S3 compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"scanorch/pkg/domain"
	"scanorch/pkg/logger"
)

const contentType = "application/json"

// Options configures the minio client.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// objectStore is the subset of *minio.Client used by Archive.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive writes one JSON object per result.
type Archive struct {
	store  objectStore
	bucket string
}

// New connects to the object store described by opts.
func New(opts Options) (*Archive, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create minio client: %w", err)
	}

	return &Archive{store: client, bucket: opts.Bucket}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("could not check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}

	if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("could not create bucket %s: %w", a.bucket, err)
	}
	logger.Info(ctx, "archive bucket created", zap.String("bucket", a.bucket))

	return nil
}

// Key returns the object key of result.
func Key(result *domain.ScanResult) string {
	return fmt.Sprintf("%s/%s.json", result.ScanTaskID, result.ID)
}

// Put uploads result as <taskID>/<resultID>.json, replacing any previous
// upload of the same result.
func (a *Archive) Put(ctx context.Context, result *domain.ScanResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	key := Key(result)
	info, err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("could not upload %s: %w", key, err)
	}

	logger.Debug(ctx, "result archived",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.Int64("size", info.Size))

	return nil
}
