package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"scanorch/pkg/domain"
)

type fakeStore struct {
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		buckets: map[string]bool{},
		objects: map[string][]byte{},
		types:   map[string]string{},
	}
}

func (f *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true

	return nil
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64,
	opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+key] = body
	f.types[bucket+"/"+key] = opts.ContentType

	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func sampleResult() *domain.ScanResult {
	return &domain.ScanResult{
		ID:         "r-1",
		ScanTaskID: "t-1",
		Vulnerabilities: []domain.Vulnerability{
			{Type: "XSS", Severity: domain.SeverityHigh, Location: "https://example.com"},
		},
		Timestamp:     time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
		ExecutionLogs: []string{"done"},
	}
}

func TestKey(t *testing.T) {
	require.Equal(t, "t-1/r-1.json", Key(sampleResult()))
}

func TestArchive_EnsureBucket(t *testing.T) {
	store := newFakeStore()
	a := &Archive{store: store, bucket: "scan-results"}

	require.NoError(t, a.EnsureBucket(context.Background()))
	require.True(t, store.buckets["scan-results"])

	// existing bucket is left alone
	require.NoError(t, a.EnsureBucket(context.Background()))
}

func TestArchive_Put(t *testing.T) {
	store := newFakeStore()
	a := &Archive{store: store, bucket: "scan-results"}
	result := sampleResult()

	require.NoError(t, a.Put(context.Background(), result))

	body, ok := store.objects["scan-results/t-1/r-1.json"]
	require.True(t, ok)
	require.Equal(t, "application/json", store.types["scan-results/t-1/r-1.json"])

	var got domain.ScanResult
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, *result, got)
}

func TestArchive_PutError(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("connection reset")
	a := &Archive{store: store, bucket: "scan-results"}

	err := a.Put(context.Background(), sampleResult())
	require.ErrorIs(t, err, store.putErr)
	require.Contains(t, err.Error(), "t-1/r-1.json")
}
