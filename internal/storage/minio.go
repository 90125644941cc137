package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/flowgrid/flowgrid/internal/config"
	"github.com/flowgrid/flowgrid/pkg/idgen"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage holds uploaded verification documents and plant photos.
// Backed by MinIO or any S3-compatible endpoint.
type ObjectStorage struct {
	client *minio.Client
	bucket string
}

// NewObjectStorage creates a new ObjectStorage from config
func NewObjectStorage(cfg *config.StorageConfig) (*ObjectStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("storage endpoint and bucket are required")
	}

	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &ObjectStorage{client: cl, bucket: cfg.Bucket}, nil
}

// ObjectStat describes a stored object
type ObjectStat struct {
	Key          string    `json:"key"`
	ETag         string    `json:"etag"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// Upload stores a document under a generated key within the prefix and
// returns its stat. The key is what callers persist (e.g. on a
// verification request).
func (s *ObjectStorage) Upload(ctx context.Context, prefix, filename string, body io.Reader, size int64, contentType string) (ObjectStat, error) {
	key, err := buildObjectKey(prefix, filename)
	if err != nil {
		return ObjectStat{}, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return ObjectStat{}, err
	}
	return ObjectStat{
		Key:          key,
		ETag:         info.ETag,
		Size:         info.Size,
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
	}, nil
}

// Get opens a stored object for reading
func (s *ObjectStorage) Get(ctx context.Context, key string) (*minio.Object, ObjectStat, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectStat{}, err
	}
	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectStat{}, err
	}
	return obj, ObjectStat{Key: key, ETag: st.ETag, Size: st.Size, ContentType: st.ContentType, LastModified: st.LastModified}, nil
}

// Stat returns metadata for a stored object
func (s *ObjectStorage) Stat(ctx context.Context, key string) (ObjectStat, error) {
	st, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectStat{}, err
	}
	return ObjectStat{Key: key, ETag: st.ETag, Size: st.Size, ContentType: st.ContentType, LastModified: st.LastModified}, nil
}

// Delete removes a stored object
func (s *ObjectStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// PresignedGetURL returns a time-limited download link for a stored object
func (s *ObjectStorage) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// buildObjectKey derives a collision-free key from the original filename.
// Traversal sequences are rejected rather than sanitized.
func buildObjectKey(prefix, filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", errors.New("empty filename")
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return "", errors.New("invalid filename")
	}

	id, err := idgen.NextID()
	if err != nil {
		return "", err
	}

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s-%s", id, filename), nil
	}
	return fmt.Sprintf("%s/%s-%s", prefix, id, filename), nil
}
