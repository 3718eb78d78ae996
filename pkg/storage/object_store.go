package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"luxsync/pkg/domain"
)

// ErrObjectNotFound is returned when the requested key does not exist.
// Callers map it to a 404 instead of a 500.
var ErrObjectNotFound = errors.New("object not found")

// DefaultListLimit bounds unpaginated listings.
const DefaultListLimit = 1000

// UploadResult describes a stored object after upload.
type UploadResult struct {
	Key         string
	PublicURL   string
	Size        int64
	ContentType string
}

// FileInfo describes an object's metadata.
type FileInfo struct {
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStore provides access to the gallery object storage. Keys are full
// storage keys including the configured base path; upload and list compose
// the base path themselves.
type ObjectStore interface {
	Upload(ctx context.Context, r io.Reader, size int64, fileName, folderPath, contentType string) (UploadResult, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (FileInfo, error)
	List(ctx context.Context, prefix string, limit int) ([]domain.ObjectInfo, error)
	Copy(ctx context.Context, sourceKey, targetKey string) error
	PublicURL(key string) string
	BasePath() string
}

// MinioStore implements ObjectStore for any S3-compatible endpoint
// (Backblaze B2, MinIO, AWS).
type MinioStore struct {
	client    *minio.Client
	bucket    string
	basePath  string
	publicURL string
}

// MinioConfig holds connection settings for the object store.
type MinioConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	BasePath  string
	PublicURL string
	UseSSL    bool
}

// NewMinioStore connects to the endpoint and verifies the bucket exists.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Region: cfg.Region,
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}
	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		basePath:  strings.Trim(cfg.BasePath, "/"),
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// BasePath returns the configured key prefix for all gallery objects.
func (m *MinioStore) BasePath() string { return m.basePath }

// Upload stores an object under <basePath>/<folderPath>/<fileName>.
func (m *MinioStore) Upload(ctx context.Context, r io.Reader, size int64, fileName, folderPath, contentType string) (UploadResult, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := JoinKey(m.basePath, folderPath, fileName)
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return UploadResult{}, fmt.Errorf("put object: %w", err)
	}
	return UploadResult{
		Key:         key,
		PublicURL:   m.PublicURL(key),
		Size:        info.Size,
		ContentType: contentType,
	}, nil
}

// Download reads the full object into memory.
func (m *MinioStore) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translateMinioErr("read object", err)
	}
	return data, nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Stat returns object metadata, distinguishing missing keys from transport
// failures.
func (m *MinioStore) Stat(ctx context.Context, key string) (FileInfo, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return FileInfo{}, translateMinioErr("stat object", err)
	}
	return FileInfo{
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// List returns up to limit objects under <basePath>/<prefix>.
func (m *MinioStore) List(ctx context.Context, prefix string, limit int) ([]domain.ObjectInfo, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	fullPrefix := m.basePath
	if prefix != "" {
		fullPrefix = JoinKey(m.basePath, prefix)
	}
	if fullPrefix != "" && !strings.HasSuffix(fullPrefix, "/") {
		fullPrefix += "/"
	}
	out := make([]domain.ObjectInfo, 0)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		out = append(out, domain.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Copy duplicates an object server-side; move is copy + delete.
func (m *MinioStore) Copy(ctx context.Context, sourceKey, targetKey string) error {
	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: targetKey},
		minio.CopySrcOptions{Bucket: m.bucket, Object: sourceKey},
	)
	if err != nil {
		return translateMinioErr("copy object", err)
	}
	return nil
}

// PublicURL derives the public download URL for a key. The B2 layout is
// <publicURL>/file/<bucket>/<key>.
func (m *MinioStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/file/%s/%s", m.publicURL, m.bucket, key)
}

func translateMinioErr(op string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
		return ErrObjectNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// JoinKey joins key segments with single slashes, dropping empty parts.
func JoinKey(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return strings.Join(cleaned, "/")
}
