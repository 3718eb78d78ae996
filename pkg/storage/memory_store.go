package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"luxsync/pkg/domain"
)

// MemoryStore is an in-process ObjectStore used in tests and local
// development. It mirrors the key layout and error semantics of MinioStore.
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string]memoryObject
	bucket    string
	basePath  string
	publicURL string
}

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// NewMemoryStore initializes an empty in-memory object store.
func NewMemoryStore(bucket, basePath, publicURL string) *MemoryStore {
	return &MemoryStore{
		objects:   make(map[string]memoryObject),
		bucket:    bucket,
		basePath:  strings.Trim(basePath, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// BasePath returns the configured key prefix.
func (m *MemoryStore) BasePath() string { return m.basePath }

// PutObject seeds an object by full key, for test setup.
func (m *MemoryStore) PutObject(key string, data []byte, contentType string, lastModified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, lastModified: lastModified}
}

// Upload stores an object under <basePath>/<folderPath>/<fileName>.
func (m *MemoryStore) Upload(_ context.Context, r io.Reader, _ int64, fileName, folderPath, contentType string) (UploadResult, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return UploadResult{}, fmt.Errorf("read upload: %w", err)
	}
	key := JoinKey(m.basePath, folderPath, fileName)
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, lastModified: time.Now().UTC()}
	m.mu.Unlock()
	return UploadResult{
		Key:         key,
		PublicURL:   m.PublicURL(key),
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Download returns a copy of the object bytes.
func (m *MemoryStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Stat returns object metadata.
func (m *MemoryStore) Stat(_ context.Context, key string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return FileInfo{}, ErrObjectNotFound
	}
	return FileInfo{
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.lastModified,
	}, nil
}

// List returns up to limit objects under <basePath>/<prefix>, sorted by key.
func (m *MemoryStore) List(_ context.Context, prefix string, limit int) ([]domain.ObjectInfo, error) {
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
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ObjectInfo, 0)
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, fullPrefix) {
			continue
		}
		out = append(out, domain.ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: obj.lastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Copy duplicates an object.
func (m *MemoryStore) Copy(_ context.Context, sourceKey, targetKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[sourceKey]
	if !ok {
		return ErrObjectNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	m.objects[targetKey] = memoryObject{data: data, contentType: obj.contentType, lastModified: time.Now().UTC()}
	return nil
}

// PublicURL derives the public download URL for a key.
func (m *MemoryStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/file/%s/%s", m.publicURL, m.bucket, key)
}
