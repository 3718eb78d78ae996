package store

import (
	"sort"
	"sync"

	"luxsync/pkg/domain"
)

// MemoryStore keeps metadata in-process. It enforces the same uniqueness
// rules as the Postgres store and is used in tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	galleries map[string]domain.Gallery // key: gallery ID
	folders   map[string]string         // folder_name -> gallery ID
	users     map[string]domain.User    // key: user ID
	handles   map[string]string         // handle -> user ID
	photos    map[string]domain.Photo   // key: photo ID
	fileKeys  map[string]string         // file_key -> photo ID
	order     []string                  // photo IDs in insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		galleries: make(map[string]domain.Gallery),
		folders:   make(map[string]string),
		users:     make(map[string]domain.User),
		handles:   make(map[string]string),
		photos:    make(map[string]domain.Photo),
		fileKeys:  make(map[string]string),
	}
}

// CreateGallery inserts a gallery, rejecting folder_name duplicates.
func (m *MemoryStore) CreateGallery(g domain.Gallery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.folders[g.FolderName]; exists {
		return ErrAlreadyExists
	}
	m.galleries[g.ID] = g
	m.folders[g.FolderName] = g.ID
	return nil
}

// GetGallery returns a gallery by ID.
func (m *MemoryStore) GetGallery(id string) (domain.Gallery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.galleries[id]
	if !ok {
		return domain.Gallery{}, ErrNotFound
	}
	return g, nil
}

// GetGalleryByFolderName looks up a gallery by folder name.
func (m *MemoryStore) GetGalleryByFolderName(folderName string) (domain.Gallery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.folders[folderName]
	if !ok {
		return domain.Gallery{}, ErrNotFound
	}
	return m.galleries[id], nil
}

// ListGalleries returns all galleries, newest event first.
func (m *MemoryStore) ListGalleries() ([]domain.Gallery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Gallery, 0, len(m.galleries))
	for _, g := range m.galleries {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.After(out[j].EventDate)
		}
		return out[i].FolderName < out[j].FolderName
	})
	return out, nil
}

// ListGalleriesByTaggedUser returns galleries with a photo tagged to the user.
func (m *MemoryStore) ListGalleriesByTaggedUser(userID string) ([]domain.Gallery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]domain.Gallery, 0)
	for _, p := range m.photos {
		if p.UserTagID != userID || seen[p.GalleryID] {
			continue
		}
		if g, ok := m.galleries[p.GalleryID]; ok {
			seen[p.GalleryID] = true
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.After(out[j].EventDate)
		}
		return out[i].FolderName < out[j].FolderName
	})
	return out, nil
}

// UpdateGalleryTitle sets a new title and returns the updated gallery.
func (m *MemoryStore) UpdateGalleryTitle(id, title string) (domain.Gallery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.galleries[id]
	if !ok {
		return domain.Gallery{}, ErrNotFound
	}
	g.Title = title
	m.galleries[id] = g
	return g, nil
}

// UpdateGalleryCover sets the cover image URL.
func (m *MemoryStore) UpdateGalleryCover(id, coverImageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.galleries[id]
	if !ok {
		return ErrNotFound
	}
	g.CoverImageURL = coverImageURL
	m.galleries[id] = g
	return nil
}

// CreateUser inserts a user, rejecting handle duplicates.
func (m *MemoryStore) CreateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handles[u.Handle]; exists {
		return ErrAlreadyExists
	}
	m.users[u.ID] = u
	m.handles[u.Handle] = u.ID
	return nil
}

// GetUserByHandle looks up a user by handle.
func (m *MemoryStore) GetUserByHandle(handle string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.handles[handle]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return m.users[id], nil
}

// ListUsers returns all users ordered by handle.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

// CreatePhoto inserts a photo, rejecting file_key duplicates.
func (m *MemoryStore) CreatePhoto(p domain.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.fileKeys[p.FileKey]; exists {
		return ErrAlreadyExists
	}
	m.photos[p.ID] = p
	m.fileKeys[p.FileKey] = p.ID
	m.order = append(m.order, p.ID)
	return nil
}

// HasPhotoWithFileKey reports whether a photo row exists for the key.
func (m *MemoryStore) HasPhotoWithFileKey(fileKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.fileKeys[fileKey]
	return ok, nil
}

// ListPhotos returns photos in insertion order.
func (m *MemoryStore) ListPhotos() ([]domain.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Photo, 0, len(m.order))
	for _, id := range m.order {
		if p, ok := m.photos[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPhotosByGallery returns photos for a gallery in insertion order.
func (m *MemoryStore) ListPhotosByGallery(galleryID string) ([]domain.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Photo, 0)
	for _, id := range m.order {
		if p, ok := m.photos[id]; ok && p.GalleryID == galleryID {
			out = append(out, p)
		}
	}
	return out, nil
}

// MovePhotos repoints photo rows from one storage key to another.
func (m *MemoryStore) MovePhotos(sourceKey, targetKey, publicURL string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.fileKeys[sourceKey]
	if !ok {
		return 0, nil
	}
	p := m.photos[id]
	p.FileKey = targetKey
	p.PublicURL = publicURL
	m.photos[id] = p
	delete(m.fileKeys, sourceKey)
	m.fileKeys[targetKey] = id
	return 1, nil
}

// DeletePhotosByFileKey removes photo rows backing a storage key.
func (m *MemoryStore) DeletePhotosByFileKey(fileKey string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.fileKeys[fileKey]
	if !ok {
		return 0, nil
	}
	delete(m.photos, id)
	delete(m.fileKeys, fileKey)
	return 1, nil
}
