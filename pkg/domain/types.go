package domain

import "time"

// Gallery is a named photo collection corresponding to one event and one
// storage folder. FolderName is the join key between object storage and the
// database and doubles as the gallery's external slug.
type Gallery struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	EventDate     time.Time `json:"event_date"`
	FolderName    string    `json:"folder_name"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	AccessPin     string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// User is a person photos can be tagged to. Handle matches the user path
// segment of storage keys and is created lazily on first sync or upload.
type User struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Instagram   string    `json:"instagram,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Photo is a single stored image. FileKey is the full storage key;
// PublicURL is derived from it and must stay consistent on move/rename.
// Width and Height are zero when unknown: only upload-time processing
// probes the file bytes, listing-based sync never does.
type Photo struct {
	ID           string    `json:"id"`
	GalleryID    string    `json:"gallery_id"`
	UserTagID    string    `json:"user_tag_id,omitempty"`
	FileKey      string    `json:"file_key"`
	PublicURL    string    `json:"public_url"`
	OptimizedURL string    `json:"optimized_url,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ObjectInfo describes one object in a storage listing.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}
