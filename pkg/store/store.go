package store

import (
	"errors"

	"luxsync/pkg/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when an insert hits a uniqueness constraint.
// Callers doing find-or-create treat it as "already exists, re-fetch".
var ErrAlreadyExists = errors.New("record already exists")

// Store defines persistence operations for galleries, users, and photos.
type Store interface {
	// galleries
	CreateGallery(domain.Gallery) error
	GetGallery(id string) (domain.Gallery, error)
	GetGalleryByFolderName(folderName string) (domain.Gallery, error)
	ListGalleries() ([]domain.Gallery, error)
	ListGalleriesByTaggedUser(userID string) ([]domain.Gallery, error)
	UpdateGalleryTitle(id, title string) (domain.Gallery, error)
	UpdateGalleryCover(id, coverImageURL string) error

	// users
	CreateUser(domain.User) error
	GetUserByHandle(handle string) (domain.User, error)
	ListUsers() ([]domain.User, error)

	// photos
	CreatePhoto(domain.Photo) error
	HasPhotoWithFileKey(fileKey string) (bool, error)
	ListPhotos() ([]domain.Photo, error)
	ListPhotosByGallery(galleryID string) ([]domain.Photo, error)
	MovePhotos(sourceKey, targetKey, publicURL string) (int64, error)
	DeletePhotosByFileKey(fileKey string) (int64, error)
}
