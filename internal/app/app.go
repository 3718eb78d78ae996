package app

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"luxsync/pkg/domain"
	"luxsync/pkg/storage"
	"luxsync/pkg/store"
)

// ErrInvalidPassword is returned by Login on a wrong admin password.
var ErrInvalidPassword = errors.New("invalid password")

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL      string
	Store            store.Store
	Objects          storage.ObjectStore
	StorageEndpoint  string
	StorageRegion    string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageBasePath  string
	StorageUseSSL    bool
	PublicBaseURL    string
	AdminPassword    string
	SessionSecret    string
	SessionTTL       time.Duration
	ListLimit        int
	OptimizeMaxWidth int
}

// App is the core application service wiring the object store, the
// relational store, and the reconciliation engine.
type App struct {
	store            store.Store
	objects          storage.ObjectStore
	sessions         *sessionIssuer
	adminPassword    []byte
	listLimit        int
	optimizeMaxWidth int
	now              func() time.Time
}

// New constructs the application. Store and Objects may be injected; when
// absent they are built from the storage and database settings.
func New(cfg Config) (*App, error) {
	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("admin password required")
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = storage.DefaultListLimit
	}

	objects := cfg.Objects
	if objects == nil {
		var err error
		objects, err = storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			BasePath:  cfg.StorageBasePath,
			PublicURL: cfg.PublicBaseURL,
			UseSSL:    cfg.StorageUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	secret := cfg.SessionSecret
	if secret == "" {
		// Fall back to the admin password so single-secret deployments work.
		secret = cfg.AdminPassword
	}

	return &App{
		store:            dataStore,
		objects:          objects,
		sessions:         newSessionIssuer(secret, cfg.SessionTTL),
		adminPassword:    []byte(cfg.AdminPassword),
		listLimit:        cfg.ListLimit,
		optimizeMaxWidth: cfg.OptimizeMaxWidth,
		now:              func() time.Time { return time.Now().UTC() },
	}, nil
}

// Login checks the shared admin secret in constant time and issues a
// session token on success.
func (a *App) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), a.adminPassword) != 1 {
		return "", ErrInvalidPassword
	}
	token, err := a.sessions.NewSession()
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	return token, nil
}

// VerifySession validates an admin session token.
func (a *App) VerifySession(token string) error {
	return a.sessions.Verify(token)
}

// ListGalleries returns all galleries.
func (a *App) ListGalleries() ([]domain.Gallery, error) {
	return a.store.ListGalleries()
}

// ListGalleriesByUser returns galleries containing photos tagged to the user.
func (a *App) ListGalleriesByUser(userID string) ([]domain.Gallery, error) {
	return a.store.ListGalleriesByTaggedUser(userID)
}

// ListPhotosByGallery resolves the gallery by ID first and by folder name
// second, so both forms work as the URL parameter.
func (a *App) ListPhotosByGallery(galleryRef string) ([]domain.Photo, error) {
	gallery, err := a.store.GetGallery(galleryRef)
	if errors.Is(err, store.ErrNotFound) {
		gallery, err = a.store.GetGalleryByFolderName(galleryRef)
	}
	if err != nil {
		return nil, err
	}
	return a.store.ListPhotosByGallery(gallery.ID)
}

// UpdateGalleryTitle renames a gallery's display title.
func (a *App) UpdateGalleryTitle(galleryID, newTitle string) (domain.Gallery, error) {
	if galleryID == "" || newTitle == "" {
		return domain.Gallery{}, fmt.Errorf("galleryId and newTitle required")
	}
	return a.store.UpdateGalleryTitle(galleryID, newTitle)
}
