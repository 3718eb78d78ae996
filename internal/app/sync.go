package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"luxsync/internal/util"
	"luxsync/pkg/domain"
	"luxsync/pkg/storage"
	"luxsync/pkg/store"
)

// SyncErrorKind classifies reconciliation failures so callers and tests can
// assert on the kind instead of message text.
type SyncErrorKind string

const (
	SyncErrListObjects   SyncErrorKind = "list_objects"
	SyncErrGalleryLookup SyncErrorKind = "gallery_lookup"
	SyncErrGalleryCreate SyncErrorKind = "gallery_create"
	SyncErrPhotoLookup   SyncErrorKind = "photo_lookup"
	SyncErrPhotoCreate   SyncErrorKind = "photo_create"
)

// SyncError is one per-item reconciliation failure.
type SyncError struct {
	Kind    SyncErrorKind `json:"kind"`
	Gallery string        `json:"gallery,omitempty"`
	Key     string        `json:"key,omitempty"`
	Err     error         `json:"-"`
}

func (e SyncError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Gallery != "" {
		fmt.Fprintf(&b, " gallery=%q", e.Gallery)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%q", e.Key)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e SyncError) Unwrap() error { return e.Err }

// MarshalText renders the error for JSON envelopes.
func (e SyncError) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}

// SyncResult aggregates one reconciliation run.
type SyncResult struct {
	GalleriesProcessed int         `json:"galleriesProcessed"`
	PhotosProcessed    int         `json:"photosProcessed"`
	Errors             []SyncError `json:"errors,omitempty"`
}

// Reconcile derives database rows from the current contents of object
// storage. It is additive-only (never deletes stale rows), idempotent for
// photos already present by exact file key, and tolerates per-item
// failures: one gallery or photo failing never aborts the rest of the run.
// Processing is sequential; concurrent runs are safe because uniqueness is
// enforced at the store and duplicate inserts degrade to re-fetches.
func (a *App) Reconcile(ctx context.Context) (SyncResult, error) {
	log := util.LoggerFromContext(ctx)
	var result SyncResult

	objects, err := a.objects.List(ctx, "", a.listLimit)
	if err != nil {
		return result, SyncError{Kind: SyncErrListObjects, Err: err}
	}
	objects = dropPlaceholders(objects)
	log.Info("sync_started", "objects", len(objects))

	for _, galleryName := range distinctGalleryNames(objects) {
		gallery, err := a.findOrCreateGallery(galleryName)
		if err != nil {
			var syncErr SyncError
			if !errors.As(err, &syncErr) {
				syncErr = SyncError{Kind: SyncErrGalleryCreate, Gallery: galleryName, Err: err}
			}
			result.Errors = append(result.Errors, syncErr)
			log.Warn("sync_gallery_failed", "gallery", galleryName, "error", err.Error())
			continue
		}
		result.GalleriesProcessed++

		prefix := storage.JoinKey(a.objects.BasePath(), galleryName) + "/"
		coverKey := ""
		for _, obj := range objects {
			if !strings.HasPrefix(obj.Key, prefix) {
				continue
			}
			parsed, ok := parseObjectKey(obj.Key)
			if !ok || !isImageFile(parsed.FileName) {
				continue
			}
			if coverKey == "" {
				coverKey = obj.Key
			}
			inserted, err := a.reconcilePhoto(gallery, parsed, obj.Key)
			if err != nil {
				var syncErr SyncError
				if !errors.As(err, &syncErr) {
					syncErr = SyncError{Kind: SyncErrPhotoCreate, Gallery: galleryName, Key: obj.Key, Err: err}
				}
				result.Errors = append(result.Errors, syncErr)
				log.Warn("sync_photo_failed", "key", obj.Key, "error", err.Error())
				continue
			}
			if inserted {
				result.PhotosProcessed++
			}
		}
		if gallery.CoverImageURL == "" && coverKey != "" {
			if err := a.store.UpdateGalleryCover(gallery.ID, a.objects.PublicURL(coverKey)); err != nil {
				log.Warn("cover_update_failed", "gallery", gallery.ID, "error", err.Error())
			}
		}
	}

	log.Info("sync_finished",
		"galleries", result.GalleriesProcessed,
		"photos", result.PhotosProcessed,
		"errors", len(result.Errors),
	)
	return result, nil
}

// findOrCreateGallery looks a gallery up by folder name, inserting it with
// derived title and event date when absent. A store not-found is treated as
// "does not exist"; a uniqueness conflict on insert means a concurrent
// writer won the race, so the row is re-fetched.
func (a *App) findOrCreateGallery(folderName string) (domain.Gallery, error) {
	gallery, err := a.store.GetGalleryByFolderName(folderName)
	if err == nil {
		return gallery, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Gallery{}, SyncError{Kind: SyncErrGalleryLookup, Gallery: folderName, Err: err}
	}

	meta := parseGalleryFolderName(folderName, a.now())
	gallery = domain.Gallery{
		ID:         util.NewID(),
		Title:      meta.Title,
		EventDate:  meta.EventDate,
		FolderName: folderName,
		CreatedAt:  time.Now().UTC(),
	}
	err = a.store.CreateGallery(gallery)
	if errors.Is(err, store.ErrAlreadyExists) {
		return a.store.GetGalleryByFolderName(folderName)
	}
	if err != nil {
		return domain.Gallery{}, SyncError{Kind: SyncErrGalleryCreate, Gallery: folderName, Err: err}
	}
	return gallery, nil
}

// findOrCreateUser resolves a user by handle, creating it lazily. Failure
// is returned so callers can degrade to an untagged photo.
func (a *App) findOrCreateUser(handle string) (domain.User, error) {
	user, err := a.store.GetUserByHandle(handle)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}
	user = domain.User{
		ID:          util.NewID(),
		Handle:      handle,
		DisplayName: handle,
		CreatedAt:   time.Now().UTC(),
	}
	err = a.store.CreateUser(user)
	if errors.Is(err, store.ErrAlreadyExists) {
		return a.store.GetUserByHandle(handle)
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// reconcilePhoto inserts a photo row for the object unless one already
// exists for the exact file key. It reports whether a row was inserted.
func (a *App) reconcilePhoto(gallery domain.Gallery, parsed objectPath, key string) (bool, error) {
	exists, err := a.store.HasPhotoWithFileKey(key)
	if err != nil {
		return false, SyncError{Kind: SyncErrPhotoLookup, Gallery: gallery.FolderName, Key: key, Err: err}
	}
	if exists {
		return false, nil
	}

	// A user create failing must not fail the photo; the tag stays empty.
	var userTagID string
	if parsed.UserHandle != "" {
		if user, err := a.findOrCreateUser(parsed.UserHandle); err == nil {
			userTagID = user.ID
		}
	}

	photo := domain.Photo{
		ID:        util.NewID(),
		GalleryID: gallery.ID,
		UserTagID: userTagID,
		FileKey:   key,
		PublicURL: a.objects.PublicURL(key),
		CreatedAt: time.Now().UTC(),
	}
	err = a.store.CreatePhoto(photo)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Concurrent run inserted it first; same outcome as the skip above.
		return false, nil
	}
	if err != nil {
		return false, SyncError{Kind: SyncErrPhotoCreate, Gallery: gallery.FolderName, Key: key, Err: err}
	}
	return true, nil
}

func distinctGalleryNames(objects []domain.ObjectInfo) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, obj := range objects {
		parsed, ok := parseObjectKey(obj.Key)
		if !ok || parsed.GalleryName == renditionFolder {
			continue
		}
		if !seen[parsed.GalleryName] {
			seen[parsed.GalleryName] = true
			names = append(names, parsed.GalleryName)
		}
	}
	return names
}

// dropPlaceholders filters zero-length folder markers out of a listing.
func dropPlaceholders(objects []domain.ObjectInfo) []domain.ObjectInfo {
	out := objects[:0]
	for _, obj := range objects {
		if obj.Size == 0 || strings.HasSuffix(obj.Key, ".bzEmpty") {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// VerifyResult is the read-only sync analysis.
type VerifyResult struct {
	Database struct {
		Galleries int `json:"galleries"`
		Photos    int `json:"photos"`
		Users     int `json:"users"`
	} `json:"database"`
	Storage struct {
		Objects        int      `json:"objects"`
		GalleryFolders []string `json:"galleryFolders"`
	} `json:"storage"`
	Discrepancies []string `json:"discrepancies"`
}

// Verify compares database contents against the storage listing without
// writing anything.
func (a *App) Verify(ctx context.Context) (VerifyResult, error) {
	var result VerifyResult

	galleries, err := a.store.ListGalleries()
	if err != nil {
		return result, fmt.Errorf("list galleries: %w", err)
	}
	photos, err := a.store.ListPhotos()
	if err != nil {
		return result, fmt.Errorf("list photos: %w", err)
	}
	users, err := a.store.ListUsers()
	if err != nil {
		return result, fmt.Errorf("list users: %w", err)
	}
	objects, err := a.objects.List(ctx, "", a.listLimit)
	if err != nil {
		return result, fmt.Errorf("list objects: %w", err)
	}
	objects = dropPlaceholders(objects)

	result.Database.Galleries = len(galleries)
	result.Database.Photos = len(photos)
	result.Database.Users = len(users)
	result.Storage.Objects = len(objects)
	result.Storage.GalleryFolders = distinctGalleryNames(objects)
	result.Discrepancies = make([]string, 0)

	folderNames := make(map[string]bool, len(galleries))
	galleryIDs := make(map[string]bool, len(galleries))
	for _, g := range galleries {
		folderNames[g.FolderName] = true
		galleryIDs[g.ID] = true
	}

	missing := make([]string, 0)
	for _, folder := range result.Storage.GalleryFolders {
		if !folderNames[folder] {
			missing = append(missing, folder)
		}
	}
	if len(missing) > 0 {
		result.Discrepancies = append(result.Discrepancies,
			fmt.Sprintf("galleries missing from database: %s", strings.Join(missing, ", ")))
	}
	if len(galleries) == 0 {
		result.Discrepancies = append(result.Discrepancies, "no galleries found in database")
	}
	if len(photos) == 0 {
		result.Discrepancies = append(result.Discrepancies, "no photos found in database")
	}
	if len(users) == 0 {
		result.Discrepancies = append(result.Discrepancies, "no users found in database")
	}

	orphaned := 0
	for _, p := range photos {
		if !galleryIDs[p.GalleryID] {
			orphaned++
		}
	}
	if orphaned > 0 {
		result.Discrepancies = append(result.Discrepancies,
			fmt.Sprintf("found %d photos with non-existent galleries", orphaned))
	}
	return result, nil
}
