package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"luxsync/pkg/domain"
	"luxsync/pkg/storage"
	"luxsync/pkg/store"
)

func newTestApp(t *testing.T, dataStore store.Store) (*App, *storage.MemoryStore) {
	t.Helper()
	objects := storage.NewMemoryStore("photos", "base", "https://cdn.example.com")
	a, err := New(Config{
		Store:         dataStore,
		Objects:       objects,
		AdminPassword: "test-password",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, objects
}

func seedObject(objects *storage.MemoryStore, key string) {
	objects.PutObject(key, []byte("image-bytes"), "image/jpeg", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
}

func TestReconcileCreatesGalleriesUsersAndPhotos(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)
	seedObject(objects, "base/2026-01-08 Test Event/alice/a.jpg")
	seedObject(objects, "base/2026-01-08 Test Event/bob/b.png")

	result, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.GalleriesProcessed != 1 || result.PhotosProcessed != 2 {
		t.Fatalf("processed galleries=%d photos=%d, want 1 and 2",
			result.GalleriesProcessed, result.PhotosProcessed)
	}

	gallery, err := mem.GetGalleryByFolderName("2026-01-08 Test Event")
	if err != nil {
		t.Fatalf("gallery lookup: %v", err)
	}
	if gallery.Title != "Test Event" {
		t.Fatalf("gallery title = %q, want %q", gallery.Title, "Test Event")
	}
	wantDate := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	if !gallery.EventDate.Equal(wantDate) {
		t.Fatalf("event date = %v, want %v", gallery.EventDate, wantDate)
	}
	if gallery.CoverImageURL == "" {
		t.Fatal("expected cover image url to be set")
	}

	users, err := mem.ListUsers()
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0].Handle != "alice" || users[1].Handle != "bob" {
		t.Fatalf("unexpected users: %+v", users)
	}

	photos, err := mem.ListPhotosByGallery(gallery.ID)
	if err != nil {
		t.Fatalf("list photos: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("photo count = %d, want 2", len(photos))
	}
	for _, p := range photos {
		if p.PublicURL != "https://cdn.example.com/file/photos/"+p.FileKey {
			t.Fatalf("public url %q inconsistent with key %q", p.PublicURL, p.FileKey)
		}
		if p.Width != 0 || p.Height != 0 {
			t.Fatalf("listing-based sync must not set dimensions, got %dx%d", p.Width, p.Height)
		}
	}
}

func TestReconcileIsIdempotentForPhotos(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)
	seedObject(objects, "base/2026-01-08 Test Event/alice/a.jpg")

	if _, err := a.Reconcile(context.Background()); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	second, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if second.PhotosProcessed != 0 {
		t.Fatalf("second run inserted %d photos, want 0", second.PhotosProcessed)
	}
	photos, _ := mem.ListPhotos()
	if len(photos) != 1 {
		t.Fatalf("photo count = %d, want 1", len(photos))
	}
}

func TestReconcileIsAdditiveOnly(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)
	seedObject(objects, "base/2026-01-08 Test Event/alice/a.jpg")

	if _, err := a.Reconcile(context.Background()); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if err := objects.Delete(context.Background(), "base/2026-01-08 Test Event/alice/a.jpg"); err != nil {
		t.Fatalf("delete object: %v", err)
	}
	if _, err := a.Reconcile(context.Background()); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	photos, _ := mem.ListPhotos()
	if len(photos) != 1 {
		t.Fatalf("photo rows after object removal = %d, want 1 (additive-only)", len(photos))
	}
}

func TestReconcileDefaultsEventDateForUndatedFolders(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)
	syncTime := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	a.now = func() time.Time { return syncTime }
	seedObject(objects, "base/NoDateFolder/x.jpg")

	result, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.GalleriesProcessed != 1 || result.PhotosProcessed != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	gallery, err := mem.GetGalleryByFolderName("NoDateFolder")
	if err != nil {
		t.Fatalf("gallery lookup: %v", err)
	}
	if gallery.Title != "NoDateFolder" {
		t.Fatalf("title = %q, want raw folder name", gallery.Title)
	}
	if !gallery.EventDate.Equal(syncTime) {
		t.Fatalf("event date = %v, want sync time %v", gallery.EventDate, syncTime)
	}
}

func TestReconcileSkipsNonImagesAndPlaceholders(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)
	seedObject(objects, "base/Gallery/alice/a.jpg")
	seedObject(objects, "base/Gallery/readme.txt")
	objects.PutObject("base/Gallery/.bzEmpty", nil, "", time.Now().UTC())
	objects.PutObject("base/EmptyMarker/marker", nil, "", time.Now().UTC())

	result, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.GalleriesProcessed != 1 {
		t.Fatalf("galleries processed = %d, want 1 (placeholder-only folder skipped)", result.GalleriesProcessed)
	}
	if result.PhotosProcessed != 1 {
		t.Fatalf("photos processed = %d, want 1 (non-image excluded)", result.PhotosProcessed)
	}
}

func TestReconcileIgnoresRenditionFolder(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)
	seedObject(objects, "base/Gallery/alice/a.jpg")
	seedObject(objects, "base/optimized/Gallery/alice/a.jpg")

	result, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.GalleriesProcessed != 1 {
		t.Fatalf("galleries processed = %d, want 1", result.GalleriesProcessed)
	}
	if _, err := mem.GetGalleryByFolderName("optimized"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("rendition folder must not become a gallery, got err=%v", err)
	}
}

// flakyStore wraps a Store and fails selected operations.
type flakyStore struct {
	store.Store
	failGalleryCreate map[string]bool
	failUserCreate    bool
	failPhotoCreate   bool
}

func (f *flakyStore) CreateGallery(g domain.Gallery) error {
	if f.failGalleryCreate[g.FolderName] {
		return errors.New("insert rejected")
	}
	return f.Store.CreateGallery(g)
}

func (f *flakyStore) CreateUser(u domain.User) error {
	if f.failUserCreate {
		return errors.New("insert rejected")
	}
	return f.Store.CreateUser(u)
}

func (f *flakyStore) CreatePhoto(p domain.Photo) error {
	if f.failPhotoCreate {
		return errors.New("insert rejected")
	}
	return f.Store.CreatePhoto(p)
}

func TestReconcileIsolatesGalleryFailures(t *testing.T) {
	mem := store.NewMemoryStore()
	flaky := &flakyStore{Store: mem, failGalleryCreate: map[string]bool{"BadGallery": true}}
	a, objects := newTestApp(t, flaky)
	seedObject(objects, "base/BadGallery/alice/a.jpg")
	seedObject(objects, "base/GoodGallery/bob/b.jpg")

	result, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.GalleriesProcessed != 1 {
		t.Fatalf("galleries processed = %d, want 1", result.GalleriesProcessed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("error count = %d, want exactly 1", len(result.Errors))
	}
	if result.Errors[0].Kind != SyncErrGalleryCreate || result.Errors[0].Gallery != "BadGallery" {
		t.Fatalf("unexpected error: %+v", result.Errors[0])
	}
	if _, err := mem.GetGalleryByFolderName("GoodGallery"); err != nil {
		t.Fatalf("good gallery should exist: %v", err)
	}
}

func TestReconcileDegradesToUntaggedOnUserFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	flaky := &flakyStore{Store: mem, failUserCreate: true}
	a, objects := newTestApp(t, flaky)
	seedObject(objects, "base/Gallery/alice/a.jpg")

	result, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.PhotosProcessed != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	photos, _ := mem.ListPhotos()
	if len(photos) != 1 {
		t.Fatalf("photo count = %d, want 1", len(photos))
	}
	if photos[0].UserTagID != "" {
		t.Fatalf("photo should be untagged when user create fails, got tag %q", photos[0].UserTagID)
	}
}

func TestReconcileRaceLoserRefetchesGallery(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)
	seedObject(objects, "base/2026-01-08 Test Event/alice/a.jpg")

	// A concurrent writer already inserted the gallery row.
	existing := domain.Gallery{
		ID:         "pre-existing",
		Title:      "Test Event",
		EventDate:  time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		FolderName: "2026-01-08 Test Event",
		CreatedAt:  time.Now().UTC(),
	}
	if err := mem.CreateGallery(existing); err != nil {
		t.Fatalf("seed gallery: %v", err)
	}

	result, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	photos, _ := mem.ListPhotos()
	if len(photos) != 1 || photos[0].GalleryID != "pre-existing" {
		t.Fatalf("photo should attach to the existing gallery, got %+v", photos)
	}
}

func TestVerifyReportsDiscrepancies(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)
	seedObject(objects, "base/2026-01-08 Test Event/alice/a.jpg")

	result, err := a.Verify(context.Background())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Storage.Objects != 1 {
		t.Fatalf("storage objects = %d, want 1", result.Storage.Objects)
	}
	if len(result.Storage.GalleryFolders) != 1 || result.Storage.GalleryFolders[0] != "2026-01-08 Test Event" {
		t.Fatalf("unexpected gallery folders: %v", result.Storage.GalleryFolders)
	}
	if len(result.Discrepancies) == 0 {
		t.Fatal("expected discrepancies for empty database")
	}

	if _, err := a.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	after, err := a.Verify(context.Background())
	if err != nil {
		t.Fatalf("verify after sync: %v", err)
	}
	if len(after.Discrepancies) != 0 {
		t.Fatalf("unexpected discrepancies after sync: %v", after.Discrepancies)
	}
	if after.Database.Galleries != 1 || after.Database.Photos != 1 || after.Database.Users != 1 {
		t.Fatalf("unexpected database counts: %+v", after.Database)
	}
}
