package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	"luxsync/pkg/storage"
	"luxsync/pkg/store"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadFilesStoresObjectAndMetadata(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)

	result, err := a.UploadFiles(context.Background(), []UploadFile{
		{Name: "party.png", ContentType: "image/png", Data: pngBytes(t, 4, 3)},
	}, "2026-01-08 Test Event/alice")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.ProcessedFiles != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	photos, _ := mem.ListPhotos()
	if len(photos) != 1 {
		t.Fatalf("photo count = %d, want 1", len(photos))
	}
	p := photos[0]
	if !strings.HasPrefix(p.FileKey, "base/2026-01-08 Test Event/alice/") {
		t.Fatalf("file key %q not under upload folder", p.FileKey)
	}
	if !strings.HasSuffix(p.FileKey, ".png") {
		t.Fatalf("hashed name should keep the extension, got %q", p.FileKey)
	}
	if strings.HasSuffix(p.FileKey, "party.png") {
		t.Fatalf("original name must not be stored, got %q", p.FileKey)
	}
	if p.Width != 4 || p.Height != 3 {
		t.Fatalf("dimensions = %dx%d, want 4x3", p.Width, p.Height)
	}
	if p.UserTagID == "" {
		t.Fatal("expected a user tag from the folder path")
	}

	if _, err := objects.Stat(context.Background(), p.FileKey); err != nil {
		t.Fatalf("uploaded object missing: %v", err)
	}
	gallery, err := mem.GetGalleryByFolderName("2026-01-08 Test Event")
	if err != nil {
		t.Fatalf("gallery lookup: %v", err)
	}
	if gallery.CoverImageURL != p.PublicURL {
		t.Fatalf("cover = %q, want first photo url %q", gallery.CoverImageURL, p.PublicURL)
	}
	if _, err := mem.GetUserByHandle("alice"); err != nil {
		t.Fatalf("user lookup: %v", err)
	}
}

func TestUploadFilesValidatesInput(t *testing.T) {
	a, _ := newTestApp(t, store.NewMemoryStore())

	if _, err := a.UploadFiles(context.Background(), nil, "Gallery"); err == nil {
		t.Fatal("expected error for empty file set")
	}
	files := []UploadFile{{Name: "a.png", Data: pngBytes(t, 1, 1)}}
	if _, err := a.UploadFiles(context.Background(), files, ""); err == nil {
		t.Fatal("expected error for empty folder path")
	}
}

func TestUploadFilesCollectsPerFileErrors(t *testing.T) {
	mem := store.NewMemoryStore()
	flaky := &flakyStore{Store: mem, failPhotoCreate: true}
	a, objects := newTestApp(t, flaky)

	result, err := a.UploadFiles(context.Background(), []UploadFile{
		{Name: "a.png", ContentType: "image/png", Data: pngBytes(t, 2, 2)},
	}, "Gallery/alice")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.ProcessedFiles != 0 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	// The stored object must be rolled back when the metadata insert fails.
	listed, err := objects.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected compensating delete, found objects: %v", listed)
	}
}

func TestUploadFilesWritesRendition(t *testing.T) {
	mem := store.NewMemoryStore()
	objects := storage.NewMemoryStore("photos", "base", "https://cdn.example.com")
	a, err := New(Config{
		Store:            mem,
		Objects:          objects,
		AdminPassword:    "test-password",
		OptimizeMaxWidth: 8,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	result, err := a.UploadFiles(context.Background(), []UploadFile{
		{Name: "wide.png", ContentType: "image/png", Data: pngBytes(t, 20, 10)},
	}, "Gallery/alice")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.ProcessedFiles != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	photos, _ := mem.ListPhotos()
	if len(photos) != 1 {
		t.Fatalf("photo count = %d, want 1", len(photos))
	}
	p := photos[0]
	if p.OptimizedURL == "" {
		t.Fatal("expected an optimized rendition url")
	}
	if !strings.Contains(p.OptimizedURL, "/optimized/Gallery/alice/") {
		t.Fatalf("rendition url %q not under the rendition prefix", p.OptimizedURL)
	}
	if !strings.HasSuffix(p.OptimizedURL, ".jpg") {
		t.Fatalf("rendition should be jpeg, got %q", p.OptimizedURL)
	}

	listed, _ := objects.List(context.Background(), "", 0)
	if len(listed) != 2 {
		t.Fatalf("object count = %d, want original plus rendition", len(listed))
	}
}

func TestUploadFilesSkipsRenditionForSmallImages(t *testing.T) {
	mem := store.NewMemoryStore()
	a, objects := newTestApp(t, mem)

	if _, err := a.UploadFiles(context.Background(), []UploadFile{
		{Name: "small.png", ContentType: "image/png", Data: pngBytes(t, 2, 2)},
	}, "Gallery"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	photos, _ := mem.ListPhotos()
	if photos[0].OptimizedURL != "" {
		t.Fatalf("unexpected rendition url %q", photos[0].OptimizedURL)
	}
	listed, _ := objects.List(context.Background(), "", 0)
	if len(listed) != 1 {
		t.Fatalf("object count = %d, want 1", len(listed))
	}
}

func TestUploadFilesWithoutUserSegment(t *testing.T) {
	mem := store.NewMemoryStore()
	a, _ := newTestApp(t, mem)

	if _, err := a.UploadFiles(context.Background(), []UploadFile{
		{Name: "a.png", ContentType: "image/png", Data: pngBytes(t, 1, 1)},
	}, "Gallery"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	photos, _ := mem.ListPhotos()
	if photos[0].UserTagID != "" {
		t.Fatalf("expected untagged photo, got tag %q", photos[0].UserTagID)
	}
	if users, _ := mem.ListUsers(); len(users) != 0 {
		t.Fatalf("no users should be created, got %v", users)
	}
}

func TestUploadFilesFailsWhenGalleryInsertFails(t *testing.T) {
	mem := store.NewMemoryStore()
	flaky := &flakyStore{Store: mem, failGalleryCreate: map[string]bool{"Gallery": true}}
	a, _ := newTestApp(t, flaky)

	result, err := a.UploadFiles(context.Background(), []UploadFile{
		{Name: "a.png", ContentType: "image/png", Data: pngBytes(t, 1, 1)},
	}, "Gallery")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.ProcessedFiles != 0 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(result.Errors[0], "Gallery") {
		t.Fatalf("error %q does not name the gallery", result.Errors[0])
	}
}
