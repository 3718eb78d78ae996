package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"luxsync/internal/imaging"
	"luxsync/internal/util"
	"luxsync/pkg/domain"
	"luxsync/pkg/storage"
	"luxsync/pkg/store"
)

// renditionFolder is the gallery-level prefix holding optimized renditions.
// Reconciliation skips it so renditions never become photo rows.
const renditionFolder = "optimized"

// UploadFile is one file from a multipart upload request.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult aggregates one upload batch.
type UploadResult struct {
	ProcessedFiles int      `json:"processedFiles"`
	Errors         []string `json:"errors,omitempty"`
}

// UploadFiles stores each file under <base>/<folderPath>/ with a hashed
// name, mirrors gallery/user/photo metadata into the database, and probes
// image dimensions from the file bytes. Per-file failures are collected and
// never abort the batch.
func (a *App) UploadFiles(ctx context.Context, files []UploadFile, folderPath string) (UploadResult, error) {
	log := util.LoggerFromContext(ctx)
	var result UploadResult
	if len(files) == 0 {
		return result, fmt.Errorf("no files provided")
	}
	folderPath = strings.Trim(folderPath, "/")
	if folderPath == "" {
		return result, fmt.Errorf("folderPath required")
	}

	segments := strings.Split(folderPath, "/")
	galleryName := segments[0]
	userHandle := ""
	if len(segments) > 1 {
		userHandle = segments[1]
	}

	for _, file := range files {
		if err := a.uploadOne(ctx, file, folderPath, galleryName, userHandle); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Name, err))
			log.Warn("upload_file_failed", "file", file.Name, "error", err.Error())
			continue
		}
		result.ProcessedFiles++
	}
	log.Info("upload_finished", "processed", result.ProcessedFiles, "errors", len(result.Errors))
	return result, nil
}

func (a *App) uploadOne(ctx context.Context, file UploadFile, folderPath, galleryName, userHandle string) error {
	ext := strings.ToLower(path.Ext(file.Name))
	hashedName := util.NewID() + ext

	// Dimensions come from the file bytes; non-images probe to zero.
	width, height := 0, 0
	if dims, err := imaging.Probe(file.Data); err == nil {
		width, height = dims.Width, dims.Height
	}

	uploaded, err := a.objects.Upload(ctx, bytes.NewReader(file.Data), int64(len(file.Data)), hashedName, folderPath, file.ContentType)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	gallery, err := a.findOrCreateGallery(galleryName)
	if err != nil {
		return fmt.Errorf("gallery %s: %w", galleryName, err)
	}

	var userTagID string
	if userHandle != "" {
		if user, userErr := a.findOrCreateUser(userHandle); userErr == nil {
			userTagID = user.ID
		}
	}

	optimizedURL := a.uploadRendition(ctx, file.Data, hashedName, folderPath, width)

	photo := domain.Photo{
		ID:           util.NewID(),
		GalleryID:    gallery.ID,
		UserTagID:    userTagID,
		FileKey:      uploaded.Key,
		PublicURL:    uploaded.PublicURL,
		OptimizedURL: optimizedURL,
		Width:        width,
		Height:       height,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.CreatePhoto(photo); err != nil {
		// Keep storage and database consistent on metadata failure.
		_ = a.objects.Delete(ctx, uploaded.Key)
		return fmt.Errorf("save photo: %w", err)
	}

	if gallery.CoverImageURL == "" && isImageFile(hashedName) {
		if err := a.store.UpdateGalleryCover(gallery.ID, uploaded.PublicURL); err != nil && !errors.Is(err, store.ErrNotFound) {
			util.LoggerFromContext(ctx).Warn("cover_update_failed", "gallery", gallery.ID, "error", err.Error())
		}
	}
	return nil
}

// uploadRendition writes a bounded-width JPEG rendition when the image is
// wider than the configured limit. Failures degrade to no rendition.
func (a *App) uploadRendition(ctx context.Context, data []byte, hashedName, folderPath string, width int) string {
	if a.optimizeMaxWidth <= 0 || width <= a.optimizeMaxWidth {
		return ""
	}
	resized, err := imaging.Optimize(data, a.optimizeMaxWidth)
	if err != nil {
		return ""
	}
	name := strings.TrimSuffix(hashedName, path.Ext(hashedName)) + ".jpg"
	res, err := a.objects.Upload(ctx, bytes.NewReader(resized), int64(len(resized)),
		name, storage.JoinKey(renditionFolder, folderPath), "image/jpeg")
	if err != nil {
		return ""
	}
	return res.PublicURL
}
