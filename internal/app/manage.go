package app

import (
	"context"
	"fmt"
	"strings"

	"luxsync/internal/util"
)

// ManageAction is one of the supported admin file operations.
type ManageAction string

const (
	ActionMove   ManageAction = "move"
	ActionRename ManageAction = "rename"
	ActionDelete ManageAction = "delete"
)

// ManageRequest describes an admin file operation on full storage keys.
type ManageRequest struct {
	Action     ManageAction `json:"action"`
	SourcePath string       `json:"sourcePath"`
	TargetPath string       `json:"targetPath,omitempty"`
}

// Validate checks request shape before any storage call.
func (r ManageRequest) Validate() error {
	if r.Action == "" || r.SourcePath == "" {
		return fmt.Errorf("action and sourcePath are required")
	}
	switch r.Action {
	case ActionMove, ActionRename:
		if r.TargetPath == "" {
			return fmt.Errorf("targetPath is required for move/rename actions")
		}
	case ActionDelete:
	default:
		return fmt.Errorf("invalid action %q: use move, rename, or delete", r.Action)
	}
	return nil
}

// Manage executes a move, rename, or delete against the object store and
// keeps photo rows consistent with the new key. Move and rename are the
// same operation: server-side copy, database repoint, source delete.
func (a *App) Manage(ctx context.Context, req ManageRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	log := util.LoggerFromContext(ctx)

	if req.Action == ActionDelete {
		if err := a.objects.Delete(ctx, req.SourcePath); err != nil {
			return "", fmt.Errorf("delete object: %w", err)
		}
		rows, err := a.store.DeletePhotosByFileKey(req.SourcePath)
		if err != nil {
			return "", fmt.Errorf("file deleted but database record removal failed: %w", err)
		}
		log.Info("file_deleted", "key", req.SourcePath, "rows", rows)
		return fmt.Sprintf("File successfully deleted: %s", req.SourcePath), nil
	}

	if err := a.objects.Copy(ctx, req.SourcePath, req.TargetPath); err != nil {
		return "", fmt.Errorf("copy object: %w", err)
	}
	rows, err := a.store.MovePhotos(req.SourcePath, req.TargetPath, a.objects.PublicURL(req.TargetPath))
	if err != nil {
		return "", fmt.Errorf("file moved but database update failed: %w", err)
	}
	if err := a.objects.Delete(ctx, req.SourcePath); err != nil {
		return "", fmt.Errorf("delete source object: %w", err)
	}
	verb := "moved"
	if req.Action == ActionRename {
		verb = "renamed"
	}
	log.Info("file_moved", "source", req.SourcePath, "target", req.TargetPath, "rows", rows)
	return fmt.Sprintf("File successfully %s from %s to %s", verb, req.SourcePath, req.TargetPath), nil
}

// ManagedFile is one storage object joined with its photo metadata.
type ManagedFile struct {
	FileName     string `json:"fileName"`
	Key          string `json:"key"`
	PublicURL    string `json:"publicUrl,omitempty"`
	Size         int64  `json:"size"`
	LastModified string `json:"uploadTimestamp"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// ListFiles returns every object under the base prefix, joined with photo
// rows by file key. Objects without a photo row still appear, with no URL.
func (a *App) ListFiles(ctx context.Context) ([]ManagedFile, error) {
	objects, err := a.objects.List(ctx, "", a.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	photos, err := a.store.ListPhotos()
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	byKey := make(map[string]int, len(photos))
	for i, p := range photos {
		byKey[p.FileKey] = i
	}

	files := make([]ManagedFile, 0, len(objects))
	for _, obj := range objects {
		parts := strings.Split(obj.Key, "/")
		file := ManagedFile{
			FileName:     parts[len(parts)-1],
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if i, ok := byKey[obj.Key]; ok {
			file.PublicURL = photos[i].PublicURL
			file.Width = photos[i].Width
			file.Height = photos[i].Height
		}
		files = append(files, file)
	}
	return files, nil
}

// DownloadFile streams an object's bytes with its stored content type.
// A missing key surfaces storage.ErrObjectNotFound for 404 mapping.
func (a *App) DownloadFile(ctx context.Context, key string) ([]byte, string, error) {
	info, err := a.objects.Stat(ctx, key)
	if err != nil {
		return nil, "", err
	}
	data, err := a.objects.Download(ctx, key)
	if err != nil {
		return nil, "", err
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
