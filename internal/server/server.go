package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"luxsync/internal/app"
	"luxsync/internal/ratelimit"
	"luxsync/internal/util"
	"luxsync/pkg/storage"
	"luxsync/pkg/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	LoginLimiter   *ratelimit.FixedWindowLimiter
	MaxUploadBytes int64
}

// Server exposes the gallery HTTP API.
type Server struct {
	app            *app.App
	loginLimiter   *ratelimit.FixedWindowLimiter
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		loginLimiter:   cfg.LoginLimiter,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("gallery", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// public reads
	s.mux.HandleFunc("/api/galleries", s.handleGalleries)
	s.mux.HandleFunc("/api/galleries/user/", s.handleGalleriesByUser)
	s.mux.HandleFunc("/api/photos/gallery/", s.handlePhotosByGallery)

	// admin
	s.mux.HandleFunc("/api/admin/login", s.handleLogin)
	s.mux.Handle("/api/admin/upload", s.withAdmin(s.handleUpload))
	s.mux.Handle("/api/admin/manage", s.withAdmin(s.handleManage))
	s.mux.Handle("/api/admin/sync-metadata", s.withAdmin(s.handleSyncMetadata))
	s.mux.Handle("/api/admin/sync-verify", s.withAdmin(s.handleSyncVerify))
	s.mux.Handle("/api/admin/files", s.withAdmin(s.handleListFiles))
	s.mux.Handle("/api/admin/download/", s.withAdmin(s.handleDownload))
	s.mux.Handle("/api/admin/update-title", s.withAdmin(s.handleUpdateTitle))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withAdmin requires a valid admin session token on every admin route.
func (s *Server) withAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := s.app.VerifySession(token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	})
}

func (s *Server) handleGalleries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	galleries, err := s.app.ListGalleries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve galleries: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"galleries": galleries})
}

func (s *Server) handleGalleriesByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/galleries/user/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	galleries, err := s.app.ListGalleriesByUser(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve galleries: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"galleries": galleries})
}

func (s *Server) handlePhotosByGallery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	galleryRef := strings.TrimPrefix(r.URL.Path, "/api/photos/gallery/")
	if galleryRef == "" {
		writeError(w, http.StatusBadRequest, "galleryId is required")
		return
	}
	photos, err := s.app.ListPhotosByGallery(galleryRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "gallery not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to retrieve photos: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.loginLimiter != nil && !s.loginLimiter.Allow(util.ClientIP(r, nil)) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	token, err := s.app.Login(req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidPassword) {
			writeError(w, http.StatusUnauthorized, "invalid password")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	folderPath := r.FormValue("folderPath")
	headers := r.MultipartForm.File["files"]

	files := make([]app.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		files = append(files, app.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	result, err := s.app.UploadFiles(r.Context(), files, folderPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        uploadMessage(result),
		"processedFiles": result.ProcessedFiles,
		"errors":         emptyToNil(result.Errors),
	})
}

func (s *Server) handleManage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req app.ManageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	message, err := s.app.Manage(r.Context(), req)
	if err != nil {
		if req.Validate() != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

func (s *Server) handleSyncMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.runReconcile(w, r)
}

func (s *Server) handleSyncVerify(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		analysis, err := s.app.Verify(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "analysis": analysis})
	case http.MethodPost:
		s.runReconcile(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) runReconcile(w http.ResponseWriter, r *http.Request) {
	result, err := s.app.Reconcile(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	message := "Sync completed"
	if len(result.Errors) > 0 {
		message = "Sync completed with errors"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"message":            message,
		"galleriesProcessed": result.GalleriesProcessed,
		"photosProcessed":    result.PhotosProcessed,
		"errors":             emptyToNil(syncErrorStrings(result.Errors)),
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	files, err := s.app.ListFiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "files": files})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/api/admin/download/")
	if key == "" {
		writeError(w, http.StatusBadRequest, "file path is required")
		return
	}
	data, contentType, err := s.app.DownloadFile(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type updateTitleRequest struct {
	GalleryID string `json:"galleryId"`
	NewTitle  string `json:"newTitle"`
}

func (s *Server) handleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req updateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.GalleryID == "" || req.NewTitle == "" {
		writeError(w, http.StatusBadRequest, "galleryId and newTitle are required")
		return
	}
	gallery, err := s.app.UpdateGalleryTitle(req.GalleryID, req.NewTitle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "gallery not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "gallery": gallery})
}

func uploadMessage(result app.UploadResult) string {
	if len(result.Errors) == 0 {
		return "Upload completed"
	}
	return "Upload completed with errors"
}

func syncErrorStrings(errs []app.SyncError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func emptyToNil(errs []string) any {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Success:   false,
		Message:   msg,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
