package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"luxsync/pkg/domain"
)

const migrateLockID int64 = 58215821

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&GalleryModel{}, &UserModel{}, &PhotoModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	default:
		return err
	}
}

// CreateGallery inserts a gallery; a folder_name collision yields ErrAlreadyExists.
func (s *GormStore) CreateGallery(g domain.Gallery) error {
	model := galleryToModel(g)
	return translateErr(s.db.Create(&model).Error)
}

// GetGallery returns a gallery by ID.
func (s *GormStore) GetGallery(id string) (domain.Gallery, error) {
	var model GalleryModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		return domain.Gallery{}, translateErr(err)
	}
	return galleryFromModel(model), nil
}

// GetGalleryByFolderName looks up a gallery by its storage folder name.
func (s *GormStore) GetGalleryByFolderName(folderName string) (domain.Gallery, error) {
	var model GalleryModel
	if err := s.db.First(&model, "folder_name = ?", folderName).Error; err != nil {
		return domain.Gallery{}, translateErr(err)
	}
	return galleryFromModel(model), nil
}

// ListGalleries returns all galleries, newest event first.
func (s *GormStore) ListGalleries() ([]domain.Gallery, error) {
	var models []GalleryModel
	if err := s.db.Order("event_date DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Gallery, 0, len(models))
	for _, m := range models {
		out = append(out, galleryFromModel(m))
	}
	return out, nil
}

// ListGalleriesByTaggedUser returns galleries containing at least one photo
// tagged to the user.
func (s *GormStore) ListGalleriesByTaggedUser(userID string) ([]domain.Gallery, error) {
	var models []GalleryModel
	err := s.db.
		Where("id IN (?)", s.db.Model(&PhotoModel{}).Select("gallery_id").Where("user_tag_id = ?", userID)).
		Order("event_date DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Gallery, 0, len(models))
	for _, m := range models {
		out = append(out, galleryFromModel(m))
	}
	return out, nil
}

// UpdateGalleryTitle sets a new display title and returns the updated row.
func (s *GormStore) UpdateGalleryTitle(id, title string) (domain.Gallery, error) {
	res := s.db.Model(&GalleryModel{}).Where("id = ?", id).Updates(map[string]any{
		"title":      title,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return domain.Gallery{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Gallery{}, ErrNotFound
	}
	return s.GetGallery(id)
}

// UpdateGalleryCover sets the cover image URL.
func (s *GormStore) UpdateGalleryCover(id, coverImageURL string) error {
	res := s.db.Model(&GalleryModel{}).Where("id = ?", id).Updates(map[string]any{
		"cover_image_url": coverImageURL,
		"updated_at":      time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser inserts a user; a handle collision yields ErrAlreadyExists.
func (s *GormStore) CreateUser(u domain.User) error {
	model := userToModel(u)
	return translateErr(s.db.Create(&model).Error)
}

// GetUserByHandle looks up a user by handle.
func (s *GormStore) GetUserByHandle(handle string) (domain.User, error) {
	var model UserModel
	if err := s.db.First(&model, "handle = ?", handle).Error; err != nil {
		return domain.User{}, translateErr(err)
	}
	return userFromModel(model), nil
}

// ListUsers returns all users ordered by handle.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("handle ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(models))
	for _, m := range models {
		out = append(out, userFromModel(m))
	}
	return out, nil
}

// CreatePhoto inserts a photo; a file_key collision yields ErrAlreadyExists.
func (s *GormStore) CreatePhoto(p domain.Photo) error {
	model := photoToModel(p)
	return translateErr(s.db.Create(&model).Error)
}

// HasPhotoWithFileKey reports whether a photo row exists for the storage key.
func (s *GormStore) HasPhotoWithFileKey(fileKey string) (bool, error) {
	var count int64
	if err := s.db.Model(&PhotoModel{}).Where("file_key = ?", fileKey).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListPhotos returns all photos, newest first.
func (s *GormStore) ListPhotos() ([]domain.Photo, error) {
	var models []PhotoModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Photo, 0, len(models))
	for _, m := range models {
		out = append(out, photoFromModel(m))
	}
	return out, nil
}

// ListPhotosByGallery returns photos for a gallery in upload order.
func (s *GormStore) ListPhotosByGallery(galleryID string) ([]domain.Photo, error) {
	var models []PhotoModel
	if err := s.db.Where("gallery_id = ?", galleryID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Photo, 0, len(models))
	for _, m := range models {
		out = append(out, photoFromModel(m))
	}
	return out, nil
}

// MovePhotos repoints photo rows from one storage key to another.
func (s *GormStore) MovePhotos(sourceKey, targetKey, publicURL string) (int64, error) {
	res := s.db.Model(&PhotoModel{}).Where("file_key = ?", sourceKey).Updates(map[string]any{
		"file_key":   targetKey,
		"public_url": publicURL,
		"updated_at": time.Now().UTC(),
	})
	return res.RowsAffected, translateErr(res.Error)
}

// DeletePhotosByFileKey removes photo rows backing a storage key.
func (s *GormStore) DeletePhotosByFileKey(fileKey string) (int64, error) {
	res := s.db.Delete(&PhotoModel{}, "file_key = ?", fileKey)
	return res.RowsAffected, res.Error
}

func galleryToModel(g domain.Gallery) GalleryModel {
	return GalleryModel{
		ID:            g.ID,
		Title:         g.Title,
		EventDate:     g.EventDate,
		FolderName:    g.FolderName,
		CoverImageURL: g.CoverImageURL,
		AccessPin:     g.AccessPin,
		CreatedAt:     g.CreatedAt,
	}
}

func galleryFromModel(m GalleryModel) domain.Gallery {
	return domain.Gallery{
		ID:            m.ID,
		Title:         m.Title,
		EventDate:     m.EventDate,
		FolderName:    m.FolderName,
		CoverImageURL: m.CoverImageURL,
		AccessPin:     m.AccessPin,
		CreatedAt:     m.CreatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		Instagram:   u.Instagram,
		CreatedAt:   u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:          m.ID,
		Handle:      m.Handle,
		DisplayName: m.DisplayName,
		Instagram:   m.Instagram,
		CreatedAt:   m.CreatedAt,
	}
}

func photoToModel(p domain.Photo) PhotoModel {
	return PhotoModel{
		ID:           p.ID,
		GalleryID:    p.GalleryID,
		UserTagID:    p.UserTagID,
		FileKey:      p.FileKey,
		PublicURL:    p.PublicURL,
		OptimizedURL: p.OptimizedURL,
		Width:        p.Width,
		Height:       p.Height,
		CreatedAt:    p.CreatedAt,
	}
}

func photoFromModel(m PhotoModel) domain.Photo {
	return domain.Photo{
		ID:           m.ID,
		GalleryID:    m.GalleryID,
		UserTagID:    m.UserTagID,
		FileKey:      m.FileKey,
		PublicURL:    m.PublicURL,
		OptimizedURL: m.OptimizedURL,
		Width:        m.Width,
		Height:       m.Height,
		CreatedAt:    m.CreatedAt,
	}
}
