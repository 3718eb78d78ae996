package store

import "time"

// GORM models used for persistence.
type GalleryModel struct {
	ID            string    `gorm:"primaryKey"`
	Title         string    `gorm:"not null"`
	EventDate     time.Time `gorm:"not null"`
	FolderName    string    `gorm:"uniqueIndex;not null"`
	CoverImageURL string
	AccessPin     string
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

type UserModel struct {
	ID          string `gorm:"primaryKey"`
	Handle      string `gorm:"uniqueIndex;not null"`
	DisplayName string `gorm:"not null"`
	Instagram   string
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
}

type PhotoModel struct {
	ID           string `gorm:"primaryKey"`
	GalleryID    string `gorm:"not null;index"`
	UserTagID    string `gorm:"index"`
	FileKey      string `gorm:"uniqueIndex;not null"`
	PublicURL    string `gorm:"not null"`
	OptimizedURL string
	Width        int
	Height       int
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time
}

func (GalleryModel) TableName() string { return "galleries" }
func (UserModel) TableName() string    { return "users" }
func (PhotoModel) TableName() string   { return "photos" }
