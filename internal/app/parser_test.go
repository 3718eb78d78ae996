package app

import (
	"testing"
	"time"
)

func TestParseObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		ok      bool
		gallery string
		user    string
		file    string
	}{
		{
			name:    "full path with user",
			key:     "B2 LuxSync/2026-01-08 Test Event/alice/a.jpg",
			ok:      true,
			gallery: "2026-01-08 Test Event",
			user:    "alice",
			file:    "a.jpg",
		},
		{
			name:    "no user segment",
			key:     "B2 LuxSync/NoDateFolder/x.jpg",
			ok:      true,
			gallery: "NoDateFolder",
			user:    "",
			file:    "x.jpg",
		},
		{
			name:    "nested file name",
			key:     "base/Gallery/bob/raw/edit/b.png",
			ok:      true,
			gallery: "Gallery",
			user:    "bob",
			file:    "raw/edit/b.png",
		},
		{
			name:    "gallery folder only",
			key:     "base/Gallery",
			ok:      true,
			gallery: "Gallery",
			user:    "",
			file:    "",
		},
		{name: "base only", key: "base", ok: false},
		{name: "empty gallery segment", key: "base/", ok: false},
		{name: "empty key", key: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseObjectKey(tt.key)
			if ok != tt.ok {
				t.Fatalf("parseObjectKey(%q) ok = %v, want %v", tt.key, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.GalleryName != tt.gallery || got.UserHandle != tt.user || got.FileName != tt.file {
				t.Fatalf("parseObjectKey(%q) = %+v, want gallery=%q user=%q file=%q",
					tt.key, got, tt.gallery, tt.user, tt.file)
			}
		})
	}
}

func TestParseGalleryFolderName(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		folder  string
		title   string
		date    time.Time
		derived bool
	}{
		{
			name:    "dated with spaces",
			folder:  "2026-01-08 Test Event",
			title:   "Test Event",
			date:    time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
			derived: true,
		},
		{
			name:    "underscore date separators",
			folder:  "2026_01_08 Miku Expo",
			title:   "Miku Expo",
			date:    time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
			derived: true,
		},
		{
			name:    "underscored title",
			folder:  "2025-12-31_New_Years_Eve",
			title:   "New Years Eve",
			date:    time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			derived: true,
		},
		{
			name:    "no date falls back to sync time",
			folder:  "NoDateFolder",
			title:   "NoDateFolder",
			date:    now,
			derived: false,
		},
		{
			name:    "date without title falls back",
			folder:  "2026-01-08",
			title:   "2026-01-08",
			date:    now,
			derived: false,
		},
		{
			name:    "invalid calendar date falls back",
			folder:  "2026-13-45 Broken",
			title:   "2026-13-45 Broken",
			date:    now,
			derived: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseGalleryFolderName(tt.folder, now)
			if got.Title != tt.title {
				t.Fatalf("title = %q, want %q", got.Title, tt.title)
			}
			if !got.EventDate.Equal(tt.date) {
				t.Fatalf("event date = %v, want %v", got.EventDate, tt.date)
			}
			if got.Derived != tt.derived {
				t.Fatalf("derived = %v, want %v", got.Derived, tt.derived)
			}
		})
	}
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		file string
		want bool
	}{
		{"a.jpg", true},
		{"a.JPG", true},
		{"b.jpeg", true},
		{"c.png", true},
		{"d.gif", true},
		{"e.webp", true},
		{"f.bmp", true},
		{"g.tiff", true},
		{"readme.txt", false},
		{"archive.zip", false},
		{"noextension", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isImageFile(tt.file); got != tt.want {
			t.Fatalf("isImageFile(%q) = %v, want %v", tt.file, got, tt.want)
		}
	}
}
