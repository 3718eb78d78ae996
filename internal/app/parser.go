package app

import (
	"path"
	"regexp"
	"strings"
	"time"
)

// folderNamePattern matches "YYYY-MM-DD Title" gallery folder names. Date
// separators "-" and "_" are both accepted on input and normalized to "-".
var folderNamePattern = regexp.MustCompile(`^(\d{4})[-_](\d{2})[-_](\d{2})[\s_-]+(.+)$`)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
}

// objectPath is the decomposition of a storage key of the form
// <base>/<gallery>/<user>/<file>. UserHandle is empty for keys with fewer
// than three segments after the base; such keys are still valid photos when
// a gallery segment exists.
type objectPath struct {
	GalleryName string
	UserHandle  string
	FileName    string
}

// parseObjectKey splits a storage key on "/". Segment 0 is the base path,
// segment 1 the gallery folder, segment 2 the user handle, and the
// remaining segments joined form the file name.
func parseObjectKey(key string) (objectPath, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 2 || parts[1] == "" {
		return objectPath{}, false
	}
	p := objectPath{GalleryName: parts[1]}
	switch {
	case len(parts) == 2:
		// Gallery-level object, no user folder.
	case len(parts) == 3:
		p.FileName = parts[2]
	default:
		p.UserHandle = parts[2]
		p.FileName = strings.Join(parts[3:], "/")
	}
	return p, true
}

// galleryMeta is the title and event date derived from a folder name.
type galleryMeta struct {
	Title     string
	EventDate time.Time
	// Derived reports whether the date came from the folder name. When
	// false the date defaulted to now and is lossy.
	Derived bool
}

// parseGalleryFolderName decomposes "YYYY-MM-DD Title" folder names. On a
// match the title has "_" and "-" replaced with spaces and is trimmed; on
// no match the title is the raw folder name and the event date defaults to
// now (the sync time).
func parseGalleryFolderName(folderName string, now time.Time) galleryMeta {
	m := folderNamePattern.FindStringSubmatch(folderName)
	if m == nil {
		return galleryMeta{Title: folderName, EventDate: now}
	}
	date, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return galleryMeta{Title: folderName, EventDate: now}
	}
	title := strings.NewReplacer("_", " ", "-", " ").Replace(m[4])
	return galleryMeta{
		Title:     strings.TrimSpace(title),
		EventDate: date,
		Derived:   true,
	}
}

// isImageFile classifies files by lowercase extension. Non-image objects
// are ignored by the photo sync path but still appear in admin listings.
func isImageFile(fileName string) bool {
	return imageExtensions[strings.ToLower(path.Ext(fileName))]
}
