package util

import "github.com/google/uuid"

// NewID returns a random UUID string. Used for entity primary keys and
// hashed upload file names.
func NewID() string {
	return uuid.NewString()
}
