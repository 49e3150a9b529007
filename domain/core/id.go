package core

import (
	"strconv"

	"github.com/google/uuid"
)

// UserID identifies a registered user.
type UserID = uuid.UUID

// NewUserID creates a new unique user identifier.
func NewUserID() UserID {
	return uuid.New()
}

// ParseUserID parses a string into a UserID.
func ParseUserID(s string) (UserID, error) {
	return uuid.Parse(s)
}

// UploadID identifies a persisted upload record. IDs are assigned by the
// storage layer as a monotonically increasing sequence, so a larger ID means
// a later insert.
type UploadID int64

// String returns the decimal representation.
func (id UploadID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
