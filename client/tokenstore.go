// Package client is the desktop-side SDK: credential persistence, a session
// manager with transparent refresh-and-retry, and typed API calls.
package client

import (
	"encoding/json"
	"os"
	"path/filepath"

	"equipdata/internal/errors"
	"equipdata/models"
)

// Credentials is the persisted session state. An absent access token means
// the session is unauthenticated; a refresh token without a valid access
// token is a legal intermediate state.
type Credentials struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	User         *models.PublicUser `json:"user"`
}

// TokenStore is the durable holder of Credentials.
type TokenStore interface {
	// Load returns the stored credentials, or (nil, nil) when none exist.
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	// Clear removes the persisted credentials. Idempotent.
	Clear() error
}

// FileTokenStore persists credentials as a JSON file. Writes go through a
// temp file and rename, so a crash mid-save never leaves a partial file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a store backed by the given file path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the credential file. A missing file means unauthenticated.
func (s *FileTokenStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read credential file %s", s.path)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, errors.Wrapf(err, "failed to parse credential file %s", s.path)
	}
	return &creds, nil
}

// Save writes the credentials atomically.
func (s *FileTokenStore) Save(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "failed to encode credentials")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "failed to create credential directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp credential file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write credentials")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to set credential file mode")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp credential file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to replace credential file %s", s.path)
	}
	return nil
}

// Clear deletes the credential file, not just its contents.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove credential file %s", s.path)
	}
	return nil
}
