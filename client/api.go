package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"equipdata/domain/upload"
	"equipdata/internal/errors"
	"equipdata/models"
)

// API exposes the backend operations as typed calls on top of a
// SessionManager.
type API struct {
	session *SessionManager
}

// NewAPI creates an API bound to the given session.
func NewAPI(session *SessionManager) *API {
	return &API{session: session}
}

// Session returns the underlying session manager.
func (a *API) Session() *SessionManager {
	return a.session
}

// Login authenticates and stores the resulting token pair and identity.
func (a *API) Login(ctx context.Context, username, password string) (*models.PublicUser, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode login request")
	}

	resp, err := a.session.AuthorizedRequest(ctx, http.MethodPost, "/app1/token/", body, jsonHeader())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var payload tokenPairResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode login response")
	}

	user := payload.User
	if err := a.session.SetTokens(payload.Access, payload.Refresh, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Signup registers an account and stores its first token pair.
func (a *API) Signup(ctx context.Context, username, password, email string) (*models.PublicUser, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password, "email": email})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode signup request")
	}

	resp, err := a.session.AuthorizedRequest(ctx, http.MethodPost, "/signup/", body, jsonHeader())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}

	var payload tokenPairResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode signup response")
	}

	user := payload.User
	if err := a.session.SetTokens(payload.Access, payload.Refresh, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Upload reads a local file and submits it through the desktop endpoint.
func (a *API) Upload(ctx context.Context, path string) (*upload.Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return a.UploadData(ctx, filepath.Base(path), content)
}

// UploadData submits file content under the given name.
func (a *API) UploadData(ctx context.Context, name string, content []byte) (*upload.Record, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build upload form")
	}
	if _, err := part.Write(content); err != nil {
		return nil, errors.Wrap(err, "failed to write upload form")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize upload form")
	}

	header := http.Header{}
	header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.session.AuthorizedRequest(ctx, http.MethodPost, "/desktop/upload", buf.Bytes(), header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}

	var record upload.Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, errors.Wrap(err, "failed to decode upload response")
	}
	return &record, nil
}

// History fetches one page of the caller's upload history.
func (a *API) History(ctx context.Context, limit, offset int) (*upload.Page, error) {
	path := fmt.Sprintf("/get-history/?limit=%d&offset=%d", limit, offset)
	resp, err := a.session.AuthorizedRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var page upload.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(err, "failed to decode history response")
	}
	return &page, nil
}

// Logout notifies the backend best-effort and always clears the local
// credentials.
func (a *API) Logout(ctx context.Context) error {
	resp, err := a.session.AuthorizedRequest(ctx, http.MethodPost, "/auth/logout/", nil, nil)
	if err == nil {
		resp.Body.Close()
	}
	return a.session.ClearTokens()
}

type tokenPairResponse struct {
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
	User    models.PublicUser `json:"user"`
}

func jsonHeader() http.Header {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return header
}

// apiError converts a non-success response into an AppError, preserving the
// backend's error message when it sent one.
func apiError(resp *http.Response) error {
	message := fmt.Sprintf("request failed (status %d)", resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			message = payload.Error
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.Unauthorized(message)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return errors.InvalidInput(message)
	default:
		return errors.InternalError(message)
	}
}
