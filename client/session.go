package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"equipdata/internal"
	"equipdata/internal/errors"
	"equipdata/models"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds every client-to-backend call. A timeout surfaces as
// a transport failure, never as an authorization failure.
const DefaultTimeout = 10 * time.Second

// SessionManager owns the credential lifecycle and performs authorized
// requests with at most one refresh-and-retry per call. Concurrent refreshes
// are coalesced into a single in-flight call; the resulting token state is
// latest-wins and always persisted whole.
type SessionManager struct {
	mu    sync.Mutex
	creds Credentials

	store   TokenStore
	baseURL string
	client  *http.Client
	refresh singleflight.Group
	log     *internal.Logger
}

// Option customizes a SessionManager.
type Option func(*SessionManager)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *SessionManager) {
		s.client = client
	}
}

// NewSessionManager creates a session manager for the given API base URL
// (e.g. "http://localhost:8080/api") and loads any persisted credentials.
func NewSessionManager(baseURL string, store TokenStore, opts ...Option) *SessionManager {
	s := &SessionManager{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		log:     internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}

	creds, err := store.Load()
	if err != nil {
		s.log.Warn("ignoring unreadable credentials: %v", err)
	} else if creds != nil {
		s.creds = *creds
	}
	return s
}

// IsAuthenticated reports whether an access token is present. Validity is
// determined empirically by the next server round-trip, not locally.
func (s *SessionManager) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.AccessToken != ""
}

// User returns the stored identity, or nil when unauthenticated.
func (s *SessionManager) User() *models.PublicUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds.User == nil {
		return nil
	}
	user := *s.creds.User
	return &user
}

// SetTokens overwrites the credential pair and persists immediately. The
// user field is only overwritten when provided, so refresh-only updates
// keep the stored identity.
func (s *SessionManager) SetTokens(access, refresh string, user *models.PublicUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.AccessToken = access
	s.creds.RefreshToken = refresh
	if user != nil {
		s.creds.User = user
	}

	snapshot := s.creds
	return s.store.Save(&snapshot)
}

// ClearTokens wipes the in-memory credentials and deletes the persisted
// copy. Idempotent.
func (s *SessionManager) ClearTokens() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = Credentials{}
	return s.store.Clear()
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token and persists it. Concurrent callers share one in-flight exchange.
// On failure the stored credentials are left untouched; only an explicit
// logout clears them.
func (s *SessionManager) RefreshAccessToken(ctx context.Context) error {
	_, err, _ := s.refresh.Do("refresh", func() (interface{}, error) {
		return nil, s.doRefresh(ctx)
	})
	return err
}

func (s *SessionManager) doRefresh(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.creds.RefreshToken
	s.mu.Unlock()

	if refreshToken == "" {
		return errors.Unauthorized("no refresh token available")
	}

	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return errors.Wrap(err, "failed to encode refresh request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/app1/token/refresh/", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build refresh request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Transport("token refresh request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Unauthorized(fmt.Sprintf("token refresh rejected (status %d)", resp.StatusCode))
	}

	var payload struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return errors.Wrap(err, "failed to decode refresh response")
	}
	if payload.Access == "" {
		return errors.Unauthorized("refresh response carried no access token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.AccessToken = payload.Access
	snapshot := s.creds
	return s.store.Save(&snapshot)
}

// AuthorizedRequest performs one request with the current access token
// attached. On a 401 with a refresh token present it refreshes and retries
// exactly once; a second 401, or a failed refresh, surfaces the 401 to the
// caller. Transport failures propagate as transport errors and are never
// treated as authorization failures. The caller owns the response body.
func (s *SessionManager) AuthorizedRequest(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	resp, err := s.do(ctx, method, path, body, header)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	s.mu.Lock()
	hasRefresh := s.creds.RefreshToken != ""
	s.mu.Unlock()
	if !hasRefresh {
		return resp, nil
	}

	if err := s.RefreshAccessToken(ctx); err != nil {
		s.log.Warn("token refresh failed: %v", err)
		return resp, nil
	}

	resp.Body.Close()
	return s.do(ctx, method, path, body, header)
}

func (s *SessionManager) do(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s %s request", method, path)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	s.mu.Lock()
	accessToken := s.creds.AccessToken
	s.mu.Unlock()
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Transport(fmt.Sprintf("%s %s failed", method, path), err)
	}
	return resp, nil
}
