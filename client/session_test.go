package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"equipdata/internal/errors"
	"equipdata/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) (*FileTokenStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	return NewFileTokenStore(path), path
}

// TestFileTokenStoreRoundTrip saves, loads and clears a credential file.
func TestFileTokenStoreRoundTrip(t *testing.T) {
	store, path := tempStore(t)

	// Missing file means unauthenticated, not an error.
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)

	user := &models.PublicUser{ID: uuid.New(), Username: "operator"}
	require.NoError(t, store.Save(&Credentials{AccessToken: "a", RefreshToken: "r", User: user}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	creds, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "a", creds.AccessToken)
	assert.Equal(t, "r", creds.RefreshToken)
	require.NotNil(t, creds.User)
	assert.Equal(t, "operator", creds.User.Username)

	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	assert.NoError(t, store.Clear())
}

// TestSessionLoadsPersistedCredentials restores state across restarts.
func TestSessionLoadsPersistedCredentials(t *testing.T) {
	store, _ := tempStore(t)
	require.NoError(t, store.Save(&Credentials{AccessToken: "a", RefreshToken: "r"}))

	session := NewSessionManager("http://localhost:0/api", store)
	assert.True(t, session.IsAuthenticated())
}

// TestSetTokensKeepsUserWhenOmitted only overwrites the identity when one is
// provided.
func TestSetTokensKeepsUserWhenOmitted(t *testing.T) {
	store, _ := tempStore(t)
	session := NewSessionManager("http://localhost:0/api", store)

	user := &models.PublicUser{ID: uuid.New(), Username: "operator"}
	require.NoError(t, session.SetTokens("a1", "r1", user))
	require.NoError(t, session.SetTokens("a2", "r2", nil))

	got := session.User()
	require.NotNil(t, got)
	assert.Equal(t, "operator", got.Username)

	// The persisted copy kept the identity too.
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a2", creds.AccessToken)
	require.NotNil(t, creds.User)
	assert.Equal(t, "operator", creds.User.Username)
}

// TestClearTokens wipes memory and disk.
func TestClearTokens(t *testing.T) {
	store, path := tempStore(t)
	session := NewSessionManager("http://localhost:0/api", store)
	require.NoError(t, session.SetTokens("a", "r", nil))

	require.NoError(t, session.ClearTokens())
	assert.False(t, session.IsAuthenticated())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

// TestAuthorizedRequestRefreshAndRetry expires the first access token and
// verifies exactly one refresh plus one retry.
func TestAuthorizedRequestRefreshAndRetry(t *testing.T) {
	var refreshCalls, dataCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/app1/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "good-refresh", payload["refresh"])

		json.NewEncoder(w).Encode(map[string]string{"access": "fresh-access"})
	})
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&dataCalls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Token is invalid or expired."})
			return
		}
		w.Write([]byte(`{"ok": true}`))
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	store, _ := tempStore(t)
	session := NewSessionManager(backend.URL+"/api", store)
	require.NoError(t, session.SetTokens("stale-access", "good-refresh", nil))

	resp, err := session.AuthorizedRequest(context.Background(), http.MethodGet, "/data", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&dataCalls))

	// The refreshed token was persisted.
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", creds.AccessToken)
	assert.Equal(t, "good-refresh", creds.RefreshToken)
}

// TestAuthorizedRequestSecond401Surfaces retries only once.
func TestAuthorizedRequestSecond401Surfaces(t *testing.T) {
	var dataCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/app1/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access": "still-rejected"})
	})
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&dataCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	store, _ := tempStore(t)
	session := NewSessionManager(backend.URL+"/api", store)
	require.NoError(t, session.SetTokens("a", "r", nil))

	resp, err := session.AuthorizedRequest(context.Background(), http.MethodGet, "/data", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dataCalls))
}

// TestAuthorizedRequestNoRefreshToken passes the 401 through without trying
// to refresh.
func TestAuthorizedRequestNoRefreshToken(t *testing.T) {
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/app1/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	store, _ := tempStore(t)
	session := NewSessionManager(backend.URL+"/api", store)

	resp, err := session.AuthorizedRequest(context.Background(), http.MethodGet, "/data", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshCalls))
}

// TestFailedRefreshKeepsCredentials leaves the stored pair in place so the
// caller can decide what to do.
func TestFailedRefreshKeepsCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/app1/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	store, _ := tempStore(t)
	session := NewSessionManager(backend.URL+"/api", store)
	require.NoError(t, session.SetTokens("a", "expired-refresh", nil))

	err := session.RefreshAccessToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))

	assert.True(t, session.IsAuthenticated())
	creds, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, "expired-refresh", creds.RefreshToken)
}

// TestTransportFailureIsNotAuthFailure distinguishes an unreachable backend
// from a rejected token.
func TestTransportFailureIsNotAuthFailure(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	backend.Close() // connection refused from here on

	store, _ := tempStore(t)
	session := NewSessionManager(backend.URL+"/api", store)
	require.NoError(t, session.SetTokens("a", "r", nil))

	_, err := session.AuthorizedRequest(context.Background(), http.MethodGet, "/data", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.False(t, errors.IsUnauthorized(err))

	err = session.RefreshAccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

// TestConcurrentRefreshCoalesces lets many callers share one in-flight
// refresh.
func TestConcurrentRefreshCoalesces(t *testing.T) {
	var refreshCalls int32
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/app1/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		<-release
		json.NewEncoder(w).Encode(map[string]string{"access": "fresh-access"})
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	store, _ := tempStore(t)
	session := NewSessionManager(backend.URL+"/api", store)
	require.NoError(t, session.SetTokens("a", "r", nil))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, session.RefreshAccessToken(context.Background()))
		}()
	}

	// Give every goroutine time to join the in-flight call, then let the
	// handler answer.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", creds.AccessToken)
}

// TestAuthorizedRequestForwardsHeadersAndBody checks the request plumbing.
func TestAuthorizedRequestForwardsHeadersAndBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer a", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"ping":1}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	store, _ := tempStore(t)
	session := NewSessionManager(backend.URL+"/api", store)
	require.NoError(t, session.SetTokens("a", "r", nil))

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	resp, err := session.AuthorizedRequest(context.Background(), http.MethodPost, "/echo", []byte(`{"ping":1}`), header)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
