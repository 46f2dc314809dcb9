// Package session carries the viewer's identity and tokens explicitly
// through every forum call.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
)

const (
	HeaderRefreshToken  = "X-Refresh-Token"
	HeaderUserID        = "X-User-Id"
	HeaderAccessTokenUp = "X-Access-Token"
)

// Session is one viewer's credentials. Tokens may be rotated by the forum
// client while a request is in flight.
type Session struct {
	UserID string

	// identity is fixed at construction and survives Rotate
	identity string

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	rotated      bool
}

// New creates a session
func New(userID, accessToken, refreshToken string) *Session {
	return &Session{
		UserID:       userID,
		identity:     identity(userID, accessToken, refreshToken),
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// identity combines the claimed user id with a digest of the credential the
// request arrived with, so two token holders never share a key.
func identity(userID, accessToken, refreshToken string) string {
	credential := accessToken
	if credential == "" {
		credential = refreshToken
	}
	if userID == "" && credential == "" {
		return ""
	}
	key := "u:" + userID
	if credential != "" {
		sum := sha256.Sum256([]byte(credential))
		key += "|t:" + hex.EncodeToString(sum[:16])
	}
	return key
}

// FromRequest builds a session from the Authorization, X-Refresh-Token and
// X-User-Id headers.
func FromRequest(r *http.Request) *Session {
	access := ""
	if auth := r.Header.Get("Authorization"); auth != "" {
		if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
			access = strings.TrimSpace(after)
		}
	}
	return New(
		strings.TrimSpace(r.Header.Get(HeaderUserID)),
		access,
		strings.TrimSpace(r.Header.Get(HeaderRefreshToken)),
	)
}

// Authenticated reports whether the session can make authorized calls
func (s *Session) Authenticated() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != "" || s.refreshToken != ""
}

// ViewKey returns the identity per-viewer state is cached under
func (s *Session) ViewKey() string {
	if s == nil || s.identity == "" {
		return "anonymous"
	}
	return s.identity
}

// Viewer returns the user id reactions are attributed to
func (s *Session) Viewer() string {
	if s == nil || s.UserID == "" {
		return "anonymous"
	}
	return s.UserID
}

// AccessToken returns the current access token
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token
func (s *Session) RefreshToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Rotate stores a refreshed token pair. An empty refresh token keeps the
// previous one.
func (s *Session) Rotate(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	if refreshToken != "" {
		s.refreshToken = refreshToken
	}
	s.rotated = true
}

// Clear drops both tokens after a failed refresh
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.rotated = true
}

// Rotated reports whether tokens changed since the session was built
func (s *Session) Rotated() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rotated
}

// WriteHeaders echoes rotated tokens back to the caller
func (s *Session) WriteHeaders(h http.Header) {
	if !s.Rotated() {
		return
	}
	h.Set(HeaderAccessTokenUp, s.AccessToken())
	h.Set(HeaderRefreshToken, s.RefreshToken())
}
