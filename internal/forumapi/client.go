// Package forumapi talks to the forum REST API on behalf of a viewer
// session. Expired access tokens are refreshed once per request.
package forumapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/session"
	"github.com/rs/zerolog"
)

// APIError is a non-2xx answer from the forum API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("forum api: %d %s", e.Status, e.Message)
}

// Is lets callers match API errors against repository sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case repository.ErrNotFound:
		return e.Status == http.StatusNotFound
	case repository.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// ErrRefreshFailed is returned when the session could not be renewed
var ErrRefreshFailed = errors.New("token refresh failed")

// Client is a forum API client
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "forumapi").Logger(),
	}
}

// Repositories exposes the client through the repository contracts
func (c *Client) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Post:     &postAPI{c: c},
		Comment:  &commentAPI{c: c},
		Reaction: &reactionAPI{c: c},
		Material: &materialAPI{c: c},
	}
}

func (c *Client) do(ctx context.Context, sess *session.Session, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	status, data, err := c.send(ctx, sess.AccessToken(), method, path, payload)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && sess.RefreshToken() != "" {
		if err := c.refresh(ctx, sess); err != nil {
			c.log.Warn().Err(err).Str("viewer", sess.Viewer()).Msg("Token refresh failed")
			sess.Clear()
			return fmt.Errorf("%w: %w", repository.ErrUnauthenticated, err)
		}
		if status, data, err = c.send(ctx, sess.AccessToken(), method, path, payload); err != nil {
			return err
		}
	}

	return decode(status, data, out)
}

func (c *Client) send(ctx context.Context, token, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Forum API call")

	return resp.StatusCode, data, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) refresh(ctx context.Context, sess *session.Session) error {
	payload, _ := json.Marshal(refreshRequest{RefreshToken: sess.RefreshToken()})

	status, data, err := c.send(ctx, "", http.MethodPost, "/auth/refresh", payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	var tokens refreshResponse
	if err := decode(status, data, &tokens); err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if tokens.AccessToken == "" {
		return fmt.Errorf("%w: no access token in response", ErrRefreshFailed)
	}

	sess.Rotate(tokens.AccessToken, tokens.RefreshToken)
	return nil
}

func decode(status int, data []byte, out any) error {
	if status < 200 || status >= 300 {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &body)
		msg := body.Error
		if msg == "" {
			msg = body.Message
		}
		if msg == "" {
			msg = "Request failed"
		}
		return &APIError{Status: status, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
