package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forum-thread-engine/internal/api"
	"github.com/forum-thread-engine/internal/config"
	"github.com/forum-thread-engine/internal/mocks"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/reaction"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/service"
	"github.com/forum-thread-engine/internal/session"
	"github.com/forum-thread-engine/internal/thread"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func setupTestRouter() (*gin.Engine, *mocks.MockThreadService) {
	gin.SetMode(gin.TestMode)

	mockThread := mocks.NewMockThreadService()
	services := &service.Services{Thread: mockThread}

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080", WriteTimeout: 5 * time.Second},
		Forum:  config.ForumConfig{MaxDepth: 2},
	}

	router := api.NewRouter(services, cfg, prometheus.NewRegistry(), zerolog.Nop())
	return router, mockThread
}

func sampleView() *service.ThreadView {
	comments := []models.Comment{
		{ID: "c1", PostID: "p1", Content: "root"},
		{ID: "c2", PostID: "p1", ParentCommentID: "c1", Content: "reply"},
		{ID: "c3", PostID: "p1", ParentCommentID: "c2", Content: "deepest"},
	}
	return &service.ThreadView{
		Post:     models.Post{ID: "p1", Title: "Title", CommentCount: 3},
		Comments: thread.BuildTree(comments, 2),
		MaxDepth: 2,
		Version:  7,
	}
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer access")
	req.Header.Set(session.HeaderRefreshToken, "refresh")
	req.Header.Set(session.HeaderUserID, "u1")
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthEndpoint(t *testing.T) {
	router, mockThread := setupTestRouter()
	mockThread.Views = 3

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["views"].(float64) != 3 {
		t.Errorf("Expected 3 views, got %v", response["views"])
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("Expected a request id header")
	}
}

type stubHealth struct{ err error }

func (s stubHealth) HealthCheck(ctx context.Context) error { return s.err }

func TestHealthEndpoint_Database(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantState  string
	}{
		{"database reachable", nil, http.StatusOK, "healthy"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			services := &service.Services{Thread: mocks.NewMockThreadService(), Health: stubHealth{err: tt.err}}
			router := api.NewRouter(services, &config.Config{}, prometheus.NewRegistry(), zerolog.Nop())

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var response map[string]interface{}
			json.Unmarshal(w.Body.Bytes(), &response)
			if response["status"] != tt.wantState {
				t.Errorf("Expected status %q, got %v", tt.wantState, response["status"])
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupTestRouter()

	// one request so the histogram has a series
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "forum_http_request_duration_seconds") {
		t.Errorf("Expected request histogram in metrics output")
	}
}

func TestGetThread(t *testing.T) {
	router, mockThread := setupTestRouter()

	var gotRefresh bool
	var gotSession *session.Session
	mockThread.ThreadFunc = func(ctx context.Context, sess *session.Session, postID string, refresh bool) (*service.ThreadView, error) {
		gotRefresh, gotSession = refresh, sess
		return sampleView(), nil
	}

	req := authed(httptest.NewRequest("GET", "/v1/posts/p1/thread?refresh=true", nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !gotRefresh {
		t.Error("Expected refresh to be passed through")
	}
	if gotSession.UserID != "u1" || gotSession.AccessToken() != "access" {
		t.Errorf("Session not built from headers: %q %q", gotSession.UserID, gotSession.AccessToken())
	}

	var resp api.ThreadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Version != 7 || resp.MaxDepth != 2 || resp.CommentCount != 3 {
		t.Errorf("Unexpected view header fields: %+v", resp)
	}

	root := resp.Comments[0]
	child := root.Children[0]
	leaf := child.Children[0]
	if !root.CanReply || !child.CanReply || leaf.CanReply {
		t.Errorf("canReply = %v %v %v, want true true false", root.CanReply, child.CanReply, leaf.CanReply)
	}
	if leaf.Depth != 2 || leaf.Children == nil {
		t.Errorf("leaf = %+v", leaf)
	}
}

func TestGetThread_BadRefresh(t *testing.T) {
	router, _ := setupTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/posts/p1/thread?refresh=maybe", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetThread_EchoesRotatedTokens(t *testing.T) {
	router, mockThread := setupTestRouter()
	mockThread.ThreadFunc = func(ctx context.Context, sess *session.Session, postID string, refresh bool) (*service.ThreadView, error) {
		sess.Rotate("access-2", "refresh-2")
		return sampleView(), nil
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authed(httptest.NewRequest("GET", "/v1/posts/p1/thread", nil)))

	if got := w.Header().Get(session.HeaderAccessTokenUp); got != "access-2" {
		t.Errorf("Expected rotated access token, got %q", got)
	}
	if got := w.Header().Get(session.HeaderRefreshToken); got != "refresh-2" {
		t.Errorf("Expected rotated refresh token, got %q", got)
	}
}

func TestReactToComment(t *testing.T) {
	router, mockThread := setupTestRouter()

	var gotComment string
	var gotKind reaction.Kind
	mockThread.ReactToCommentFunc = func(ctx context.Context, sess *session.Session, postID, commentID string, kind reaction.Kind) (*service.ThreadView, error) {
		gotComment, gotKind = commentID, kind
		return sampleView(), nil
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authed(jsonRequest("POST", "/v1/posts/p1/comments/c2/reactions", `{"kind":" Dislike "}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotComment != "c2" || gotKind != reaction.Dislike {
		t.Errorf("Got comment %q kind %q", gotComment, gotKind)
	}
}

func TestReactToPost_InvalidKind(t *testing.T) {
	router, mockThread := setupTestRouter()
	called := false
	mockThread.ReactToPostFunc = func(ctx context.Context, sess *session.Session, postID string, kind reaction.Kind) (*service.ThreadView, error) {
		called = true
		return sampleView(), nil
	}

	for _, body := range []string{`{"kind":"love"}`, `{}`, `not json`} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authed(jsonRequest("POST", "/v1/posts/p1/reactions", body)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected status 400, got %d", body, w.Code)
		}
	}
	if called {
		t.Error("service called with an invalid kind")
	}
}

func TestCreateComment(t *testing.T) {
	router, mockThread := setupTestRouter()

	var gotParent, gotContent string
	mockThread.ReplyFunc = func(ctx context.Context, sess *session.Session, postID, parentID, content string) (*models.CommentNode, *service.ThreadView, error) {
		gotParent, gotContent = parentID, content
		view := sampleView()
		return thread.Find(view.Comments, "c2"), view, nil
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authed(jsonRequest("POST", "/v1/posts/p1/comments", `{"content":"hi","parentCommentId":"c1"}`)))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if gotParent != "c1" || gotContent != "hi" {
		t.Errorf("Got parent %q content %q", gotParent, gotContent)
	}

	var resp api.ReplyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Comment.ID != "c2" || resp.Comment.Depth != 1 || !resp.Comment.CanReply {
		t.Errorf("comment = %+v", resp.Comment)
	}
	if resp.Thread == nil || resp.Thread.Version != 7 {
		t.Errorf("thread = %+v", resp.Thread)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid content", fmt.Errorf("%w: content is required", service.ErrInvalidContent), http.StatusBadRequest},
		{"no session", service.ErrUnauthenticated, http.StatusUnauthorized},
		{"refresh failed upstream", fmt.Errorf("%w: %w", service.ErrRejected, repository.ErrUnauthenticated), http.StatusUnauthorized},
		{"unknown comment", fmt.Errorf("comment x: %w", thread.ErrNodeNotFound), http.StatusNotFound},
		{"unknown post", fmt.Errorf("failed to load post: %w", repository.ErrNotFound), http.StatusNotFound},
		{"depth exceeded", fmt.Errorf("comment c3: %w", thread.ErrDepthExceeded), http.StatusConflict},
		{"rejected", fmt.Errorf("%w: %w", service.ErrRejected, errors.New("boom")), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockThread := setupTestRouter()
			mockThread.ReplyFunc = func(ctx context.Context, sess *session.Session, postID, parentID, content string) (*models.CommentNode, *service.ThreadView, error) {
				return nil, nil, tt.err
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authed(jsonRequest("POST", "/v1/posts/p1/comments", `{"content":"hi"}`)))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	router, mockThread := setupTestRouter()
	mockThread.ThreadFunc = func(ctx context.Context, sess *session.Session, postID string, refresh bool) (*service.ThreadView, error) {
		panic("unknown reaction kind")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/posts/p1/thread", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/v1/posts/p1/reactions", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), session.HeaderRefreshToken) {
		t.Error("Expected refresh token header to be allowed")
	}
}
