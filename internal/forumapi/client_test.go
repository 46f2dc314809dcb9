package forumapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/forum-thread-engine/internal/forumapi"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/session"
	"github.com/h2non/gock"
	"github.com/rs/zerolog"
)

const forumURL = "http://forum.test"

func newRepos() *repository.Repositories {
	return forumapi.New(forumURL+"/api", 2*time.Second, zerolog.Nop()).Repositories()
}

func TestGetPost(t *testing.T) {
	defer gock.Off()

	gock.New(forumURL).
		Get("/api/post/p1").
		MatchHeader("Authorization", "^Bearer token-1$").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"id":                    "p1",
			"title":                 "Exam tips",
			"authorId":              "u1",
			"commentCount":          3,
			"positiveReactionCount": 5,
			"negativeReactionCount": 1,
			"isPositiveReacted":     true,
			"isNegativeReacted":     nil,
			"createdAt":             "2025-03-01T09:00:00Z",
		})

	post, err := newRepos().Post.GetByID(context.Background(), session.New("u1", "token-1", ""), "p1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if post.Title != "Exam tips" || post.PositiveCount != 5 || post.NegativeCount != 1 {
		t.Errorf("Unexpected post %+v", post)
	}
	if !post.Liked() || post.IsNegative != nil {
		t.Errorf("Expected liked with nil negative flag, got %+v", post.Reactions)
	}
	if !gock.IsDone() {
		t.Error("Expected all mocks to be called")
	}
}

func TestListComments_Nested(t *testing.T) {
	defer gock.Off()

	gock.New(forumURL).
		Get("/api/comment/by-post/p1").
		Reply(http.StatusOK).
		JSON([]map[string]any{
			{
				"id":        "c1",
				"content":   "root",
				"createdAt": "2025-03-01T09:00:00Z",
				"replies": []map[string]any{
					{"id": "c2", "content": "reply", "createdAt": "2025-03-01T09:05:00Z"},
				},
			},
		})

	comments, err := newRepos().Comment.ListByPost(context.Background(), nil, "p1")
	if err != nil {
		t.Fatalf("ListByPost failed: %v", err)
	}
	if len(comments) != 1 || len(comments[0].Replies) != 1 || comments[0].Replies[0].ID != "c2" {
		t.Errorf("Unexpected comments %+v", comments)
	}
}

func TestCreateComment(t *testing.T) {
	defer gock.Off()

	gock.New(forumURL).
		Post("/api/comment").
		MatchType("json").
		JSON(map[string]any{"postId": "p1", "content": "hello", "parentCommentId": "c1"}).
		Reply(http.StatusCreated).
		JSON(map[string]any{"id": "c9", "content": "hello", "authorId": "u1", "createdAt": "2025-03-01T10:00:00Z"})

	created, err := newRepos().Comment.Create(context.Background(), session.New("u1", "t", ""), models.CommentRequest{
		PostID: "p1", Content: "hello", ParentCommentID: "c1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != "c9" || created.PostID != "p1" || created.ParentCommentID != "c1" {
		t.Errorf("Unexpected comment %+v", created)
	}
}

func TestReactAndRemove(t *testing.T) {
	defer gock.Off()

	gock.New(forumURL).
		Post("/api/reaction").
		MatchType("json").
		JSON(map[string]any{"commentId": "c1", "isPositive": false}).
		Reply(http.StatusOK).
		JSON(map[string]any{"id": "r1", "isPositive": false, "createdAt": "2025-03-01T10:00:00Z"})
	gock.New(forumURL).
		Delete("/api/reaction/c1").
		Reply(http.StatusNoContent)

	repos := newRepos()
	sess := session.New("u1", "t", "")

	ack, err := repos.Reaction.React(context.Background(), sess, models.ReactionRequest{CommentID: "c1", IsPositive: false})
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if ack.ID != "r1" || ack.IsPositive {
		t.Errorf("Unexpected ack %+v", ack)
	}

	if err := repos.Reaction.Remove(context.Background(), sess, models.ReactionTarget{Type: models.TargetComment, ID: "c1"}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !gock.IsDone() {
		t.Error("Expected all mocks to be called")
	}
}

func TestRefreshAndRetry(t *testing.T) {
	defer gock.Off()

	gock.New(forumURL).
		Get("/api/material/by-post/p1").
		MatchHeader("Authorization", "^Bearer expired$").
		Reply(http.StatusUnauthorized).
		JSON(map[string]string{"message": "token expired"})
	gock.New(forumURL).
		Post("/api/auth/refresh").
		MatchType("json").
		JSON(map[string]string{"refreshToken": "refresh-1"}).
		Reply(http.StatusOK).
		JSON(map[string]string{"accessToken": "fresh", "refreshToken": "refresh-2"})
	gock.New(forumURL).
		Get("/api/material/by-post/p1").
		MatchHeader("Authorization", "^Bearer fresh$").
		Reply(http.StatusOK).
		JSON([]map[string]any{{"id": "m1", "title": "slides", "fileUrl": "https://cdn/slides.pdf"}})

	sess := session.New("u1", "expired", "refresh-1")
	materials, err := newRepos().Material.ListByPost(context.Background(), sess, "p1")
	if err != nil {
		t.Fatalf("ListByPost failed: %v", err)
	}
	if len(materials) != 1 || materials[0].FileURL != "https://cdn/slides.pdf" {
		t.Errorf("Unexpected materials %+v", materials)
	}
	if sess.AccessToken() != "fresh" || sess.RefreshToken() != "refresh-2" || !sess.Rotated() {
		t.Errorf("Expected rotated tokens, got %q %q", sess.AccessToken(), sess.RefreshToken())
	}
	if !gock.IsDone() {
		t.Error("Expected all mocks to be called")
	}
}

func TestRefreshFailureClearsSession(t *testing.T) {
	defer gock.Off()

	gock.New(forumURL).
		Get("/api/post/p1").
		Reply(http.StatusUnauthorized)
	gock.New(forumURL).
		Post("/api/auth/refresh").
		Reply(http.StatusUnauthorized).
		JSON(map[string]string{"error": "refresh token expired"})

	sess := session.New("u1", "expired", "stale")
	_, err := newRepos().Post.GetByID(context.Background(), sess, "p1")

	if !errors.Is(err, forumapi.ErrRefreshFailed) {
		t.Errorf("Expected ErrRefreshFailed, got %v", err)
	}
	if !errors.Is(err, repository.ErrUnauthenticated) {
		t.Errorf("Expected refresh failure to match ErrUnauthenticated, got %v", err)
	}
	if sess.Authenticated() {
		t.Error("Expected session tokens to be cleared")
	}
}

func TestAPIError(t *testing.T) {
	defer gock.Off()

	gock.New(forumURL).
		Get("/api/post/missing").
		Reply(http.StatusNotFound).
		JSON(map[string]string{"error": "Post not found"})

	_, err := newRepos().Post.GetByID(context.Background(), nil, "missing")

	var apiErr *forumapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Post not found" {
		t.Errorf("Unexpected error %+v", apiErr)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		t.Error("Expected 404 to match repository.ErrNotFound")
	}
}
