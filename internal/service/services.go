package service

import (
	"context"
	"errors"

	"github.com/forum-thread-engine/internal/config"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/reaction"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/session"
	"github.com/forum-thread-engine/internal/thread"
	"github.com/rs/zerolog"
)

var (
	// ErrRejected wraps a forum failure after the local state was restored
	ErrRejected = errors.New("forum rejected the change")
	// ErrInvalidContent is returned for empty or oversized comments
	ErrInvalidContent = errors.New("invalid comment content")
	// ErrUnauthenticated is returned for writes without credentials
	ErrUnauthenticated = errors.New("sign in required")
)

// ThreadView is a consistent copy of one viewer's post page state.
// Comments is immutable and may be shared.
type ThreadView struct {
	Post        models.Post       `json:"post"`
	Comments    thread.Tree       `json:"comments"`
	Attachments []models.Material `json:"attachments"`
	MaxDepth    int               `json:"maxDepth"`
	Version     uint64            `json:"version"`
}

// ThreadService defines the interface for post page operations
type ThreadService interface {
	Thread(ctx context.Context, sess *session.Session, postID string, refresh bool) (*ThreadView, error)
	ReactToPost(ctx context.Context, sess *session.Session, postID string, kind reaction.Kind) (*ThreadView, error)
	ReactToComment(ctx context.Context, sess *session.Session, postID, commentID string, kind reaction.Kind) (*ThreadView, error)
	Reply(ctx context.Context, sess *session.Session, postID, parentID, content string) (*models.CommentNode, *ThreadView, error)
	LiveViews() int
}

// JanitorService defines the interface for idle view eviction
type JanitorService interface {
	StartJanitor(ctx context.Context)
	StopJanitor()
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services holds all service interfaces. Health is nil when no local
// store backs the data source.
type Services struct {
	Thread  ThreadService
	Janitor JanitorService
	Health  HealthChecker
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, metrics *Metrics, log zerolog.Logger) *Services {
	store := newViewStore(cfg.Forum.ViewTTL, cfg.Forum.MaxViews, cfg.Forum.JanitorEvery, metrics, log)
	threadSvc := newThreadService(repos, store, cfg.Forum.MaxDepth, metrics, log)

	return &Services{
		Thread:  threadSvc,
		Janitor: store,
	}
}
