package repository

import (
	"context"
	"errors"

	"github.com/forum-thread-engine/internal/database"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/session"
)

// ErrNotFound is returned when a post or comment does not exist
var ErrNotFound = errors.New("not found")

// PostRepository defines the interface for post data operations
type PostRepository interface {
	GetByID(ctx context.Context, sess *session.Session, id string) (*models.Post, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	ListByPost(ctx context.Context, sess *session.Session, postID string) ([]models.Comment, error)
	Create(ctx context.Context, sess *session.Session, req models.CommentRequest) (*models.Comment, error)
}

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	React(ctx context.Context, sess *session.Session, req models.ReactionRequest) (*models.ReactionAck, error)
	Remove(ctx context.Context, sess *session.Session, target models.ReactionTarget) error
}

// MaterialRepository defines the interface for attachment lookups
type MaterialRepository interface {
	ListByPost(ctx context.Context, sess *session.Session, postID string) ([]models.Material, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Post     PostRepository
	Comment  CommentRepository
	Reaction ReactionRepository
	Material MaterialRepository
}

// New creates all repositories backed by the local postgres database
func New(db *database.DB) *Repositories {
	return &Repositories{
		Post:     NewPostRepo(db),
		Comment:  NewCommentRepo(db),
		Reaction: NewReactionRepo(db),
		Material: NewMaterialRepo(db),
	}
}
