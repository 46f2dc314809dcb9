package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forum-thread-engine/internal/database"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/session"
	"github.com/google/uuid"
)

// ErrUnauthenticated is returned for writes without a viewer
var ErrUnauthenticated = errors.New("viewer is not signed in")

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

const commentColumns = `
	c.id, c.post_id, COALESCE(c.parent_comment_id, ''), c.content, c.author_id,
	COALESCE(u.username, ''), u.avatar_url, COALESCE(u.point, 0), c.created_at,
	(SELECT COUNT(*) FROM reactions x WHERE x.comment_id = c.id AND x.is_positive),
	(SELECT COUNT(*) FROM reactions x WHERE x.comment_id = c.id AND NOT x.is_positive),
	(SELECT x.is_positive FROM reactions x WHERE x.comment_id = c.id AND x.user_id = $2)
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		c      models.Comment
		avatar sql.NullString
		mine   sql.NullBool
	)
	err := row.Scan(
		&c.ID, &c.PostID, &c.ParentCommentID, &c.Content, &c.AuthorID,
		&c.AuthorUsername, &avatar, &c.AuthorPoint, &c.CreatedAt,
		&c.PositiveCount, &c.NegativeCount, &mine,
	)
	if err != nil {
		return nil, err
	}
	if avatar.Valid {
		c.AuthorAvatarURL = &avatar.String
	}
	c.IsPositive, c.IsNegative = viewerFlags(mine)
	return &c, nil
}

// ListByPost returns the post's comments as a flat list in creation order
func (r *commentRepo) ListByPost(ctx context.Context, sess *session.Session, postID string) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at, c.id
	`
	rows, err := r.db.QueryContext(ctx, query, postID, sess.Viewer())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Create inserts a comment authored by the session user. A reply must
// point at a comment of the same post.
func (r *commentRepo) Create(ctx context.Context, sess *session.Session, req models.CommentRequest) (*models.Comment, error) {
	if sess == nil || sess.UserID == "" {
		return nil, ErrUnauthenticated
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)", req.PostID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("post %s: %w", req.PostID, ErrNotFound)
	}

	var parent sql.NullString
	if req.ParentCommentID != "" {
		err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1 AND post_id = $2)",
			req.ParentCommentID, req.PostID,
		).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("parent comment %s: %w", req.ParentCommentID, ErrNotFound)
		}
		parent = sql.NullString{String: req.ParentCommentID, Valid: true}
	}

	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, parent_comment_id, content, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, req.PostID, parent, req.Content, sess.UserID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + commentColumns + `
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.id = $1
	`
	return scanComment(r.db.QueryRowContext(ctx, query, id, sess.Viewer()))
}
