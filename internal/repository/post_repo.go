package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/forum-thread-engine/internal/database"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/session"
	"github.com/lib/pq"
)

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

// GetByID retrieves a post with its counters and the viewer's reaction
func (r *postRepo) GetByID(ctx context.Context, sess *session.Session, id string) (*models.Post, error) {
	query := `
		SELECT p.id, p.title, p.content, p.is_question, p.author_id,
			COALESCE(u.username, ''), u.avatar_url, p.categories, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
			(SELECT COUNT(*) FROM reactions x WHERE x.post_id = p.id AND x.is_positive),
			(SELECT COUNT(*) FROM reactions x WHERE x.post_id = p.id AND NOT x.is_positive),
			(SELECT x.is_positive FROM reactions x WHERE x.post_id = p.id AND x.user_id = $2)
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	var (
		post   models.Post
		avatar sql.NullString
		mine   sql.NullBool
	)
	err := r.db.QueryRowContext(ctx, query, id, sess.Viewer()).Scan(
		&post.ID, &post.Title, &post.Content, &post.IsQuestion, &post.AuthorID,
		&post.AuthorUsername, &avatar, pq.Array(&post.Categories), &post.CreatedAt, &post.UpdatedAt,
		&post.CommentCount, &post.PositiveCount, &post.NegativeCount, &mine,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if avatar.Valid {
		post.AuthorAvatarURL = &avatar.String
	}
	post.IsPositive, post.IsNegative = viewerFlags(mine)
	return &post, nil
}

// viewerFlags turns the viewer's stored reaction into tri-state flags
func viewerFlags(mine sql.NullBool) (*bool, *bool) {
	if !mine.Valid {
		return nil, nil
	}
	return models.Bool(mine.Bool), models.Bool(!mine.Bool)
}
