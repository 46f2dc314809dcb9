package repository

import (
	"context"
	"database/sql"

	"github.com/forum-thread-engine/internal/database"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/session"
)

// materialRepo is the concrete implementation of MaterialRepository
type materialRepo struct {
	db *database.DB
}

// NewMaterialRepo creates a new material repository
func NewMaterialRepo(db *database.DB) MaterialRepository {
	return &materialRepo{db: db}
}

// ListByPost returns attachments of the post and of its comments
func (r *materialRepo) ListByPost(ctx context.Context, _ *session.Session, postID string) ([]models.Material, error) {
	query := `
		SELECT m.id, m.uploader_id, COALESCE(m.post_id, ''), COALESCE(m.comment_id, ''),
			m.title, m.description, m.file_url, m.uploaded_at
		FROM materials m
		WHERE m.post_id = $1
			OR m.comment_id IN (SELECT id FROM comments WHERE post_id = $1)
		ORDER BY m.uploaded_at
	`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := []models.Material{}
	for rows.Next() {
		var (
			m    models.Material
			desc sql.NullString
		)
		if err := rows.Scan(
			&m.ID, &m.UploaderID, &m.PostID, &m.CommentID,
			&m.Title, &desc, &m.FileURL, &m.UploadedAt,
		); err != nil {
			return nil, err
		}
		m.Description = desc.String
		materials = append(materials, m)
	}
	return materials, rows.Err()
}
