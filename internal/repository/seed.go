package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/forum-thread-engine/internal/database"
	"github.com/forum-thread-engine/internal/models"
	"github.com/lib/pq"
)

// SeedUser is a fixture author
type SeedUser struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Point     int     `json:"point"`
}

// SeedReaction is a fixture reaction
type SeedReaction struct {
	UserID     string `json:"userId"`
	PostID     string `json:"postId,omitempty"`
	CommentID  string `json:"commentId,omitempty"`
	IsPositive bool   `json:"isPositive"`
}

// Fixture is the document loaded by cmd/seed
type Fixture struct {
	Users     []SeedUser        `json:"users"`
	Posts     []models.Post     `json:"posts"`
	Comments  []models.Comment  `json:"comments"`
	Reactions []SeedReaction    `json:"reactions"`
	Materials []models.Material `json:"materials"`
}

// SeedStats counts the rows written per table
type SeedStats struct {
	Users     int
	Posts     int
	Comments  int
	Reactions int
	Materials int
}

// Seeder bulk loads fixtures into the local database
type Seeder struct {
	db *database.DB
}

// NewSeeder creates a new seeder
func NewSeeder(db *database.DB) *Seeder {
	return &Seeder{db: db}
}

// Load writes every fixture table in one transaction using PostgreSQL COPY.
// Comments are flattened first, so pre-nested fixtures are accepted.
func (s *Seeder) Load(ctx context.Context, f *Fixture, newID func() string) (SeedStats, error) {
	var stats SeedStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	users := make([][]any, 0, len(f.Users))
	for _, u := range f.Users {
		users = append(users, []any{u.ID, u.Username, nullString(ptrString(u.AvatarURL)), u.Point})
	}
	if stats.Users, err = copyRows(ctx, tx, "users", []string{"id", "username", "avatar_url", "point"}, users); err != nil {
		return stats, err
	}

	posts := make([][]any, 0, len(f.Posts))
	for _, p := range f.Posts {
		posts = append(posts, []any{
			p.ID, p.Title, p.Content, p.IsQuestion, p.AuthorID,
			pq.Array(p.Categories), orNow(p.CreatedAt, now), p.UpdatedAt,
		})
	}
	if stats.Posts, err = copyRows(ctx, tx, "posts",
		[]string{"id", "title", "content", "is_question", "author_id", "categories", "created_at", "updated_at"}, posts); err != nil {
		return stats, err
	}

	flat := flatten(f.Comments, "")
	comments := make([][]any, 0, len(flat))
	for _, c := range flat {
		comments = append(comments, []any{
			c.ID, c.PostID, nullString(c.ParentCommentID), c.Content, c.AuthorID, orNow(c.CreatedAt, now),
		})
	}
	if stats.Comments, err = copyRows(ctx, tx, "comments",
		[]string{"id", "post_id", "parent_comment_id", "content", "author_id", "created_at"}, comments); err != nil {
		return stats, err
	}

	reactions := make([][]any, 0, len(f.Reactions))
	for _, r := range f.Reactions {
		reactions = append(reactions, []any{
			newID(), r.UserID, nullString(r.PostID), nullString(r.CommentID), r.IsPositive, now,
		})
	}
	if stats.Reactions, err = copyRows(ctx, tx, "reactions",
		[]string{"id", "user_id", "post_id", "comment_id", "is_positive", "created_at"}, reactions); err != nil {
		return stats, err
	}

	materials := make([][]any, 0, len(f.Materials))
	for _, m := range f.Materials {
		id := m.ID
		if id == "" {
			id = newID()
		}
		materials = append(materials, []any{
			id, m.UploaderID, nullString(m.PostID), nullString(m.CommentID),
			m.Title, nullString(m.Description), m.FileURL, orNow(m.UploadedAt, now),
		})
	}
	if stats.Materials, err = copyRows(ctx, tx, "materials",
		[]string{"id", "uploader_id", "post_id", "comment_id", "title", "description", "file_url", "uploaded_at"}, materials); err != nil {
		return stats, err
	}

	if err := tx.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

// copyRows streams rows into table with COPY FROM STDIN
func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("failed to copy row into %s: %w", table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to flush copy into %s: %w", table, err)
	}
	return len(rows), nil
}

// flatten turns pre-nested comments into parent-linked records, parents first
func flatten(comments []models.Comment, parentID string) []models.Comment {
	var out []models.Comment
	for _, c := range comments {
		replies := append([]models.Comment(nil), c.Replies...)
		c.Replies = nil
		if c.ParentCommentID == "" {
			c.ParentCommentID = parentID
		}
		out = append(out, c)
		for i := range replies {
			if replies[i].PostID == "" {
				replies[i].PostID = c.PostID
			}
		}
		out = append(out, flatten(replies, c.ID)...)
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func ptrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
