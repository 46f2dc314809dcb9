package repository

import (
	"context"
	"fmt"

	"github.com/forum-thread-engine/internal/database"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/session"
	"github.com/google/uuid"
)

// reactionRepo is the concrete implementation of ReactionRepository.
// Each viewer has at most one reaction row per target.
type reactionRepo struct {
	db *database.DB
}

// NewReactionRepo creates a new reaction repository
func NewReactionRepo(db *database.DB) ReactionRepository {
	return &reactionRepo{db: db}
}

// React sets the viewer's reaction on a post or comment
func (r *reactionRepo) React(ctx context.Context, sess *session.Session, req models.ReactionRequest) (*models.ReactionAck, error) {
	if sess == nil || sess.UserID == "" {
		return nil, ErrUnauthenticated
	}

	target := req.Target()
	column, table := targetColumns(target.Type)

	var exists bool
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table), target.ID,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s %s: %w", target.Type, target.ID, ErrNotFound)
	}

	query := fmt.Sprintf(`
		INSERT INTO reactions (id, user_id, %[1]s, is_positive, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, %[1]s) WHERE %[1]s IS NOT NULL DO UPDATE SET
			is_positive = EXCLUDED.is_positive,
			created_at = EXCLUDED.created_at
		RETURNING id, is_positive, created_at
	`, column)

	var ack models.ReactionAck
	err = r.db.QueryRowContext(ctx, query,
		uuid.New().String(), sess.UserID, target.ID, req.IsPositive,
	).Scan(&ack.ID, &ack.IsPositive, &ack.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// Remove clears the viewer's reaction. Removing a missing reaction is not
// an error.
func (r *reactionRepo) Remove(ctx context.Context, sess *session.Session, target models.ReactionTarget) error {
	if sess == nil || sess.UserID == "" {
		return ErrUnauthenticated
	}
	column, _ := targetColumns(target.Type)
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM reactions WHERE user_id = $1 AND %s = $2", column),
		sess.UserID, target.ID,
	)
	return err
}

func targetColumns(t models.TargetType) (column, table string) {
	if t == models.TargetComment {
		return "comment_id", "comments"
	}
	return "post_id", "posts"
}
