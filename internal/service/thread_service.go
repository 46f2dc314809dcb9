package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/reaction"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/session"
	"github.com/forum-thread-engine/internal/thread"
	"github.com/forum-thread-engine/internal/validation"
	"github.com/rs/zerolog"
)

// threadService is the concrete implementation of ThreadService
type threadService struct {
	repos    *repository.Repositories
	store    *viewStore
	maxDepth int
	metrics  *Metrics
	log      zerolog.Logger
}

func newThreadService(repos *repository.Repositories, store *viewStore, maxDepth int, metrics *Metrics, log zerolog.Logger) *threadService {
	return &threadService{
		repos:    repos,
		store:    store,
		maxDepth: maxDepth,
		metrics:  metrics,
		log:      log.With().Str("service", "thread").Logger(),
	}
}

// Thread returns the viewer's page state, loading it when missing, stale or
// when refresh is set
func (s *threadService) Thread(ctx context.Context, sess *session.Session, postID string, refresh bool) (*ThreadView, error) {
	if !refresh {
		if v := s.store.get(viewKey(sess.ViewKey(), postID)); v != nil {
			v.mu.Lock()
			if !v.stale {
				defer v.mu.Unlock()
				return v.snapshot(s.maxDepth), nil
			}
			v.mu.Unlock()
		}
	}

	v, err := s.load(ctx, sess, postID)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot(s.maxDepth), nil
}

// LiveViews reports how many views are held in memory
func (s *threadService) LiveViews() int {
	return s.store.len()
}

// view returns a fresh view to mutate
func (s *threadService) view(ctx context.Context, sess *session.Session, postID string) (*view, error) {
	if v := s.store.get(viewKey(sess.ViewKey(), postID)); v != nil {
		v.mu.Lock()
		stale := v.stale
		v.mu.Unlock()
		if !stale {
			return v, nil
		}
	}
	return s.load(ctx, sess, postID)
}

// load fetches the post, its comments and materials and stores a new view.
// Materials are optional; a failure there only logs.
func (s *threadService) load(ctx context.Context, sess *session.Session, postID string) (*view, error) {
	post, err := s.repos.Post.GetByID(ctx, sess, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post %s: %w", postID, err)
	}

	comments, err := s.repos.Comment.ListByPost(ctx, sess, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments of post %s: %w", postID, err)
	}

	var postMaterials []models.Material
	if s.repos.Material != nil {
		materials, err := s.repos.Material.ListByPost(ctx, sess, postID)
		if err != nil {
			s.log.Warn().Err(err).Str("post_id", postID).Msg("Failed to load materials")
		} else {
			postMaterials, comments = attachMaterials(materials, comments)
		}
	}

	tree := thread.BuildTree(comments, s.maxDepth)
	v := &view{
		post:        *post,
		tree:        tree,
		attachments: postMaterials,
		version:     1,
	}
	s.store.put(viewKey(sess.ViewKey(), postID), v)

	s.log.Debug().
		Str("post_id", postID).
		Str("viewer", sess.Viewer()).
		Int("records", len(comments)).
		Int("rendered", thread.Count(tree)).
		Msg("Thread view loaded")

	return v, nil
}

// attachMaterials splits materials into post level ones and comment
// attachments. Comments are copied, nested replies included.
func attachMaterials(materials []models.Material, comments []models.Comment) ([]models.Material, []models.Comment) {
	if len(materials) == 0 {
		return nil, comments
	}

	var forPost []models.Material
	byComment := make(map[string][]models.Material)
	for _, m := range materials {
		if m.CommentID != "" {
			byComment[m.CommentID] = append(byComment[m.CommentID], m)
		} else {
			forPost = append(forPost, m)
		}
	}
	return forPost, withAttachments(comments, byComment)
}

func withAttachments(comments []models.Comment, byComment map[string][]models.Material) []models.Comment {
	if comments == nil {
		return nil
	}
	out := make([]models.Comment, len(comments))
	for i, c := range comments {
		if ms, ok := byComment[c.ID]; ok {
			c.Attachments = append(append([]models.Material(nil), c.Attachments...), ms...)
		}
		c.Replies = withAttachments(c.Replies, byComment)
		out[i] = c
	}
	return out
}

// ReactToPost toggles kind on the post, reverting when the forum rejects it
func (s *threadService) ReactToPost(ctx context.Context, sess *session.Session, postID string, kind reaction.Kind) (*ThreadView, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	v, err := s.view(ctx, sess, postID)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	m := thread.ApplyPostReaction(v.post, kind)
	v.post = m.Post
	v.version++
	applied := v.version
	v.mu.Unlock()

	s.metrics.Optimistic.WithLabelValues(string(models.TargetPost), string(m.Action)).Inc()

	target := models.ReactionTarget{Type: models.TargetPost, ID: postID}
	pushErr := s.push(ctx, sess, v, target, m.Action)

	v.mu.Lock()
	defer v.mu.Unlock()
	if pushErr != nil {
		s.revert(v, applied, target, pushErr, func() { v.post = m.Snapshot })
		return nil, fmt.Errorf("%w: %w", ErrRejected, pushErr)
	}
	return v.snapshot(s.maxDepth), nil
}

// ReactToComment toggles kind on a comment of the post
func (s *threadService) ReactToComment(ctx context.Context, sess *session.Session, postID, commentID string, kind reaction.Kind) (*ThreadView, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	v, err := s.view(ctx, sess, postID)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	m := thread.ApplyReaction(v.tree, commentID, kind)
	if !m.Found {
		v.mu.Unlock()
		s.log.Warn().Str("post_id", postID).Str("comment_id", commentID).Msg("Reaction target not in thread")
		return nil, fmt.Errorf("comment %s: %w", commentID, thread.ErrNodeNotFound)
	}
	v.tree = m.Tree
	v.version++
	applied := v.version
	v.mu.Unlock()

	s.metrics.Optimistic.WithLabelValues(string(models.TargetComment), string(m.Action)).Inc()

	target := models.ReactionTarget{Type: models.TargetComment, ID: commentID}
	pushErr := s.push(ctx, sess, v, target, m.Action)

	v.mu.Lock()
	defer v.mu.Unlock()
	if pushErr != nil {
		s.revert(v, applied, target, pushErr, func() { v.tree = thread.Rollback(m.Snapshot) })
		return nil, fmt.Errorf("%w: %w", ErrRejected, pushErr)
	}
	return v.snapshot(s.maxDepth), nil
}

// push sends the action to the forum. An acknowledgement that disagrees
// with the local flag marks the view stale.
func (s *threadService) push(ctx context.Context, sess *session.Session, v *view, target models.ReactionTarget, action reaction.Action) error {
	if action == reaction.ActionRemove {
		return s.repos.Reaction.Remove(ctx, sess, target)
	}

	ack, err := s.repos.Reaction.React(ctx, sess, action.Request(target))
	if err != nil {
		return err
	}
	if ack != nil && ack.IsPositive != action.IsPositive() {
		s.log.Warn().
			Str("target", string(target.Type)).
			Str("target_id", target.ID).
			Str("action", string(action)).
			Msg("Reaction acknowledgement disagrees with local state")
		v.mu.Lock()
		s.markStale(v)
		v.mu.Unlock()
	}
	return nil
}

// revert restores the snapshot when no later mutation has landed on the
// view. Otherwise restoring would drop newer state, so the view is marked
// stale for a refetch. Callers hold v.mu.
func (s *threadService) revert(v *view, applied uint64, target models.ReactionTarget, cause error, restore func()) {
	logEvent := s.log.Warn().
		Err(cause).
		Str("target", string(target.Type)).
		Str("target_id", target.ID)

	if v.version != applied {
		s.markStale(v)
		logEvent.Uint64("applied", applied).Uint64("current", v.version).Msg("Reaction rejected after newer changes, view marked stale")
		return
	}

	restore()
	v.version++
	s.metrics.Rollbacks.WithLabelValues(string(target.Type)).Inc()
	logEvent.Msg("Reaction rejected, rolled back")
}

func (s *threadService) markStale(v *view) {
	if !v.stale {
		v.stale = true
		s.metrics.Stale.Inc()
	}
}

// Reply posts a comment on the post or, with parentID, a reply to a comment.
// The depth cap is checked before the forum is called.
func (s *threadService) Reply(ctx context.Context, sess *session.Session, postID, parentID, content string) (*models.CommentNode, *ThreadView, error) {
	req := models.CommentRequest{PostID: postID, Content: strings.TrimSpace(content), ParentCommentID: parentID}
	if errs := validation.NewValidator().ValidateComment(&req); len(errs) > 0 {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidContent, errs[0])
	}
	if !sess.Authenticated() {
		return nil, nil, ErrUnauthenticated
	}

	v, err := s.view(ctx, sess, postID)
	if err != nil {
		return nil, nil, err
	}

	if parentID != "" {
		v.mu.Lock()
		parent := thread.Find(v.tree, parentID)
		v.mu.Unlock()
		if parent == nil {
			return nil, nil, fmt.Errorf("comment %s: %w", parentID, thread.ErrNodeNotFound)
		}
		if !thread.CanReply(parent.Depth, s.maxDepth) {
			return nil, nil, fmt.Errorf("comment %s at depth %d: %w", parentID, parent.Depth, thread.ErrDepthExceeded)
		}
	}

	created, err := s.repos.Comment.Create(ctx, sess, req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	if created.ParentCommentID == "" {
		created.ParentCommentID = parentID
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var tree thread.Tree
	if parentID == "" {
		tree = thread.AppendRoot(v.tree, *created)
	} else {
		tree, err = thread.InsertReply(v.tree, parentID, *created, s.maxDepth)
		if err != nil {
			// the parent moved between the check and the insert
			s.markStale(v)
			s.log.Warn().Err(err).Str("comment_id", created.ID).Msg("Created reply could not be placed, view marked stale")
			return nil, nil, err
		}
	}

	v.tree = tree
	v.post.CommentCount++
	v.version++

	s.log.Info().
		Str("post_id", postID).
		Str("comment_id", created.ID).
		Str("parent_id", parentID).
		Msg("Comment created")

	return thread.Find(tree, created.ID), v.snapshot(s.maxDepth), nil
}
