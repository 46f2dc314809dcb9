package forumapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/session"
)

type postAPI struct{ c *Client }

func (a *postAPI) GetByID(ctx context.Context, sess *session.Session, id string) (*models.Post, error) {
	var post models.Post
	if err := a.c.do(ctx, sess, http.MethodGet, "/post/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

type commentAPI struct{ c *Client }

func (a *commentAPI) ListByPost(ctx context.Context, sess *session.Session, postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := a.c.do(ctx, sess, http.MethodGet, "/comment/by-post/"+url.PathEscape(postID), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (a *commentAPI) Create(ctx context.Context, sess *session.Session, req models.CommentRequest) (*models.Comment, error) {
	var created models.Comment
	if err := a.c.do(ctx, sess, http.MethodPost, "/comment", req, &created); err != nil {
		return nil, err
	}
	if created.PostID == "" {
		created.PostID = req.PostID
	}
	if created.ParentCommentID == "" {
		created.ParentCommentID = req.ParentCommentID
	}
	return &created, nil
}

type reactionAPI struct{ c *Client }

func (a *reactionAPI) React(ctx context.Context, sess *session.Session, req models.ReactionRequest) (*models.ReactionAck, error) {
	var ack models.ReactionAck
	if err := a.c.do(ctx, sess, http.MethodPost, "/reaction", req, &ack); err != nil {
		return nil, err
	}
	// an empty body acknowledges nothing to reconcile
	if ack.ID == "" {
		return nil, nil
	}
	return &ack, nil
}

func (a *reactionAPI) Remove(ctx context.Context, sess *session.Session, target models.ReactionTarget) error {
	return a.c.do(ctx, sess, http.MethodDelete, "/reaction/"+url.PathEscape(target.ID), nil, nil)
}

type materialAPI struct{ c *Client }

func (a *materialAPI) ListByPost(ctx context.Context, sess *session.Session, postID string) ([]models.Material, error) {
	materials := []models.Material{}
	if err := a.c.do(ctx, sess, http.MethodGet, "/material/by-post/"+url.PathEscape(postID), nil, &materials); err != nil {
		return nil, err
	}
	return materials, nil
}
