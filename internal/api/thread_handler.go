package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/forum-thread-engine/internal/config"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/reaction"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/service"
	"github.com/forum-thread-engine/internal/thread"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ThreadHandler handles post page endpoints
type ThreadHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewThreadHandler creates a new ThreadHandler
func NewThreadHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ThreadHandler {
	return &ThreadHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "thread").Logger(),
	}
}

// NodeResponse is a comment node with its reply affordance
type NodeResponse struct {
	models.Comment
	Depth    int             `json:"depth"`
	CanReply bool            `json:"canReply"`
	Children []*NodeResponse `json:"children"`
}

// ThreadResponse is the JSON form of a thread view
type ThreadResponse struct {
	Post         models.Post       `json:"post"`
	Comments     []*NodeResponse   `json:"comments"`
	Attachments  []models.Material `json:"attachments,omitempty"`
	MaxDepth     int               `json:"maxDepth"`
	Version      uint64            `json:"version"`
	CommentCount int               `json:"commentCount"`
}

// ReplyResponse is returned by CreateComment
type ReplyResponse struct {
	Comment *NodeResponse   `json:"comment"`
	Thread  *ThreadResponse `json:"thread"`
}

type reactionBody struct {
	Kind string `json:"kind" binding:"required"`
}

type commentBody struct {
	Content         string `json:"content" binding:"required"`
	ParentCommentID string `json:"parentCommentId"`
}

// GetThread handles GET /v1/posts/:post_id/thread
func (h *ThreadHandler) GetThread(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.cfg.Server.WriteTimeout)
	defer cancel()

	refresh := false
	if raw := c.Query("refresh"); raw != "" {
		var err error
		if refresh, err = strconv.ParseBool(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh must be a boolean"})
			return
		}
	}

	sess := sessionFrom(c)
	view, err := h.services.Thread.Thread(ctx, sess, c.Param("post_id"), refresh)
	sess.WriteHeaders(c.Writer.Header())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, renderThread(view))
}

// ReactToPost handles POST /v1/posts/:post_id/reactions
func (h *ThreadHandler) ReactToPost(c *gin.Context) {
	kind, ok := h.bindKind(c)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(c, h.cfg.Server.WriteTimeout)
	defer cancel()

	sess := sessionFrom(c)
	view, err := h.services.Thread.ReactToPost(ctx, sess, c.Param("post_id"), kind)
	sess.WriteHeaders(c.Writer.Header())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, renderThread(view))
}

// ReactToComment handles POST /v1/posts/:post_id/comments/:comment_id/reactions
func (h *ThreadHandler) ReactToComment(c *gin.Context) {
	kind, ok := h.bindKind(c)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(c, h.cfg.Server.WriteTimeout)
	defer cancel()

	sess := sessionFrom(c)
	view, err := h.services.Thread.ReactToComment(ctx, sess, c.Param("post_id"), c.Param("comment_id"), kind)
	sess.WriteHeaders(c.Writer.Header())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, renderThread(view))
}

// CreateComment handles POST /v1/posts/:post_id/comments
func (h *ThreadHandler) CreateComment(c *gin.Context) {
	var body commentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	ctx, cancel := contextWithTimeout(c, h.cfg.Server.WriteTimeout)
	defer cancel()

	sess := sessionFrom(c)
	node, view, err := h.services.Thread.Reply(ctx, sess, c.Param("post_id"), body.ParentCommentID, body.Content)
	sess.WriteHeaders(c.Writer.Header())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := ReplyResponse{Thread: renderThread(view)}
	if node != nil {
		resp.Comment = renderNode(node, view.MaxDepth)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ThreadHandler) bindKind(c *gin.Context) (reaction.Kind, bool) {
	var body reactionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind is required"})
		return "", false
	}
	kind, err := reaction.ParseKind(body.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return kind, true
}

// fail maps service errors onto status codes
func (h *ThreadHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"

	switch {
	case errors.Is(err, service.ErrInvalidContent):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, repository.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, thread.ErrNodeNotFound), errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, thread.ErrDepthExceeded):
		status, msg = http.StatusConflict, "Maximum reply depth reached"
	case errors.Is(err, service.ErrRejected):
		status, msg = http.StatusBadGateway, err.Error()
	}

	event := h.log.Warn()
	if status >= 500 {
		event = h.log.Error()
	}
	event.Err(err).
		Str("post_id", c.Param("post_id")).
		Int("status", status).
		Msg("Thread request failed")

	c.JSON(status, gin.H{"error": msg})
}

func renderThread(v *service.ThreadView) *ThreadResponse {
	resp := &ThreadResponse{
		Post:         v.Post,
		Comments:     make([]*NodeResponse, 0, len(v.Comments)),
		Attachments:  v.Attachments,
		MaxDepth:     v.MaxDepth,
		Version:      v.Version,
		CommentCount: thread.Count(v.Comments),
	}
	for _, n := range v.Comments {
		resp.Comments = append(resp.Comments, renderNode(n, v.MaxDepth))
	}
	return resp
}

func renderNode(n *models.CommentNode, maxDepth int) *NodeResponse {
	out := &NodeResponse{
		Comment:  n.Comment,
		Depth:    n.Depth,
		CanReply: thread.CanReply(n.Depth, maxDepth),
		Children: make([]*NodeResponse, 0, len(n.Children)),
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, renderNode(child, maxDepth))
	}
	return out
}
