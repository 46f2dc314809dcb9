package mocks

import (
	"context"

	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/reaction"
	"github.com/forum-thread-engine/internal/service"
	"github.com/forum-thread-engine/internal/session"
)

// MockThreadService is a mock implementation of ThreadService
type MockThreadService struct {
	ThreadFunc         func(ctx context.Context, sess *session.Session, postID string, refresh bool) (*service.ThreadView, error)
	ReactToPostFunc    func(ctx context.Context, sess *session.Session, postID string, kind reaction.Kind) (*service.ThreadView, error)
	ReactToCommentFunc func(ctx context.Context, sess *session.Session, postID, commentID string, kind reaction.Kind) (*service.ThreadView, error)
	ReplyFunc          func(ctx context.Context, sess *session.Session, postID, parentID, content string) (*models.CommentNode, *service.ThreadView, error)
	Views              int
}

// Verify interface compliance
var _ service.ThreadService = (*MockThreadService)(nil)

func NewMockThreadService() *MockThreadService {
	return &MockThreadService{}
}

func (m *MockThreadService) Thread(ctx context.Context, sess *session.Session, postID string, refresh bool) (*service.ThreadView, error) {
	if m.ThreadFunc != nil {
		return m.ThreadFunc(ctx, sess, postID, refresh)
	}
	return &service.ThreadView{Post: models.Post{ID: postID}, Version: 1}, nil
}

func (m *MockThreadService) ReactToPost(ctx context.Context, sess *session.Session, postID string, kind reaction.Kind) (*service.ThreadView, error) {
	if m.ReactToPostFunc != nil {
		return m.ReactToPostFunc(ctx, sess, postID, kind)
	}
	return &service.ThreadView{Post: models.Post{ID: postID}, Version: 2}, nil
}

func (m *MockThreadService) ReactToComment(ctx context.Context, sess *session.Session, postID, commentID string, kind reaction.Kind) (*service.ThreadView, error) {
	if m.ReactToCommentFunc != nil {
		return m.ReactToCommentFunc(ctx, sess, postID, commentID, kind)
	}
	return &service.ThreadView{Post: models.Post{ID: postID}, Version: 2}, nil
}

func (m *MockThreadService) Reply(ctx context.Context, sess *session.Session, postID, parentID, content string) (*models.CommentNode, *service.ThreadView, error) {
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, sess, postID, parentID, content)
	}
	node := &models.CommentNode{
		Comment:  models.Comment{ID: "new-1", PostID: postID, ParentCommentID: parentID, Content: content},
		Children: []*models.CommentNode{},
	}
	return node, &service.ThreadView{Post: models.Post{ID: postID}, Version: 2}, nil
}

func (m *MockThreadService) LiveViews() int {
	return m.Views
}
