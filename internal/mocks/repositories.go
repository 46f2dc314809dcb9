package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/session"
)

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	mu       sync.Mutex
	Posts    map[string]*models.Post
	GetError error
	GetCalls int
}

// Verify interface compliance
var _ repository.PostRepository = (*MockPostRepository)(nil)

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{Posts: make(map[string]*models.Post)}
}

func (m *MockPostRepository) GetByID(ctx context.Context, sess *session.Session, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.GetError != nil {
		return nil, m.GetError
	}
	p, ok := m.Posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	mu          sync.Mutex
	Comments    map[string][]models.Comment
	ListError   error
	CreateError error
	CreateFunc  func(ctx context.Context, req models.CommentRequest) (*models.Comment, error)
	Created     []models.CommentRequest
	ListCalls   int
	nextID      int
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{Comments: make(map[string][]models.Comment)}
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, sess *session.Session, postID string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	return append([]models.Comment(nil), m.Comments[postID]...), nil
}

func (m *MockCommentRepository) Create(ctx context.Context, sess *session.Session, req models.CommentRequest) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Created = append(m.Created, req)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.nextID++
	c := models.Comment{
		ID:              fmt.Sprintf("new-%d", m.nextID),
		PostID:          req.PostID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
		AuthorID:        sess.UserID,
		CreatedAt:       time.Now().UTC(),
	}
	return &c, nil
}

// MockReactionRepository is a mock implementation of ReactionRepository.
// FlipAck makes React acknowledge the opposite polarity.
type MockReactionRepository struct {
	mu          sync.Mutex
	ReactError  error
	RemoveError error
	ReactFunc   func(ctx context.Context, req models.ReactionRequest) (*models.ReactionAck, error)
	RemoveFunc  func(ctx context.Context, target models.ReactionTarget) error
	FlipAck     bool
	Requests    []models.ReactionRequest
	Removed     []models.ReactionTarget
}

var _ repository.ReactionRepository = (*MockReactionRepository)(nil)

func NewMockReactionRepository() *MockReactionRepository {
	return &MockReactionRepository{}
}

func (m *MockReactionRepository) React(ctx context.Context, sess *session.Session, req models.ReactionRequest) (*models.ReactionAck, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	fn, reactErr, flip := m.ReactFunc, m.ReactError, m.FlipAck
	m.mu.Unlock()

	// ReactFunc may block, so it runs unlocked
	if fn != nil {
		return fn(ctx, req)
	}
	if reactErr != nil {
		return nil, reactErr
	}
	return &models.ReactionAck{
		ID:         "reaction-1",
		IsPositive: req.IsPositive != flip,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (m *MockReactionRepository) Remove(ctx context.Context, sess *session.Session, target models.ReactionTarget) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, target)
	fn, removeErr := m.RemoveFunc, m.RemoveError
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, target)
	}
	return removeErr
}

// RequestCount returns the number of React calls so far
func (m *MockReactionRepository) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockMaterialRepository is a mock implementation of MaterialRepository
type MockMaterialRepository struct {
	Materials map[string][]models.Material
	ListError error
}

var _ repository.MaterialRepository = (*MockMaterialRepository)(nil)

func NewMockMaterialRepository() *MockMaterialRepository {
	return &MockMaterialRepository{Materials: make(map[string][]models.Material)}
}

func (m *MockMaterialRepository) ListByPost(ctx context.Context, sess *session.Session, postID string) ([]models.Material, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.Materials[postID], nil
}

// MockRepositories bundles the mocks with the aggregate that wraps them
type MockRepositories struct {
	Post     *MockPostRepository
	Comment  *MockCommentRepository
	Reaction *MockReactionRepository
	Material *MockMaterialRepository
}

func NewMockRepositories() *MockRepositories {
	return &MockRepositories{
		Post:     NewMockPostRepository(),
		Comment:  NewMockCommentRepository(),
		Reaction: NewMockReactionRepository(),
		Material: NewMockMaterialRepository(),
	}
}

// Repositories returns the aggregate expected by the services
func (m *MockRepositories) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Post:     m.Post,
		Comment:  m.Comment,
		Reaction: m.Reaction,
		Material: m.Material,
	}
}
