package models

import (
	"time"
)

// Comment represents a comment on a post as returned by the forum API.
// Replies is only set when the data source pre-nests the thread.
type Comment struct {
	ID              string     `json:"id" db:"id"`
	PostID          string     `json:"postId,omitempty" db:"post_id"`
	ParentCommentID string     `json:"parentCommentId,omitempty" db:"parent_comment_id"`
	Content         string     `json:"content" db:"content"`
	AuthorID        string     `json:"authorId" db:"author_id"`
	AuthorUsername  string     `json:"authorUsername" db:"author_username"`
	AuthorAvatarURL *string    `json:"authorAvatarUrl,omitempty" db:"author_avatar_url"`
	AuthorPoint     int        `json:"authorPoint" db:"author_point"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	Replies         []Comment  `json:"replies,omitempty" db:"-"`
	Attachments     []Material `json:"attachments,omitempty" db:"-"`
	Reactions
}

// CommentNode is a comment placed in a reply tree
type CommentNode struct {
	Comment
	Depth    int            `json:"depth"`
	Children []*CommentNode `json:"children"`
}

// CommentRequest is the body of POST /comment on the forum API
type CommentRequest struct {
	PostID          string `json:"postId"`
	Content         string `json:"content"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
}

// MaxCommentLength is the maximum allowed characters in a comment body
const MaxCommentLength = 5000
