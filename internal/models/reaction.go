package models

import (
	"time"
)

// Reactions is the per-viewer reaction state carried by every reaction
// target. A nil flag means the current viewer has not reacted.
type Reactions struct {
	PositiveCount int   `json:"positiveReactionCount" db:"positive_count"`
	NegativeCount int   `json:"negativeReactionCount" db:"negative_count"`
	IsPositive    *bool `json:"isPositiveReacted" db:"is_positive"`
	IsNegative    *bool `json:"isNegativeReacted" db:"is_negative"`
}

// Liked reports whether the viewer's positive flag is set.
func (r Reactions) Liked() bool {
	return r.IsPositive != nil && *r.IsPositive
}

// Disliked reports whether the viewer's negative flag is set.
func (r Reactions) Disliked() bool {
	return r.IsNegative != nil && *r.IsNegative
}

// TargetType distinguishes the two kinds of reaction targets
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// ReactionTarget identifies a post or a comment
type ReactionTarget struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// ReactionRequest is the body of POST /reaction on the forum API
type ReactionRequest struct {
	PostID     string `json:"postId,omitempty"`
	CommentID  string `json:"commentId,omitempty"`
	IsPositive bool   `json:"isPositive"`
}

// Target returns the entity the request reacts to
func (r ReactionRequest) Target() ReactionTarget {
	if r.CommentID != "" {
		return ReactionTarget{Type: TargetComment, ID: r.CommentID}
	}
	return ReactionTarget{Type: TargetPost, ID: r.PostID}
}

// ReactionAck is the forum API acknowledgement of a stored reaction
type ReactionAck struct {
	ID         string    `json:"id" db:"id"`
	IsPositive bool      `json:"isPositive" db:"is_positive"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Bool returns a pointer to b, for building tri-state flags
func Bool(b bool) *bool {
	return &b
}
