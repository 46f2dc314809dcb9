package models

import (
	"time"
)

// Post represents a forum post
type Post struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Content         string     `json:"content" db:"content"`
	IsQuestion      bool       `json:"isQuestion" db:"is_question"`
	AuthorID        string     `json:"authorId" db:"author_id"`
	AuthorUsername  string     `json:"authorUsername,omitempty" db:"author_username"`
	AuthorAvatarURL *string    `json:"authorAvatarUrl,omitempty" db:"author_avatar_url"`
	CommentCount    int        `json:"commentCount" db:"comment_count"`
	Categories      []string   `json:"categories,omitempty" db:"-"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	Reactions
}
