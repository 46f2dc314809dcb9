package models

import (
	"time"
)

// Material is an uploaded attachment reference. It is display data only.
type Material struct {
	ID          string    `json:"id" db:"id"`
	UploaderID  string    `json:"uploaderId" db:"uploader_id"`
	PostID      string    `json:"postId,omitempty" db:"post_id"`
	CommentID   string    `json:"commentId,omitempty" db:"comment_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	FileURL     string    `json:"fileUrl" db:"file_url"`
	UploadedAt  time.Time `json:"uploadedAt" db:"uploaded_at"`
}
