package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/google/uuid"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validator provides validation methods. The id caches are filled while a
// fixture is walked so references can be checked in one pass.
type Validator struct {
	userIDCache    map[string]bool
	postIDCache    map[string]bool
	commentIDCache map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		userIDCache:    make(map[string]bool),
		postIDCache:    make(map[string]bool),
		commentIDCache: make(map[string]bool),
	}
}

// ValidateComment validates a comment submitted by a viewer
func (v *Validator) ValidateComment(req *models.CommentRequest) []ValidationError {
	var errors []ValidationError

	if req.PostID == "" {
		errors = append(errors, ValidationError{Field: "postId", Message: "postId is required"})
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	} else if n := utf8.RuneCountInString(content); n > models.MaxCommentLength {
		errors = append(errors, ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("content exceeds maximum of %d characters (has %d)", models.MaxCommentLength, n),
		})
	}

	return errors
}

// ValidateFixture checks a seed document before it is copied into the
// database. Records are checked in table order so references point backwards.
func (v *Validator) ValidateFixture(f *repository.Fixture) []ValidationError {
	var errors []ValidationError

	for i, u := range f.Users {
		field := fmt.Sprintf("users[%d]", i)
		if !isValidUUID(u.ID) {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "invalid UUID format", Value: u.ID})
			continue
		}
		if u.Username == "" {
			errors = append(errors, ValidationError{Field: field + ".username", Message: "username is required"})
		}
		v.userIDCache[u.ID] = true
	}

	for i, p := range f.Posts {
		field := fmt.Sprintf("posts[%d]", i)
		if !isValidUUID(p.ID) {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "invalid UUID format", Value: p.ID})
			continue
		}
		if p.Title == "" {
			errors = append(errors, ValidationError{Field: field + ".title", Message: "title is required"})
		}
		if !v.userIDCache[p.AuthorID] {
			errors = append(errors, ValidationError{Field: field + ".authorId", Message: "referenced user does not exist", Value: p.AuthorID})
		}
		v.postIDCache[p.ID] = true
	}

	errors = append(errors, v.validateSeedComments(f.Comments, "comments", "", "")...)

	for i, r := range f.Reactions {
		field := fmt.Sprintf("reactions[%d]", i)
		if !v.userIDCache[r.UserID] {
			errors = append(errors, ValidationError{Field: field + ".userId", Message: "referenced user does not exist", Value: r.UserID})
		}
		switch {
		case (r.PostID == "") == (r.CommentID == ""):
			errors = append(errors, ValidationError{Field: field, Message: "exactly one of postId or commentId is required"})
		case r.PostID != "" && !v.postIDCache[r.PostID]:
			errors = append(errors, ValidationError{Field: field + ".postId", Message: "referenced post does not exist", Value: r.PostID})
		case r.CommentID != "" && !v.commentIDCache[r.CommentID]:
			errors = append(errors, ValidationError{Field: field + ".commentId", Message: "referenced comment does not exist", Value: r.CommentID})
		}
	}

	for i, m := range f.Materials {
		field := fmt.Sprintf("materials[%d]", i)
		if m.FileURL == "" {
			errors = append(errors, ValidationError{Field: field + ".fileUrl", Message: "fileUrl is required"})
		}
		if !v.userIDCache[m.UploaderID] {
			errors = append(errors, ValidationError{Field: field + ".uploaderId", Message: "referenced user does not exist", Value: m.UploaderID})
		}
		if m.PostID != "" && !v.postIDCache[m.PostID] {
			errors = append(errors, ValidationError{Field: field + ".postId", Message: "referenced post does not exist", Value: m.PostID})
		}
		if m.CommentID != "" && !v.commentIDCache[m.CommentID] {
			errors = append(errors, ValidationError{Field: field + ".commentId", Message: "referenced comment does not exist", Value: m.CommentID})
		}
	}

	return errors
}

// validateSeedComments walks flat and pre-nested comments. Nested replies
// inherit postID and parentID from their container.
func (v *Validator) validateSeedComments(comments []models.Comment, path, postID, parentID string) []ValidationError {
	var errors []ValidationError

	for i, c := range comments {
		field := fmt.Sprintf("%s[%d]", path, i)
		if c.PostID == "" {
			c.PostID = postID
		}
		if c.ParentCommentID == "" {
			c.ParentCommentID = parentID
		}

		if !isValidUUID(c.ID) {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "invalid UUID format", Value: c.ID})
			continue
		}
		if v.commentIDCache[c.ID] {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "duplicate id", Value: c.ID})
		}
		if !v.postIDCache[c.PostID] {
			errors = append(errors, ValidationError{Field: field + ".postId", Message: "referenced post does not exist", Value: c.PostID})
		}
		if c.ParentCommentID != "" && !v.commentIDCache[c.ParentCommentID] {
			errors = append(errors, ValidationError{Field: field + ".parentCommentId", Message: "referenced comment does not exist", Value: c.ParentCommentID})
		}
		if !v.userIDCache[c.AuthorID] {
			errors = append(errors, ValidationError{Field: field + ".authorId", Message: "referenced user does not exist", Value: c.AuthorID})
		}
		if strings.TrimSpace(c.Content) == "" {
			errors = append(errors, ValidationError{Field: field + ".content", Message: "content is required"})
		}
		v.commentIDCache[c.ID] = true

		errors = append(errors, v.validateSeedComments(c.Replies, field+".replies", c.PostID, c.ID)...)
	}

	return errors
}

// isValidUUID checks if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
