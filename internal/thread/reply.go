package thread

import (
	"fmt"

	"github.com/forum-thread-engine/internal/models"
)

// InsertReply appends c under parentID. It returns the input tree with
// ErrNodeNotFound when the parent is missing and ErrDepthExceeded when the
// reply would sit below maxDepth.
func InsertReply(tree Tree, parentID string, c models.Comment, maxDepth int) (Tree, error) {
	return replaceNode(tree, parentID, func(parent *models.CommentNode) (*models.CommentNode, error) {
		if parent.Depth < 0 {
			return nil, fmt.Errorf("%w: %s has negative depth %d", ErrMalformedNode, parent.ID, parent.Depth)
		}
		if !CanReply(parent.Depth, maxDepth) {
			return nil, ErrDepthExceeded
		}
		c.ParentCommentID = parent.ID
		child := newNode(c, parent.Depth+1)

		node := *parent
		node.Children = make([]*models.CommentNode, len(parent.Children), len(parent.Children)+1)
		copy(node.Children, parent.Children)
		node.Children = append(node.Children, child)
		return &node, nil
	})
}

// AppendRoot appends a top-level comment
func AppendRoot(tree Tree, c models.Comment) Tree {
	c.ParentCommentID = ""
	out := make(Tree, len(tree), len(tree)+1)
	copy(out, tree)
	return append(out, newNode(c, 0))
}
