package thread

import (
	"errors"

	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/reaction"
)

// Mutation is the result of an optimistic reaction on a comment
type Mutation struct {
	Tree     Tree
	Snapshot Tree
	Action   reaction.Action
	Found    bool
}

// ApplyReaction toggles kind on the comment targetID. When the comment is
// not in the tree, Found is false and Tree is the input.
func ApplyReaction(tree Tree, targetID string, kind reaction.Kind) Mutation {
	m := Mutation{Tree: tree, Snapshot: tree}
	next, err := replaceNode(tree, targetID, func(n *models.CommentNode) (*models.CommentNode, error) {
		t := reaction.Next(n.Reactions, kind)
		m.Action = t.Action
		node := *n
		node.Reactions = t.Reactions
		return &node, nil
	})
	if errors.Is(err, ErrNodeNotFound) {
		return m
	}
	m.Tree = next
	m.Found = true
	return m
}

// Rollback restores the tree held by a snapshot
func Rollback(snapshot Tree) Tree {
	return snapshot
}

// PostMutation is the result of an optimistic reaction on a post
type PostMutation struct {
	Post     models.Post
	Snapshot models.Post
	Action   reaction.Action
}

// ApplyPostReaction toggles kind on a post
func ApplyPostReaction(post models.Post, kind reaction.Kind) PostMutation {
	t := reaction.Next(post.Reactions, kind)
	next := post
	next.Reactions = t.Reactions
	return PostMutation{Post: next, Snapshot: post, Action: t.Action}
}
