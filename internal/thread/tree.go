// Package thread builds depth-capped reply trees and applies reaction and
// reply mutations to them without modifying the input.
//
// Every mutation returns a new Tree that shares all untouched branches with
// its input, so a caller can keep the input as a rollback snapshot and
// compare node pointers to find what changed.
package thread

import (
	"errors"
	"fmt"

	"github.com/forum-thread-engine/internal/models"
)

// DefaultMaxDepth is the nesting cap used by the forum pages
const DefaultMaxDepth = 2

var (
	ErrNodeNotFound  = errors.New("comment not found in thread")
	ErrDepthExceeded = errors.New("reply depth exceeds thread limit")
	ErrMalformedNode = errors.New("malformed comment node")
)

// Tree is an ordered list of root comment nodes
type Tree []*models.CommentNode

// CanReply reports whether a node at depth may have children.
// BuildTree, InsertReply and the reply affordance all go through here.
func CanReply(depth, maxDepth int) bool {
	return depth < maxDepth
}

// BuildTree converts comments into a tree capped at maxDepth.
//
// Input may be pre-nested through Replies or flat with ParentCommentID;
// the nested shape is used as soon as any record carries replies. Depth is
// always recomputed from position. Children of a node at maxDepth are
// dropped. Source order is kept.
func BuildTree(comments []models.Comment, maxDepth int) Tree {
	if maxDepth < 0 {
		maxDepth = 0
	}
	if isNested(comments) {
		return buildNested(comments, maxDepth)
	}
	return buildFlat(comments, maxDepth)
}

func isNested(comments []models.Comment) bool {
	for i := range comments {
		if len(comments[i].Replies) > 0 {
			return true
		}
	}
	return false
}

func buildNested(comments []models.Comment, maxDepth int) Tree {
	// Some sources return replies both nested and at the top level.
	nested := make(map[string]bool)
	var collect func(cs []models.Comment)
	collect = func(cs []models.Comment) {
		for i := range cs {
			nested[cs[i].ID] = true
			collect(cs[i].Replies)
		}
	}
	for i := range comments {
		collect(comments[i].Replies)
	}

	// Top-level records that only name a parent hang off it like flat
	// records; when the parent is absent they are orphans.
	linked := make(map[string][]models.Comment)
	for _, c := range comments {
		if !nested[c.ID] && c.ParentCommentID != "" {
			linked[c.ParentCommentID] = append(linked[c.ParentCommentID], c)
		}
	}

	seen := make(map[string]bool)
	var build func(c models.Comment, depth int) *models.CommentNode
	build = func(c models.Comment, depth int) *models.CommentNode {
		seen[c.ID] = true
		node := newNode(c, depth)
		if !CanReply(depth, maxDepth) {
			return node
		}
		for _, r := range c.Replies {
			if seen[r.ID] {
				continue
			}
			if r.ParentCommentID == "" {
				r.ParentCommentID = c.ID
			}
			node.Children = append(node.Children, build(r, depth+1))
		}
		for _, r := range linked[c.ID] {
			if seen[r.ID] {
				continue
			}
			node.Children = append(node.Children, build(r, depth+1))
		}
		return node
	}

	tree := make(Tree, 0, len(comments))
	for _, c := range comments {
		if nested[c.ID] || seen[c.ID] || c.ParentCommentID != "" {
			continue
		}
		tree = append(tree, build(c, 0))
	}
	return tree
}

func buildFlat(comments []models.Comment, maxDepth int) Tree {
	children := make(map[string][]int)
	var roots []int
	seen := make(map[string]bool)
	for i, c := range comments {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		if c.ParentCommentID == "" {
			roots = append(roots, i)
			continue
		}
		children[c.ParentCommentID] = append(children[c.ParentCommentID], i)
	}

	var build func(i, depth int) *models.CommentNode
	build = func(i, depth int) *models.CommentNode {
		node := newNode(comments[i], depth)
		if !CanReply(depth, maxDepth) {
			return node
		}
		for _, j := range children[comments[i].ID] {
			node.Children = append(node.Children, build(j, depth+1))
		}
		return node
	}

	tree := make(Tree, 0, len(roots))
	for _, i := range roots {
		tree = append(tree, build(i, 0))
	}
	return tree
}

func newNode(c models.Comment, depth int) *models.CommentNode {
	c.Replies = nil
	return &models.CommentNode{Comment: c, Depth: depth, Children: []*models.CommentNode{}}
}

// Find returns the node with id, or nil
func Find(tree Tree, id string) *models.CommentNode {
	for _, n := range tree {
		if n.ID == id {
			return n
		}
		if hit := Find(n.Children, id); hit != nil {
			return hit
		}
	}
	return nil
}

// Count returns the number of nodes in the tree
func Count(tree Tree) int {
	total := 0
	for _, n := range tree {
		total += 1 + Count(n.Children)
	}
	return total
}

// Validate checks the depth invariant: roots at 0, children one deeper than
// their parent, and no children below maxDepth.
func Validate(tree Tree, maxDepth int) error {
	var walk func(nodes Tree, depth int) error
	walk = func(nodes Tree, depth int) error {
		for _, n := range nodes {
			if n == nil {
				return fmt.Errorf("%w: nil node at depth %d", ErrMalformedNode, depth)
			}
			if n.Depth != depth {
				return fmt.Errorf("%w: %s has depth %d, want %d", ErrMalformedNode, n.ID, n.Depth, depth)
			}
			if len(n.Children) > 0 && !CanReply(n.Depth, maxDepth) {
				return fmt.Errorf("%w: %s at depth %d has children", ErrDepthExceeded, n.ID, n.Depth)
			}
			if err := walk(n.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(tree, 0)
}

// replaceNode finds id depth-first and swaps it for fn's result. Only the
// path from the root to the node is copied. When id is missing or fn fails
// the input tree is returned as is.
func replaceNode(nodes Tree, id string, fn func(*models.CommentNode) (*models.CommentNode, error)) (Tree, error) {
	for i, n := range nodes {
		if n.ID == id {
			replacement, err := fn(n)
			if err != nil {
				return nodes, err
			}
			out := make(Tree, len(nodes))
			copy(out, nodes)
			out[i] = replacement
			return out, nil
		}
		children, err := replaceNode(n.Children, id, fn)
		if errors.Is(err, ErrNodeNotFound) {
			continue
		}
		if err != nil {
			return nodes, err
		}
		parent := *n
		parent.Children = children
		out := make(Tree, len(nodes))
		copy(out, nodes)
		out[i] = &parent
		return out, nil
	}
	return nodes, ErrNodeNotFound
}
