// Package reaction implements the like/dislike toggle shared by posts and
// comments.
package reaction

import (
	"fmt"
	"strings"

	"github.com/forum-thread-engine/internal/models"
)

// Kind is the reaction a viewer asks for
type Kind string

const (
	Like    Kind = "like"
	Dislike Kind = "dislike"
)

// ParseKind validates a kind coming from outside the process
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Like:
		return Like, nil
	case Dislike:
		return Dislike, nil
	}
	return "", fmt.Errorf("unknown reaction kind %q (want like or dislike)", s)
}

// Action is the single forum API call needed to make the server agree
// with the new local state.
type Action string

const (
	ActionRemove     Action = "remove"
	ActionSetLike    Action = "set:like"
	ActionSetDislike Action = "set:dislike"
)

// IsPositive reports the isPositive flag to send for a set action
func (a Action) IsPositive() bool {
	return a == ActionSetLike
}

// Request builds the POST /reaction body for a set action on target
func (a Action) Request(target models.ReactionTarget) models.ReactionRequest {
	req := models.ReactionRequest{IsPositive: a.IsPositive()}
	if target.Type == models.TargetComment {
		req.CommentID = target.ID
	} else {
		req.PostID = target.ID
	}
	return req
}

// Transition is the outcome of one toggle
type Transition struct {
	Reactions models.Reactions
	Action    Action
}

// Next computes the reaction state after the viewer requests kind.
//
// Requesting the active kind clears it, requesting the opposite kind
// switches, and requesting anything from a neutral state sets it. Counters
// are floored at zero so an inconsistent starting state can never produce
// a negative count. Both flags are always explicit in the result.
func Next(cur models.Reactions, kind Kind) Transition {
	if kind != Like && kind != Dislike {
		panic(fmt.Sprintf("reaction: unknown kind %q", kind))
	}

	next := cur
	next.IsPositive = models.Bool(false)
	next.IsNegative = models.Bool(false)

	active := activeKind(cur)
	if active == kind {
		if kind == Like {
			next.PositiveCount = decrement(cur.PositiveCount)
		} else {
			next.NegativeCount = decrement(cur.NegativeCount)
		}
		return Transition{Reactions: next, Action: ActionRemove}
	}

	switch active {
	case Like:
		next.PositiveCount = decrement(cur.PositiveCount)
	case Dislike:
		next.NegativeCount = decrement(cur.NegativeCount)
	}

	if kind == Like {
		next.PositiveCount = floor(next.PositiveCount) + 1
		next.IsPositive = models.Bool(true)
		return Transition{Reactions: next, Action: ActionSetLike}
	}
	next.NegativeCount = floor(next.NegativeCount) + 1
	next.IsNegative = models.Bool(true)
	return Transition{Reactions: next, Action: ActionSetDislike}
}

// activeKind returns the kind currently set by the viewer, or "" when
// neutral. A positive flag wins if both are set.
func activeKind(r models.Reactions) Kind {
	if r.Liked() {
		return Like
	}
	if r.Disliked() {
		return Dislike
	}
	return ""
}

func decrement(n int) int {
	return floor(n - 1)
}

func floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
