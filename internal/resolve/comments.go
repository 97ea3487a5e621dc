package resolve

import (
	"context"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
	"github.com/samber/lo"
)

const (
	// DefaultThreadDepth is the number of reply levels expanded when the
	// caller does not choose.
	DefaultThreadDepth = 3
	// MaxThreadDepth bounds reply expansion.
	MaxThreadDepth = 10
)

// CommentNode is a comment with its mentions and expanded replies.
type CommentNode struct {
	workshop.Comment
	Mentions []workshop.Mention `json:"mentions"`
	Replies  []*CommentNode     `json:"replies"`
}

// CommentThread resolves the live comments of a job card visible to scope.
// depth reply levels are expanded below the top-level comments, one batch
// per level.
func (r *Resolver) CommentThread(ctx context.Context, scope filter.Scope, jobCardID uuid.UUID, depth int) ([]*CommentNode, error) {
	set, err := loadersOf(ctx)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		depth = DefaultThreadDepth
	}
	depth = min(depth, MaxThreadDepth)

	card, err := r.repo.GetJobCard(ctx, scope, jobCardID)
	if err != nil {
		return nil, err
	}
	top, err := set.CommentsByJobCard.Load(ctx, card.ID)
	if err != nil {
		return nil, err
	}

	roots := nodes(top)
	frontier := roots
	all := append([]*CommentNode(nil), roots...)
	for level := 0; level < depth && len(frontier) > 0; level++ {
		replies, err := set.RepliesByComment.LoadMany(ctx, ids(frontier))
		if err != nil {
			return nil, err
		}
		var next []*CommentNode
		for _, n := range frontier {
			n.Replies = nodes(replies[n.ID])
			next = append(next, n.Replies...)
		}
		all = append(all, next...)
		frontier = next
	}

	mentions, err := set.MentionsByComment.LoadMany(ctx, ids(all))
	if err != nil {
		return nil, err
	}
	for _, n := range all {
		n.Mentions = mentions[n.ID]
	}
	return roots, nil
}

func nodes(comments []workshop.Comment) []*CommentNode {
	out := make([]*CommentNode, 0, len(comments))
	for _, c := range comments {
		out = append(out, &CommentNode{Comment: c, Mentions: []workshop.Mention{}, Replies: []*CommentNode{}})
	}
	return out
}

func ids(ns []*CommentNode) []uuid.UUID {
	return lo.Map(ns, func(n *CommentNode, _ int) uuid.UUID { return n.ID })
}
