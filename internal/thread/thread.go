// Package thread turns the flat comment list of a post into reply trees.
package thread

import "github.com/ClubHub/club-service/internal/model"

// Build arranges comments into a forest. Input is expected in creation order
// and that order is kept both in the root list and in every Replies list.
//
// A comment becomes a root when its parent is absent from the input, belongs to
// another post, or when attaching it would close a parent cycle. Every distinct
// comment id appears exactly once in the result; repeated ids keep the first
// occurrence.
func Build(comments []*model.FullComment) []*model.CommentNode {
	nodes := make(map[int64]*model.CommentNode, len(comments))
	ordered := make([]*model.CommentNode, 0, len(comments))
	for _, c := range comments {
		if c == nil {
			continue
		}
		if _, exists := nodes[c.Comment.ID]; exists {
			continue
		}

		node := &model.CommentNode{
			FullComment: *c,
			Replies:     []*model.CommentNode{},
		}
		nodes[c.Comment.ID] = node
		ordered = append(ordered, node)
	}

	roots := make([]*model.CommentNode, 0)
	detached := make(map[int64]bool)
	for _, node := range ordered {
		parent := parentOf(nodes, node)
		if parent == nil || closesCycle(nodes, detached, node, parent) {
			detached[node.Comment.ID] = true
			roots = append(roots, node)
			continue
		}

		parent.Replies = append(parent.Replies, node)
	}

	return roots
}

func parentOf(nodes map[int64]*model.CommentNode, node *model.CommentNode) *model.CommentNode {
	if node.Comment.ParentID == nil {
		return nil
	}

	parent, exists := nodes[*node.Comment.ParentID]
	if !exists || parent.Comment.PostID != node.Comment.PostID {
		return nil
	}

	return parent
}

// closesCycle walks the ancestor chain starting at parent. Detached nodes are
// roots, so the chain ends there.
func closesCycle(nodes map[int64]*model.CommentNode, detached map[int64]bool, node, parent *model.CommentNode) bool {
	visited := make(map[int64]bool)
	for cur := parent; cur != nil; cur = parentOf(nodes, cur) {
		if cur == node {
			return true
		}
		if detached[cur.Comment.ID] || visited[cur.Comment.ID] {
			return false
		}
		visited[cur.Comment.ID] = true
	}

	return false
}

// Flatten returns the nodes in pre-order: each root, then its replies recursively.
func Flatten(roots []*model.CommentNode) []*model.CommentNode {
	var out []*model.CommentNode
	var walk func([]*model.CommentNode)
	walk = func(nodes []*model.CommentNode) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.Replies)
		}
	}
	walk(roots)

	return out
}

func Count(roots []*model.CommentNode) int {
	return len(Flatten(roots))
}

// Depth is the number of levels in the forest; 0 for an empty one.
func Depth(roots []*model.CommentNode) int {
	max := 0
	for _, n := range roots {
		if d := 1 + Depth(n.Replies); d > max {
			max = d
		}
	}

	return max
}
