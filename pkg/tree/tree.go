// Package tree builds the parent to children relation from (pid, ppid) pairs
// and walks it for termination. A Tree is a pure function of the pairs it was
// built from; callers build a fresh one per request.
package tree

import "errors"

// DefaultLimit bounds how many nodes a single traversal may visit.
const DefaultLimit = 1 << 22

// ErrLimitExceeded is returned when a traversal visits more than the limit.
var ErrLimitExceeded = errors.New("tree: node limit exceeded")

// Pair is one process as seen by the tree builder. PPID is -1 when unknown.
type Pair struct {
	PID  int
	PPID int
}

// Tree maps every pid to its direct children in input order.
type Tree struct {
	children map[int][]int
	limit    int
}

type Option func(*Tree)

// WithLimit sets the traversal node cap. Values <= 0 keep DefaultLimit.
func WithLimit(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.limit = n
		}
	}
}

// New builds the adjacency. Only pairs with pid > 1 and ppid >= 0 form an
// edge, and a pid listed twice keeps its first parent.
func New(pairs []Pair, opts ...Option) *Tree {
	t := &Tree{children: make(map[int][]int), limit: DefaultLimit}
	for _, opt := range opts {
		opt(t)
	}
	seen := make(map[int]struct{}, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p.PID]; dup {
			continue
		}
		seen[p.PID] = struct{}{}
		if p.PID > 1 && p.PPID >= 0 {
			t.children[p.PPID] = append(t.children[p.PPID], p.PID)
		}
	}
	return t
}

// Children returns the direct children of pid.
func (t *Tree) Children(pid int) []int {
	return append([]int(nil), t.children[pid]...)
}

// CountDescendants returns the size of the set reachable from root,
// root included. It returns 0 for root <= 1. Cycles are visited once.
func (t *Tree) CountDescendants(root int) int {
	if root <= 1 {
		return 0
	}
	visited := map[int]struct{}{root: {}}
	stack := []int{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range t.children[n] {
			if c <= 1 {
				continue
			}
			if _, ok := visited[c]; ok {
				continue
			}
			visited[c] = struct{}{}
			stack = append(stack, c)
		}
	}
	return len(visited)
}

// PostorderTerminationOrder returns every pid reachable from root with each
// child ahead of its parent; root is last. Pids <= 1 are neither expanded
// nor emitted, and root <= 1 yields nil.
func (t *Tree) PostorderTerminationOrder(root int) ([]int, error) {
	if root <= 1 {
		return nil, nil
	}
	visited := map[int]struct{}{root: {}}
	stack := []int{root}
	var out []int
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		if len(out) > t.limit {
			return nil, ErrLimitExceeded
		}
		for _, c := range t.children[n] {
			if c <= 1 {
				continue
			}
			if _, ok := visited[c]; ok {
				continue
			}
			visited[c] = struct{}{}
			stack = append(stack, c)
		}
	}
	// out is a preorder with parents first; reversed, children come first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
