package tree_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/frogkill/pkg/tree"
)

func indexOf(order []int) map[int]int {
	idx := make(map[int]int, len(order))
	for i, pid := range order {
		idx[pid] = i
	}
	return idx
}

func TestPostorder_Basic(t *testing.T) {
	tr := tree.New([]tree.Pair{{1, 0}, {2, 1}, {3, 2}, {4, 2}})

	order, err := tr.PostorderTerminationOrder(2)
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.ElementsMatch(t, []int{3, 4}, order[:2])
	assert.Equal(t, 2, order[2])
	assert.Equal(t, 3, tr.CountDescendants(2))
}

func TestPostorder_Leaf(t *testing.T) {
	tr := tree.New([]tree.Pair{{2, 1}, {3, 2}})
	order, err := tr.PostorderTerminationOrder(3)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, order)
	assert.Equal(t, 1, tr.CountDescendants(3))
}

func TestPostorder_UnknownRoot(t *testing.T) {
	tr := tree.New(nil)
	order, err := tr.PostorderTerminationOrder(99)
	require.NoError(t, err)
	assert.Equal(t, []int{99}, order)
	assert.Equal(t, 1, tr.CountDescendants(99))
}

func TestPostorder_ProtectedRoot(t *testing.T) {
	tr := tree.New([]tree.Pair{{2, 1}, {3, 0}})
	for _, root := range []int{1, 0, -4} {
		order, err := tr.PostorderTerminationOrder(root)
		require.NoError(t, err)
		assert.Empty(t, order)
		assert.Zero(t, tr.CountDescendants(root))
	}
}

func TestPostorder_ProtectedChildExcluded(t *testing.T) {
	// a bogus pair claiming pid 1 is a child of 5 must not form an edge
	tr := tree.New([]tree.Pair{{5, 1}, {1, 5}, {6, 5}, {0, 5}})
	order, err := tr.PostorderTerminationOrder(5)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 5}, order)
	assert.NotContains(t, tr.Children(5), 1)
}

func TestPostorder_UnknownParent(t *testing.T) {
	tr := tree.New([]tree.Pair{{2, -1}, {3, 2}})
	assert.Empty(t, tr.Children(-1))
	assert.Equal(t, 2, tr.CountDescendants(2))
}

func TestPostorder_DuplicatePIDKeepsFirst(t *testing.T) {
	tr := tree.New([]tree.Pair{{3, 2}, {3, 4}, {2, 1}, {4, 1}})
	assert.Equal(t, []int{3}, tr.Children(2))
	assert.Empty(t, tr.Children(4))
}

func TestPostorder_Cycle(t *testing.T) {
	// corrupt snapshot: 2 -> 3 -> 4 -> 2
	tr := tree.New([]tree.Pair{{3, 2}, {4, 3}, {2, 4}})
	order, err := tr.PostorderTerminationOrder(2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 3, 4}, order)
	assert.Equal(t, 2, order[len(order)-1])
	assert.Equal(t, 3, tr.CountDescendants(2))
}

func TestPostorder_Limit(t *testing.T) {
	pairs := []tree.Pair{{2, 1}}
	for pid := 3; pid < 20; pid++ {
		pairs = append(pairs, tree.Pair{PID: pid, PPID: 2})
	}

	_, err := tree.New(pairs, tree.WithLimit(5)).PostorderTerminationOrder(2)
	assert.ErrorIs(t, err, tree.ErrLimitExceeded)

	order, err := tree.New(pairs, tree.WithLimit(18)).PostorderTerminationOrder(2)
	require.NoError(t, err)
	assert.Len(t, order, 18)
}

func TestPostorder_DeepChain(t *testing.T) {
	const depth = 100000
	pairs := make([]tree.Pair, 0, depth)
	for pid := 2; pid < depth+2; pid++ {
		pairs = append(pairs, tree.Pair{PID: pid, PPID: pid - 1})
	}
	tr := tree.New(pairs)

	order, err := tr.PostorderTerminationOrder(2)
	require.NoError(t, err)
	require.Len(t, order, depth)
	assert.Equal(t, depth+1, order[0])
	assert.Equal(t, 2, order[depth-1])
	assert.Equal(t, depth, tr.CountDescendants(2))
}

func TestPostorder_RandomForests(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		n := 2 + rng.Intn(200)
		pairs := make([]tree.Pair, 0, n)
		parent := make(map[int]int, n)
		for pid := 2; pid < n+2; pid++ {
			// parents are either init, an earlier pid, or occasionally anything
			ppid := rng.Intn(pid)
			if rng.Intn(20) == 0 {
				ppid = 1 + rng.Intn(n+2)
			}
			pairs = append(pairs, tree.Pair{PID: pid, PPID: ppid})
			parent[pid] = ppid
		}
		rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
		tr := tree.New(pairs)
		root := 2 + rng.Intn(n)

		order, err := tr.PostorderTerminationOrder(root)
		require.NoError(t, err)
		assert.Len(t, order, tr.CountDescendants(root))
		assert.Equal(t, root, order[len(order)-1])

		idx := indexOf(order)
		assert.Len(t, idx, len(order), "no duplicates")
		for _, pid := range order {
			assert.Greater(t, pid, 1)
			if pid != root {
				_, ok := idx[parent[pid]]
				assert.True(t, ok, "parent %d of %d reachable", parent[pid], pid)
			}
		}
		if acyclic(parent) {
			for _, pid := range order {
				if pid != root {
					assert.Less(t, idx[pid], idx[parent[pid]], "child %d before parent %d", pid, parent[pid])
				}
			}
		}
	}
}

// acyclic reports whether following parents from any pid terminates.
func acyclic(parent map[int]int) bool {
	for start := range parent {
		seen := map[int]bool{}
		for cur := start; cur > 1; cur = parent[cur] {
			if seen[cur] {
				return false
			}
			seen[cur] = true
			if _, ok := parent[cur]; !ok {
				break
			}
		}
	}
	return true
}
