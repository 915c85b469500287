package pbvh

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// subtreeFaces returns the face total below every node.
func (t *Tree) subtreeFaces() []int {
	totals := make([]int, len(t.nodes))
	// children always sit at higher indices than their parent
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		if n.Flag&FlagDelete != 0 {
			continue
		}
		if n.IsLeaf() {
			totals[i] = n.Faces.Len()
			continue
		}
		totals[i] = totals[n.Children] + totals[n.Children+1]
	}
	return totals
}

func (t *Tree) descendantLeaves(idx int) []int {
	var out []int
	stack := []int{idx}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[i]
		if n.IsLeaf() {
			out = append(out, i)
			continue
		}
		stack = append(stack, n.Children, n.Children+1)
	}
	return out
}

// Join collapses every highest subtree holding fewer than half the leaf
// limit faces into a single leaf. Descendants are flagged for deletion and
// removed by Compact. It returns the number of subtrees joined.
func (t *Tree) Join() int {
	if len(t.nodes) == 0 {
		return 0
	}
	totals := t.subtreeFaces()
	threshold := t.opts.LeafLimit / 2

	joined := 0
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[i]
		if n.IsLeaf() || n.Flag&FlagDelete != 0 {
			continue
		}
		if totals[i] >= threshold {
			stack = append(stack, n.Children+1, n.Children)
			continue
		}
		t.joinSubtree(i)
		joined++
	}

	if joined > 0 {
		leafJoinsTotal.Add(float64(joined))
		t.logger.Debug("subtrees joined", zap.Int("count", joined))
	}
	return joined
}

func (t *Tree) joinSubtree(idx int) {
	m := t.mesh
	leaves := t.descendantLeaves(idx)

	faces := lo.FlatMap(leaves, func(i int, _ int) []mesh.FaceID {
		return t.nodes[i].Faces.Slice()
	})
	// other-set entries of one child may be unique in a sibling, so
	// ownership is derived again from the merged faces
	for _, i := range leaves {
		for _, v := range t.nodes[i].UniqueVerts.Items() {
			m.Vert(v).Leaf = mesh.NoLeaf
		}
	}

	for _, i := range t.subtreeNodes(idx) {
		if i == idx {
			continue
		}
		d := t.nodes[i]
		d.clearSets()
		d.dropOrig()
		d.Flag = FlagDelete
	}

	n := t.nodes[idx]
	n.clearSets()
	n.dropOrig()
	n.Children = 0
	n.Flag = FlagLeaf
	for _, f := range faces {
		n.Faces.Add(f)
	}
	t.finalizeLeaf(idx)
}

func (t *Tree) subtreeNodes(idx int) []int {
	out := []int{idx}
	for k := 0; k < len(out); k++ {
		n := t.nodes[out[k]]
		if !n.IsLeaf() && n.Children > 0 {
			out = append(out, n.Children, n.Children+1)
		}
	}
	return out
}
