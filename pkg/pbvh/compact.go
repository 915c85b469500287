package pbvh

import "go.uber.org/zap"

// Compact removes nodes flagged for deletion, remaps child and parent
// indices and restamps the leaf index of every owned face and vertex.
// It returns the number of removed nodes.
func (t *Tree) Compact() int {
	m := t.mesh
	remap := make([]int, len(t.nodes))
	live := make([]*Node, 0, len(t.nodes))
	for i, n := range t.nodes {
		if n.Flag&FlagDelete != 0 {
			remap[i] = -1
			continue
		}
		remap[i] = len(live)
		live = append(live, n)
	}
	removed := len(t.nodes) - len(live)
	if removed == 0 {
		return 0
	}

	for i, n := range live {
		if n.Parent >= 0 {
			n.Parent = remap[n.Parent]
		}
		if !n.IsLeaf() {
			n.Children = remap[n.Children]
			continue
		}
		leaf := int32(i)
		for _, f := range n.Faces.Items() {
			m.Face(f).Leaf = leaf
		}
		for _, v := range n.UniqueVerts.Items() {
			m.Vert(v).Leaf = leaf
		}
	}
	t.nodes = live

	nodesGauge.Set(float64(len(t.nodes)))
	t.logger.Debug("tree compacted", zap.Int("removed", removed), zap.Int("nodes", len(t.nodes)))
	return removed
}
