package pbvh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
	"github.com/Faultbox/sculptmesh/pkg/mesh"
)

// Hit describes a ray hit against the tree.
type Hit struct {
	Leaf   int
	Face   mesh.FaceID
	Vert   mesh.VertID // corner closest to the hit point
	Depth  float64
	Normal r3.Vec
}

// SaveOrig snapshots the vertex positions and visible triangles of leaf idx
// for raycasting against pre-stroke geometry. With useOriginal, positions
// come from orig where it knows the vertex. An existing snapshot is kept.
func (t *Tree) SaveOrig(idx int, orig OrigLookup, useOriginal bool) {
	m := t.mesh
	n := t.nodes[idx]
	if n.HasOrig() {
		return
	}

	total := n.UniqueVerts.Len() + n.OtherVerts.Len()
	n.origCo = make([]r3.Vec, 0, total)
	n.origVerts = make([]mesh.VertID, 0, total)
	index := make(map[mesh.VertID]int32, total)
	add := func(v mesh.VertID) {
		co := m.Vert(v).Co
		if useOriginal && orig != nil {
			if oc, ok := orig.OriginalCo(v); ok {
				co = oc
			}
		}
		index[v] = int32(len(n.origCo))
		n.origCo = append(n.origCo, co)
		n.origVerts = append(n.origVerts, v)
	}
	for _, v := range n.UniqueVerts.Items() {
		add(v)
	}
	for _, v := range n.OtherVerts.Items() {
		add(v)
	}

	n.origTris = make([][3]int32, 0, n.Faces.Len())
	n.origFaces = make([]mesh.FaceID, 0, n.Faces.Len())
	for _, f := range n.Faces.Items() {
		if m.Face(f).Flag&mesh.FlagHidden != 0 {
			continue
		}
		a, b, c := m.TriVerts(f)
		n.origTris = append(n.origTris, [3]int32{index[a], index[b], index[c]})
		n.origFaces = append(n.origFaces, f)
	}
}

// DropOrig discards every original snapshot.
func (t *Tree) DropOrig() {
	for _, n := range t.nodes {
		n.dropOrig()
	}
}

// FinishTopologyPass clears the topology request of every leaf and
// refreshes the original snapshot of leaves whose topology changed.
func (t *Tree) FinishTopologyPass(orig OrigLookup) {
	for i, n := range t.nodes {
		if !n.IsLeaf() || n.Flag&FlagDelete != 0 {
			continue
		}
		n.Flag &^= FlagUpdateTopology
		if n.Flag&FlagTopologyUpdated == 0 {
			continue
		}
		n.Flag &^= FlagTopologyUpdated
		if n.HasOrig() {
			n.dropOrig()
			t.SaveOrig(i, orig, true)
		}
	}
}

func (t *Tree) rayLeaves(ray smath.Ray, useOriginal bool) []int {
	return t.SearchLeaves(func(n *Node) bool {
		b := n.Bounds
		if useOriginal {
			b = n.OrigBounds
		}
		_, hit := ray.IntersectBounds(b)
		return hit && n.Flag&FlagFullyHidden == 0
	})
}

// Raycast returns the closest visible triangle hit by ray. With
// useOriginal, leaves that hold a snapshot are tested against it.
func (t *Tree) Raycast(ray smath.Ray, useOriginal bool) (Hit, bool) {
	m := t.mesh
	best := Hit{Depth: math.Inf(1)}
	found := false

	consider := func(leaf int, f mesh.FaceID, verts [3]mesh.VertID, co [3]r3.Vec) {
		d, ok := ray.IntersectTri(co[0], co[1], co[2])
		if !ok || d >= best.Depth {
			return
		}
		found = true
		p := ray.At(d)
		j := 0
		for k := 1; k < 3; k++ {
			if smath.DistSq(p, co[k]) < smath.DistSq(p, co[j]) {
				j = k
			}
		}
		best = Hit{
			Leaf:   leaf,
			Face:   f,
			Vert:   verts[j],
			Depth:  d,
			Normal: smath.TriNormal(co[0], co[1], co[2]),
		}
	}

	for _, i := range t.rayLeaves(ray, useOriginal) {
		n := t.nodes[i]
		if useOriginal && n.HasOrig() {
			for k, tri := range n.origTris {
				verts := [3]mesh.VertID{n.origVerts[tri[0]], n.origVerts[tri[1]], n.origVerts[tri[2]]}
				co := [3]r3.Vec{n.origCo[tri[0]], n.origCo[tri[1]], n.origCo[tri[2]]}
				consider(i, n.origFaces[k], verts, co)
			}
			continue
		}
		for _, f := range n.Faces.Items() {
			if m.Face(f).Flag&mesh.FlagHidden != 0 {
				continue
			}
			a, b, c := m.TriVerts(f)
			consider(i, f, [3]mesh.VertID{a, b, c}, [3]r3.Vec{m.Vert(a).Co, m.Vert(b).Co, m.Vert(c).Co})
		}
	}
	return best, found
}

// RaycastDetail returns the longest edge of the closest visible triangle
// hit by ray.
func (t *Tree) RaycastDetail(ray smath.Ray) (float64, bool) {
	hit, ok := t.Raycast(ray, false)
	if !ok || hit.Face.IsNil() {
		return 0, false
	}
	longest := 0.0
	for _, e := range t.mesh.FaceEdges(hit.Face) {
		longest = math.Max(longest, t.mesh.EdgeLenSq(e))
	}
	return math.Sqrt(longest), true
}

// FindNearestToRay returns the depth and squared distance of the visible
// triangle closest to ray. Leaf boxes are not used for pruning since the
// closest triangle need not be hit.
func (t *Tree) FindNearestToRay(ray smath.Ray, useOriginal bool) (depth, distSq float64, ok bool) {
	m := t.mesh
	depth, distSq = math.Inf(1), math.Inf(1)

	consider := func(a, b, c r3.Vec) {
		if d, hit := ray.IntersectTri(a, b, c); hit {
			if distSq > 0 || d < depth {
				depth, distSq, ok = d, 0, true
			}
			return
		}
		for _, e := range [3][2]r3.Vec{{a, b}, {b, c}, {c, a}} {
			ds, d := ray.DistSqToSegment(e[0], e[1])
			if ds < distSq || (ds == distSq && d < depth) {
				depth, distSq, ok = d, ds, true
			}
		}
	}

	for _, i := range t.Leaves() {
		n := t.nodes[i]
		if n.Flag&FlagFullyHidden != 0 {
			continue
		}
		if useOriginal && n.HasOrig() {
			for _, tri := range n.origTris {
				consider(n.origCo[tri[0]], n.origCo[tri[1]], n.origCo[tri[2]])
			}
			continue
		}
		for _, f := range n.Faces.Items() {
			if m.Face(f).Flag&mesh.FlagHidden != 0 {
				continue
			}
			a, b, c := m.TriVerts(f)
			consider(m.Vert(a).Co, m.Vert(b).Co, m.Vert(c).Co)
		}
	}
	return depth, distSq, ok
}
