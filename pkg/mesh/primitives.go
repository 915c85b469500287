package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	smath "github.com/Faultbox/sculptmesh/pkg/math"
)

// FromTriangles builds a mesh from indexed triangles and computes normals.
func FromTriangles(co []r3.Vec, tris [][3]int) (*Mesh, error) {
	m := New()
	verts := make([]VertID, len(co))
	for i, p := range co {
		verts[i] = m.AddVert(p, VertID{})
	}
	for i, t := range tris {
		for _, idx := range t {
			if idx < 0 || idx >= len(verts) {
				return nil, fmt.Errorf("triangle %d index %d: %w", i, idx, ErrInvalidHandle)
			}
		}
		if _, err := m.AddFace([]VertID{verts[t[0]], verts[t[1]], verts[t[2]]}, FaceID{}, true); err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, err)
		}
	}
	m.UpdateNormals()
	return m, nil
}

// NewGrid builds a flat nx by ny grid of size w by h in the XY plane,
// two triangles per cell.
func NewGrid(nx, ny int, w, h float64) *Mesh {
	co := make([]r3.Vec, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			co = append(co, r3.Vec{X: w * float64(i) / float64(nx), Y: h * float64(j) / float64(ny)})
		}
	}
	idx := func(i, j int) int { return j*(nx+1) + i }
	tris := make([][3]int, 0, nx*ny*2)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b, c, d := idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)
			tris = append(tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	m, _ := FromTriangles(co, tris)
	return m
}

// NewStrip builds a row of n equilateral triangles with the given edge length.
func NewStrip(n int, edge float64) *Mesh {
	h := edge * math.Sqrt(3) / 2
	bottom := (n + 2) / 2
	top := n + 2 - bottom
	co := make([]r3.Vec, 0, n+2)
	for i := 0; i < bottom; i++ {
		co = append(co, r3.Vec{X: edge * float64(i)})
	}
	for i := 0; i < top; i++ {
		co = append(co, r3.Vec{X: edge*float64(i) + edge/2, Y: h})
	}
	tris := make([][3]int, 0, n)
	for k := 0; k < n; k++ {
		i := k / 2
		if k%2 == 0 {
			tris = append(tris, [3]int{i, i + 1, bottom + i})
		} else {
			tris = append(tris, [3]int{i + 1, bottom + i + 1, bottom + i})
		}
	}
	m, _ := FromTriangles(co, tris)
	return m
}

// NewIcosphere builds a closed icosphere with the given subdivision level.
func NewIcosphere(subdiv int, radius float64) *Mesh {
	t := (1 + math.Sqrt(5)) / 2
	co := []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	for i := range co {
		co[i] = r3.Scale(radius, smath.Normalize(co[i]))
	}
	tris := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for s := 0; s < subdiv; s++ {
		mids := make(map[[2]int]int)
		mid := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if i, ok := mids[key]; ok {
				return i
			}
			co = append(co, r3.Scale(radius, smath.Normalize(smath.Mid(co[a], co[b]))))
			mids[key] = len(co) - 1
			return len(co) - 1
		}
		next := make([][3]int, 0, len(tris)*4)
		for _, tri := range tris {
			a, b, c := mid(tri[0], tri[1]), mid(tri[1], tri[2]), mid(tri[2], tri[0])
			next = append(next,
				[3]int{tri[0], a, c}, [3]int{tri[1], b, a},
				[3]int{tri[2], c, b}, [3]int{a, b, c})
		}
		tris = next
	}

	m, _ := FromTriangles(co, tris)
	return m
}
