package mesh

import (
	"errors"
	"fmt"
)

// Validate walks every adjacency cycle and reports inconsistencies.
// A nil result means the mesh is consistent.
func (m *Mesh) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...))
	}

	for v := range m.Verts() {
		vp := m.Vert(v)
		if vp.e.IsNil() {
			continue
		}
		e := vp.e
		for steps := 0; ; steps++ {
			ep := m.Edge(e)
			if ep == nil {
				fail("vert %v disk references dead edge %v", v, e)
				break
			}
			if ep.V1 != v && ep.V2 != v {
				fail("vert %v disk edge %v does not use it", v, e)
				break
			}
			next := m.disk(e, v).next
			if m.Edge(next) == nil || m.disk(next, v).prev != e {
				fail("vert %v disk links broken at %v", v, e)
				break
			}
			e = next
			if e == vp.e {
				break
			}
			if steps > m.edges.count {
				fail("vert %v disk cycle does not close", v)
				break
			}
		}
	}

	for e := range m.Edges() {
		ep := m.Edge(e)
		if m.Vert(ep.V1) == nil || m.Vert(ep.V2) == nil {
			fail("edge %v uses dead vertex", e)
			continue
		}
		if ep.V1 == ep.V2 {
			fail("edge %v is a self loop", e)
		}
		if ep.l.IsNil() {
			continue
		}
		l := ep.l
		for steps := 0; ; steps++ {
			lp := m.Loop(l)
			if lp == nil {
				fail("edge %v radial references dead loop", e)
				break
			}
			if lp.E != e || (lp.V != ep.V1 && lp.V != ep.V2) {
				fail("edge %v radial loop %v mismatched", e, l)
				break
			}
			if m.Loop(lp.RadialNext) == nil || m.Loop(lp.RadialNext).RadialPrev != l {
				fail("edge %v radial links broken at %v", e, l)
				break
			}
			l = lp.RadialNext
			if l == ep.l {
				break
			}
			if steps > m.loops.count {
				fail("edge %v radial cycle does not close", e)
				break
			}
		}
	}

	for f := range m.Faces() {
		fp := m.Face(f)
		if fp.len < 3 {
			fail("face %v has %d corners", f, fp.len)
			continue
		}
		l := fp.l
		for i := 0; i < fp.len; i++ {
			lp := m.Loop(l)
			if lp == nil || lp.F != f {
				fail("face %v corner %d invalid", f, i)
				break
			}
			np := m.Loop(lp.Next)
			if np == nil || np.Prev != l {
				fail("face %v corner links broken at %d", f, i)
				break
			}
			ep := m.Edge(lp.E)
			if ep == nil || !((ep.V1 == lp.V && ep.V2 == np.V) || (ep.V2 == lp.V && ep.V1 == np.V)) {
				fail("face %v corner %d edge does not join its corners", f, i)
				break
			}
			l = lp.Next
		}
		if l != fp.l {
			fail("face %v corner cycle length differs from %d", f, fp.len)
		}
	}

	return errors.Join(errs...)
}
