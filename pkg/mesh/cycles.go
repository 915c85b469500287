package mesh

// disk returns the disk link of e on the side of v.
func (m *Mesh) disk(e EdgeID, v VertID) *diskLink {
	ep := m.Edge(e)
	if ep.V1 == v {
		return &ep.d1
	}
	return &ep.d2
}

// diskAppend inserts e at the end of v's disk cycle.
func (m *Mesh) diskAppend(e EdgeID, v VertID) {
	vp := m.Vert(v)
	link := m.disk(e, v)
	if vp.e.IsNil() {
		vp.e = e
		link.next, link.prev = e, e
		return
	}
	first := vp.e
	firstLink := m.disk(first, v)
	last := firstLink.prev
	link.next = first
	link.prev = last
	firstLink.prev = e
	m.disk(last, v).next = e
}

// diskRemove unlinks e from v's disk cycle.
func (m *Mesh) diskRemove(e EdgeID, v VertID) {
	vp := m.Vert(v)
	link := m.disk(e, v)
	next, prev := link.next, link.prev
	if next != e {
		m.disk(prev, v).next = next
		m.disk(next, v).prev = prev
	}
	if vp.e == e {
		if next != e {
			vp.e = next
		} else {
			vp.e = EdgeID{}
		}
	}
	link.next, link.prev = EdgeID{}, EdgeID{}
}

// DiskNext returns the edge after e around v.
func (m *Mesh) DiskNext(e EdgeID, v VertID) EdgeID {
	return m.disk(e, v).next
}

// radialAppend links l into the radial cycle of e.
func (m *Mesh) radialAppend(e EdgeID, l LoopID) {
	ep := m.Edge(e)
	lp := m.Loop(l)
	if ep.l.IsNil() {
		ep.l = l
		lp.RadialNext, lp.RadialPrev = l, l
		return
	}
	first := m.Loop(ep.l)
	lp.RadialPrev = ep.l
	lp.RadialNext = first.RadialNext
	m.Loop(first.RadialNext).RadialPrev = l
	first.RadialNext = l
}

// radialRemove unlinks l from the radial cycle of e.
func (m *Mesh) radialRemove(e EdgeID, l LoopID) {
	ep := m.Edge(e)
	lp := m.Loop(l)
	if lp.RadialNext != l {
		if ep.l == l {
			ep.l = lp.RadialNext
		}
		m.Loop(lp.RadialNext).RadialPrev = lp.RadialPrev
		m.Loop(lp.RadialPrev).RadialNext = lp.RadialNext
	} else if ep.l == l {
		ep.l = LoopID{}
	}
	lp.RadialNext, lp.RadialPrev = LoopID{}, LoopID{}
}
