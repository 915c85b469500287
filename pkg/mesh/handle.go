package mesh

import "fmt"

// VertID is a generation-checked handle to a vertex. The zero value is nil.
type VertID struct{ idx, gen uint32 }

// EdgeID is a generation-checked handle to an edge. The zero value is nil.
type EdgeID struct{ idx, gen uint32 }

// LoopID is a generation-checked handle to a face corner. The zero value is nil.
type LoopID struct{ idx, gen uint32 }

// FaceID is a generation-checked handle to a face. The zero value is nil.
type FaceID struct{ idx, gen uint32 }

// IsNil reports whether the handle was never assigned.
func (h VertID) IsNil() bool { return h.gen == 0 }

// Index returns the arena slot; slots are reused after the element is killed.
func (h VertID) Index() int { return int(h.idx) }

func (h VertID) String() string { return fmt.Sprintf("v%d.%d", h.idx, h.gen) }

// IsNil reports whether the handle was never assigned.
func (h EdgeID) IsNil() bool { return h.gen == 0 }

// Index returns the arena slot.
func (h EdgeID) Index() int { return int(h.idx) }

func (h EdgeID) String() string { return fmt.Sprintf("e%d.%d", h.idx, h.gen) }

// IsNil reports whether the handle was never assigned.
func (h LoopID) IsNil() bool { return h.gen == 0 }

func (h LoopID) String() string { return fmt.Sprintf("l%d.%d", h.idx, h.gen) }

// IsNil reports whether the handle was never assigned.
func (h FaceID) IsNil() bool { return h.gen == 0 }

// Index returns the arena slot.
func (h FaceID) Index() int { return int(h.idx) }

func (h FaceID) String() string { return fmt.Sprintf("f%d.%d", h.idx, h.gen) }

// pool is an arena with free-list slot reuse. Generations start at 1 and are
// bumped on release so stale handles never resolve.
type pool[T any] struct {
	items []*T
	gens  []uint32
	free  []uint32
	count int
}

func (p *pool[T]) alloc() (uint32, uint32, *T) {
	item := new(T)
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = uint32(len(p.items))
		p.items = append(p.items, nil)
		p.gens = append(p.gens, 1)
	}
	p.items[idx] = item
	p.count++
	return idx, p.gens[idx], item
}

func (p *pool[T]) get(idx, gen uint32) *T {
	if gen == 0 || int(idx) >= len(p.items) || p.gens[idx] != gen {
		return nil
	}
	return p.items[idx]
}

func (p *pool[T]) release(idx uint32) {
	p.items[idx] = nil
	p.gens[idx]++
	if p.gens[idx] == 0 {
		p.gens[idx] = 1
	}
	p.free = append(p.free, idx)
	p.count--
}

// each calls fn for every live slot in index order.
func (p *pool[T]) each(fn func(idx, gen uint32) bool) {
	for i, it := range p.items {
		if it == nil {
			continue
		}
		if !fn(uint32(i), p.gens[i]) {
			return
		}
	}
}
