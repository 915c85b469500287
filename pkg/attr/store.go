// Package attr implements typed, named per-element attribute layers packed
// into fixed-size byte blocks.
//
// A Store describes the layout of one element domain (vertices, edges,
// corners or faces). Elements own a Block; every layer lives at a stable
// byte offset inside it and is only touched through the layer's Ops.
package attr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxBlockSize bounds the per-element block size of a store.
const MaxBlockSize = 1024

// Well-known layer names.
const (
	LayerMask    = ".paint_mask"
	LayerFaceSet = ".sculpt_face_set"
	LayerUV      = "UVMap"
	LayerColor   = "Color"
)

var (
	ErrBlockTooLarge = errors.New("attribute block too large")
	ErrLayerExists   = errors.New("attribute layer already exists")
	ErrUnknownType   = errors.New("unknown attribute type")
)

// Type identifies the value type stored in a layer.
type Type int

const (
	TypeFloat Type = iota
	TypeFloat2
	TypeFloat4
	TypeInt32
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeFloat2:
		return "float2"
	case TypeFloat4:
		return "float4"
	case TypeInt32:
		return "int32"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Size returns the number of bytes a value of this type occupies.
func (t Type) Size() int {
	switch t {
	case TypeFloat, TypeInt32:
		return 4
	case TypeFloat2:
		return 8
	case TypeFloat4:
		return 16
	default:
		return 0
	}
}

func (t Type) ops(name string) Ops {
	switch t {
	case TypeFloat:
		return floatOps{n: 1}
	case TypeFloat2:
		return floatOps{n: 2}
	case TypeFloat4:
		// colors default to opaque white
		if name == LayerColor {
			return floatOps{n: 4, def: 1}
		}
		return floatOps{n: 4}
	case TypeInt32:
		return intOps{}
	default:
		return nil
	}
}

// Block is the attribute storage of one element.
type Block []byte

// Layer is one named attribute inside a block.
type Layer struct {
	Name   string
	Type   Type
	Offset int
	Ops    Ops
}

// HasMath reports whether the layer supports arithmetic.
func (l Layer) HasMath() bool {
	_, ok := l.Ops.(MathOps)
	return ok
}

func (l Layer) slice(b Block) []byte {
	return b[l.Offset : l.Offset+l.Type.Size()]
}

// Store holds the layer layout of one element domain.
type Store struct {
	layers []Layer
	size   int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Layers returns the layers in offset order.
func (s *Store) Layers() []Layer {
	return s.layers
}

// BlockSize returns the current block size in bytes.
func (s *Store) BlockSize() int {
	return s.size
}

// AddLayer appends a layer. Existing blocks must be passed through Grow.
func (s *Store) AddLayer(name string, typ Type) (Layer, error) {
	return s.AddLayerWithOps(name, typ, typ.ops(name))
}

// AddLayerWithOps appends a layer that uses custom operations.
func (s *Store) AddLayerWithOps(name string, typ Type, ops Ops) (Layer, error) {
	if typ.Size() == 0 || ops == nil {
		return Layer{}, fmt.Errorf("layer %q: %w", name, ErrUnknownType)
	}
	if _, ok := s.Layer(name); ok {
		return Layer{}, fmt.Errorf("layer %q: %w", name, ErrLayerExists)
	}
	if s.size+typ.Size() > MaxBlockSize {
		return Layer{}, fmt.Errorf("layer %q (%d bytes): %w", name, s.size+typ.Size(), ErrBlockTooLarge)
	}
	l := Layer{Name: name, Type: typ, Offset: s.size, Ops: ops}
	s.layers = append(s.layers, l)
	s.size += typ.Size()
	return l, nil
}

// Layer looks up a layer by name.
func (s *Store) Layer(name string) (Layer, bool) {
	for _, l := range s.layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// Offset returns the byte offset of a layer, or -1 when absent.
func (s *Store) Offset(name string) int {
	if l, ok := s.Layer(name); ok {
		return l.Offset
	}
	return -1
}

// Alloc returns a block with every layer at its default value.
func (s *Store) Alloc() Block {
	b := make(Block, s.size)
	for _, l := range s.layers {
		l.Ops.Default(l.slice(b))
	}
	return b
}

// Grow resizes a block allocated before the latest AddLayer calls.
func (s *Store) Grow(b Block) Block {
	if len(b) == s.size {
		return b
	}
	nb := make(Block, s.size)
	copy(nb, b)
	for _, l := range s.layers {
		if l.Offset >= len(b) {
			l.Ops.Default(l.slice(nb))
		}
	}
	return nb
}

// Free releases layer resources held by b.
func (s *Store) Free(b Block) {
	if len(b) < s.size {
		return
	}
	for _, l := range s.layers {
		l.Ops.Free(l.slice(b))
	}
}

// Copy copies every layer from src to dst.
func (s *Store) Copy(src, dst Block) {
	for _, l := range s.layers {
		l.Ops.Copy(l.slice(src), l.slice(dst))
	}
}

// CopyLayer copies a single layer from src to dst.
func (s *Store) CopyLayer(l Layer, src, dst Block) {
	l.Ops.Copy(l.slice(src), l.slice(dst))
}

// Interpolate blends srcs into dst with the given weights.
// dst may alias one of srcs.
func (s *Store) Interpolate(srcs []Block, weights []float64, dst Block) {
	parts := make([][]byte, len(srcs))
	for _, l := range s.layers {
		for i, src := range srcs {
			parts[i] = l.slice(src)
		}
		l.Ops.Interpolate(parts, weights, l.slice(dst))
	}
}

// Float reads a float layer at offset.
func Float(b Block, offset int) float64 {
	return getF32(b[offset:], 0)
}

// SetFloat writes a float layer at offset.
func SetFloat(b Block, offset int, v float64) {
	putF32(b[offset:], 0, v)
}

// Float2 reads a two component layer.
func Float2(b Block, offset int) [2]float64 {
	return [2]float64{getF32(b[offset:], 0), getF32(b[offset:], 1)}
}

// SetFloat2 writes a two component layer.
func SetFloat2(b Block, offset int, v [2]float64) {
	putF32(b[offset:], 0, v[0])
	putF32(b[offset:], 1, v[1])
}

// Float4 reads a four component layer.
func Float4(b Block, offset int) [4]float64 {
	var v [4]float64
	for i := range v {
		v[i] = getF32(b[offset:], i)
	}
	return v
}

// SetFloat4 writes a four component layer.
func SetFloat4(b Block, offset int, v [4]float64) {
	for i := range v {
		putF32(b[offset:], i, v[i])
	}
}

// Int32 reads an int32 layer.
func Int32(b Block, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(b[offset:]))
}

// SetInt32 writes an int32 layer.
func SetInt32(b Block, offset int, v int32) {
	binary.LittleEndian.PutUint32(b[offset:], uint32(v))
}
