package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, Layer, Layer, Layer) {
	t.Helper()
	s := NewStore()
	mask, err := s.AddLayer(LayerMask, TypeFloat)
	require.NoError(t, err)
	uv, err := s.AddLayer(LayerUV, TypeFloat2)
	require.NoError(t, err)
	fset, err := s.AddLayer(LayerFaceSet, TypeInt32)
	require.NoError(t, err)
	return s, mask, uv, fset
}

func TestStoreLayout(t *testing.T) {
	s, mask, uv, fset := newTestStore(t)

	assert.Equal(t, 0, mask.Offset)
	assert.Equal(t, 4, uv.Offset)
	assert.Equal(t, 12, fset.Offset)
	assert.Equal(t, 16, s.BlockSize())
	assert.Equal(t, 4, s.Offset(LayerUV))
	assert.Equal(t, -1, s.Offset("missing"))
	assert.True(t, mask.HasMath())
	assert.False(t, fset.HasMath())

	_, err := s.AddLayer(LayerUV, TypeFloat2)
	assert.ErrorIs(t, err, ErrLayerExists)
}

func TestStoreInterpolate(t *testing.T) {
	s, mask, uv, fset := newTestStore(t)

	a := s.Alloc()
	b := s.Alloc()
	SetFloat(a, mask.Offset, 0.2)
	SetFloat(b, mask.Offset, 0.6)
	SetFloat2(a, uv.Offset, [2]float64{0, 0})
	SetFloat2(b, uv.Offset, [2]float64{1, 2})
	SetInt32(a, fset.Offset, 3)
	SetInt32(b, fset.Offset, 7)

	dst := s.Alloc()
	s.Interpolate([]Block{a, b}, []float64{0.25, 0.75}, dst)

	assert.InDelta(t, 0.5, Float(dst, mask.Offset), 1e-6)
	got := Float2(dst, uv.Offset)
	assert.InDelta(t, 0.75, got[0], 1e-6)
	assert.InDelta(t, 1.5, got[1], 1e-6)
	assert.Equal(t, int32(7), Int32(dst, fset.Offset))

	// in place
	s.Interpolate([]Block{a, b}, []float64{0.5, 0.5}, a)
	assert.InDelta(t, 0.4, Float(a, mask.Offset), 1e-6)
}

func TestStoreGrow(t *testing.T) {
	s := NewStore()
	mask, err := s.AddLayer(LayerMask, TypeFloat)
	require.NoError(t, err)

	b := s.Alloc()
	SetFloat(b, mask.Offset, 0.9)

	color, err := s.AddLayer(LayerColor, TypeFloat4)
	require.NoError(t, err)

	b = s.Grow(b)
	require.Len(t, b, s.BlockSize())
	assert.InDelta(t, 0.9, Float(b, mask.Offset), 1e-6)
	assert.Equal(t, [4]float64{1, 1, 1, 1}, Float4(b, color.Offset))
}

func TestStoreBlockTooLarge(t *testing.T) {
	s := NewStore()
	var err error
	for i := 0; err == nil; i++ {
		_, err = s.AddLayer(string(rune('a'+i%26))+string(rune('0'+i/26)), TypeFloat4)
	}
	assert.ErrorIs(t, err, ErrBlockTooLarge)
	assert.LessOrEqual(t, s.BlockSize(), MaxBlockSize)
}

func TestMathOps(t *testing.T) {
	s, mask, _, _ := newTestStore(t)
	m, ok := mask.Ops.(MathOps)
	require.True(t, ok)

	a := s.Alloc()
	b := s.Alloc()
	SetFloat(a, mask.Offset, 0.25)
	SetFloat(b, mask.Offset, 0.5)

	m.Add(a[mask.Offset:mask.Offset+4], b[mask.Offset:mask.Offset+4])
	assert.InDelta(t, 0.75, Float(a, mask.Offset), 1e-6)

	m.Multiply(a[mask.Offset:mask.Offset+4], 2)
	assert.InDelta(t, 1.5, Float(a, mask.Offset), 1e-6)

	lo := make([]byte, 4)
	hi := make([]byte, 4)
	m.InitMinMax(lo, hi)
	m.DoMinMax(a[mask.Offset:], lo, hi)
	m.DoMinMax(b[mask.Offset:], lo, hi)
	assert.InDelta(t, 0.5, Float(lo, 0), 1e-6)
	assert.InDelta(t, 1.5, Float(hi, 0), 1e-6)
	assert.False(t, m.Equal(lo, hi))
}
