package attr

import (
	"encoding/binary"
	"math"
)

// Ops is the per-layer strategy used to manage the bytes of one element.
// Each call addresses exactly one layer slice inside a block.
type Ops interface {
	Copy(src, dst []byte)
	Free(data []byte)
	Interpolate(srcs [][]byte, weights []float64, dst []byte)
	Default(dst []byte)
}

// MathOps is implemented by layers that support arithmetic.
type MathOps interface {
	Ops
	Equal(a, b []byte) bool
	Add(dst, src []byte)
	Multiply(dst []byte, f float64)
	InitMinMax(min, max []byte)
	DoMinMax(data, min, max []byte)
}

func getF32(b []byte, i int) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
}

func putF32(b []byte, i int, v float64) {
	binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(v)))
}

// floatOps handles n packed float32 components.
type floatOps struct {
	n   int
	def float64
}

func (o floatOps) Copy(src, dst []byte) { copy(dst[:o.n*4], src[:o.n*4]) }

func (o floatOps) Free(data []byte) {
	for i := range data[:o.n*4] {
		data[i] = 0
	}
}

func (o floatOps) Interpolate(srcs [][]byte, weights []float64, dst []byte) {
	for c := 0; c < o.n; c++ {
		var sum float64
		for i, s := range srcs {
			sum += getF32(s, c) * weights[i]
		}
		putF32(dst, c, sum)
	}
}

func (o floatOps) Default(dst []byte) {
	for c := 0; c < o.n; c++ {
		putF32(dst, c, o.def)
	}
}

func (o floatOps) Equal(a, b []byte) bool {
	for c := 0; c < o.n; c++ {
		if math.Abs(getF32(a, c)-getF32(b, c)) > 1e-6 {
			return false
		}
	}
	return true
}

func (o floatOps) Add(dst, src []byte) {
	for c := 0; c < o.n; c++ {
		putF32(dst, c, getF32(dst, c)+getF32(src, c))
	}
}

func (o floatOps) Multiply(dst []byte, f float64) {
	for c := 0; c < o.n; c++ {
		putF32(dst, c, getF32(dst, c)*f)
	}
}

func (o floatOps) InitMinMax(min, max []byte) {
	for c := 0; c < o.n; c++ {
		putF32(min, c, math.MaxFloat32)
		putF32(max, c, -math.MaxFloat32)
	}
}

func (o floatOps) DoMinMax(data, min, max []byte) {
	for c := 0; c < o.n; c++ {
		v := getF32(data, c)
		putF32(min, c, math.Min(getF32(min, c), v))
		putF32(max, c, math.Max(getF32(max, c), v))
	}
}

// intOps handles a single int32; interpolation picks the heaviest source.
type intOps struct{}

func (intOps) Copy(src, dst []byte) { copy(dst[:4], src[:4]) }

func (intOps) Free(data []byte) { binary.LittleEndian.PutUint32(data, 0) }

func (intOps) Interpolate(srcs [][]byte, weights []float64, dst []byte) {
	best := -1
	for i := range srcs {
		if best < 0 || weights[i] > weights[best] {
			best = i
		}
	}
	if best >= 0 {
		copy(dst[:4], srcs[best][:4])
	}
}

func (intOps) Default(dst []byte) { binary.LittleEndian.PutUint32(dst, 0) }
