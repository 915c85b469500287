package math

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalize(t *testing.T) {
	n := Normalize(r3.Vec{X: 3, Y: 4})
	if !near(r3.Norm(n), 1) {
		t.Errorf("Normalize().Norm() = %v, want 1", r3.Norm(n))
	}
	if got := Normalize(r3.Vec{}); got != (r3.Vec{}) {
		t.Errorf("Normalize(zero) = %v, want zero", got)
	}
}

func TestTriNormal(t *testing.T) {
	got := TriNormal(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	want := r3.Vec{Z: 1}
	if got != want {
		t.Errorf("TriNormal() = %v, want %v", got, want)
	}
	if area := TriArea(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 2}); !near(area, 2) {
		t.Errorf("TriArea() = %v, want 2", area)
	}
}

func TestClosestOnTri(t *testing.T) {
	a := r3.Vec{}
	b := r3.Vec{X: 1}
	c := r3.Vec{Y: 1}

	tests := []struct {
		name string
		p    r3.Vec
		want r3.Vec
	}{
		{"vertex a", r3.Vec{X: -1, Y: -1}, a},
		{"vertex b", r3.Vec{X: 2, Y: -0.5}, b},
		{"vertex c", r3.Vec{X: -0.5, Y: 3}, c},
		{"edge ab", r3.Vec{X: 0.5, Y: -1}, r3.Vec{X: 0.5}},
		{"edge ac", r3.Vec{X: -1, Y: 0.5}, r3.Vec{Y: 0.5}},
		{"edge bc", r3.Vec{X: 1, Y: 1}, r3.Vec{X: 0.5, Y: 0.5}},
		{"interior above", r3.Vec{X: 0.25, Y: 0.25, Z: 5}, r3.Vec{X: 0.25, Y: 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClosestOnTri(tt.p, a, b, c)
			if !near(DistSq(got, tt.want), 0) {
				t.Errorf("ClosestOnTri(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestCircleTouchesTri(t *testing.T) {
	a := r3.Vec{X: 0, Y: 0, Z: 10}
	b := r3.Vec{X: 1, Y: 0, Z: 10}
	c := r3.Vec{X: 0, Y: 1, Z: 10}
	view := r3.Vec{Z: 1}

	if SphereTouchesTri(r3.Vec{}, 1, a, b, c) {
		t.Error("sphere at origin should not reach triangle at z=10")
	}
	if !CircleTouchesTri(r3.Vec{}, 1, view, a, b, c) {
		t.Error("projected circle at origin should reach triangle")
	}
}

func TestMirror(t *testing.T) {
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	if got := Mirror(v, 0); got != (r3.Vec{X: -1, Y: 2, Z: 3}) {
		t.Errorf("Mirror(x) = %v", got)
	}
	if got := Mirror(v, -1); got != v {
		t.Errorf("Mirror(none) = %v, want %v", got, v)
	}
}
