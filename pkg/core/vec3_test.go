package core

import (
	"math"
	"testing"
)

func vecClose(t *testing.T, got, want Vec3, tol float64) {
	t.Helper()
	if math.Abs(got.X-want.X) > tol || math.Abs(got.Y-want.Y) > tol || math.Abs(got.Z-want.Z) > tol {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestVec3Algebra(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	vecClose(t, a.Add(b), NewVec3(5, -3, 9), 1e-9)
	vecClose(t, a.Subtract(b), NewVec3(-3, 7, -3), 1e-9)
	if got := a.Dot(b); math.Abs(got-(4-10+18)) > 1e-9 {
		t.Errorf("Dot = %v, want %v", got, 4-10+18)
	}
}

func TestVec3CrossOrthogonal(t *testing.T) {
	a := NewVec3(1, 0, 0)
	b := NewVec3(0, 1, 0)
	c := a.Cross(b)
	vecClose(t, c, NewVec3(0, 0, 1), 1e-9)
	if math.Abs(c.Dot(a)) > 1e-9 || math.Abs(c.Dot(b)) > 1e-9 {
		t.Errorf("cross product not orthogonal to inputs: %v", c)
	}
}

func TestVec3NormalizeUnitLength(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	if math.Abs(v.Length()-1) > 1e-9 {
		t.Errorf("Length = %v, want 1", v.Length())
	}
}

func TestVec3AbsDot(t *testing.T) {
	a := NewVec3(0, 1, 0)
	b := NewVec3(0, -1, 0)
	if got := a.AbsDot(b); math.Abs(got-1) > 1e-9 {
		t.Errorf("AbsDot = %v, want 1", got)
	}
}

func TestVec3IsBlack(t *testing.T) {
	if !(Vec3{}).IsBlack() {
		t.Error("zero vector should be black")
	}
	if NewVec3(0, 0.001, 0).IsBlack() {
		t.Error("nonzero vector should not be black")
	}
}

func TestVec3ClampRange(t *testing.T) {
	v := NewVec3(-1, 0.5, 2).Clamp(0, 1)
	vecClose(t, v, NewVec3(0, 0.5, 1), 1e-9)
}

func TestVec3GammaCorrectIdentityAtOne(t *testing.T) {
	v := NewVec3(1, 1, 1).GammaCorrect(2.2)
	vecClose(t, v, NewVec3(1, 1, 1), 1e-9)
}

func TestVec3ReflectPreservesLength(t *testing.T) {
	v := NewVec3(1, -1, 0).Normalize()
	n := NewVec3(0, 1, 0)
	r := v.Reflect(n)
	if math.Abs(r.Length()-1) > 1e-9 {
		t.Errorf("reflected vector length = %v, want 1", r.Length())
	}
}
