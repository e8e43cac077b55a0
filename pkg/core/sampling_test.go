package core

import (
	"math"
	"testing"
)

func TestCoordinateSystemOrthonormal(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(1, 0, 0),
		NewVec3(0, 0, 1),
		NewVec3(1, 1, 1).Normalize(),
	}
	for _, n := range normals {
		tangent, bitangent := CoordinateSystem(n)
		for _, v := range []Vec3{tangent, bitangent} {
			if math.Abs(v.Length()-1) > 1e-9 {
				t.Errorf("normal %v: basis vector %v not unit length", n, v)
			}
		}
		if math.Abs(tangent.Dot(n)) > 1e-9 {
			t.Errorf("normal %v: tangent %v not orthogonal to normal", n, tangent)
		}
		if math.Abs(bitangent.Dot(n)) > 1e-9 {
			t.Errorf("normal %v: bitangent %v not orthogonal to normal", n, bitangent)
		}
		if math.Abs(tangent.Dot(bitangent)) > 1e-9 {
			t.Errorf("normal %v: tangent/bitangent not orthogonal", n)
		}
	}
}

func TestSampleCosineHemisphereStaysInHemisphere(t *testing.T) {
	normal := NewVec3(0, 1, 0)
	samples := []Vec2{
		NewVec2(0, 0), NewVec2(0.25, 0.5), NewVec2(0.9, 0.99), NewVec2(0.5, 0.001),
	}
	for _, s := range samples {
		d := SampleCosineHemisphere(normal, s)
		if math.Abs(d.Length()-1) > 1e-9 {
			t.Errorf("sample %v: direction %v not unit length", s, d)
		}
		if d.Dot(normal) < -1e-9 {
			t.Errorf("sample %v: direction %v below the hemisphere", s, d)
		}
	}
}

func TestSampleUniformSphereUnitLength(t *testing.T) {
	for _, s := range []Vec2{NewVec2(0, 0), NewVec2(0.3, 0.7), NewVec2(1, 1)} {
		d := SampleUniformSphere(s)
		if math.Abs(d.Length()-1) > 1e-9 {
			t.Errorf("sample %v: direction %v not unit length", s, d)
		}
	}
}

func TestSamplePointInUnitDiskStaysInDisk(t *testing.T) {
	for _, s := range []Vec2{NewVec2(0, 0), NewVec2(0.25, 0.75), NewVec2(1, 0), NewVec2(0.5, 0.5)} {
		p := SamplePointInUnitDisk(s)
		if p.Length2() > 1+1e-9 {
			t.Errorf("sample %v: point %v outside the unit disk", s, p)
		}
	}
}

func TestPowerHeuristicSymmetricWhenEqual(t *testing.T) {
	w := PowerHeuristic(1, 0.5, 1, 0.5)
	if math.Abs(w-0.5) > 1e-9 {
		t.Errorf("equal pdfs should split weight evenly, got %v", w)
	}
}

func TestPowerHeuristicFavorsLargerPdf(t *testing.T) {
	w := PowerHeuristic(1, 0.9, 1, 0.1)
	if w <= 0.5 {
		t.Errorf("strategy with larger pdf should get more than half the weight, got %v", w)
	}
}

func TestPowerHeuristicBothZero(t *testing.T) {
	if w := PowerHeuristic(1, 0, 1, 0); w != 0 {
		t.Errorf("both pdfs zero should give weight 0, got %v", w)
	}
}

func TestPowerHeuristicWeightsSumToOne(t *testing.T) {
	a := PowerHeuristic(1, 0.3, 1, 0.7)
	b := PowerHeuristic(1, 0.7, 1, 0.3)
	if math.Abs(a+b-1) > 1e-9 {
		t.Errorf("complementary weights should sum to 1, got %v + %v", a, b)
	}
}
