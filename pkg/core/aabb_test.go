package core

import (
	"math"
	"testing"
)

func TestAABBFromPointsBoundsAllPoints(t *testing.T) {
	pts := []Vec3{NewVec3(-1, 2, 0), NewVec3(3, -4, 1), NewVec3(0, 0, 5)}
	box := NewAABBFromPoints(pts...)
	for _, p := range pts {
		if p.X < box.Min.X || p.X > box.Max.X ||
			p.Y < box.Min.Y || p.Y > box.Max.Y ||
			p.Z < box.Min.Z || p.Z > box.Max.Z {
			t.Errorf("point %v outside bounding box %v", p, box)
		}
	}
}

func TestAABBBoundingSphereContainsCorners(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(0, 0, 0), NewVec3(2, 2, 2))
	center, radius := box.BoundingSphere()
	corners := []Vec3{
		NewVec3(0, 0, 0), NewVec3(2, 0, 0), NewVec3(0, 2, 0), NewVec3(0, 0, 2),
		NewVec3(2, 2, 0), NewVec3(2, 0, 2), NewVec3(0, 2, 2), NewVec3(2, 2, 2),
	}
	for _, c := range corners {
		if d := c.Subtract(center).Length(); d > radius+1e-9 {
			t.Errorf("corner %v at distance %v exceeds bounding radius %v", c, d, radius)
		}
	}
}

func TestAABBBoundingSphereMinRadius(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(1, 1, 1))
	_, radius := box.BoundingSphere()
	if radius < 1e-3-1e-12 {
		t.Errorf("degenerate point box got radius %v below the clamp floor", radius)
	}
}

func TestAABBHitMissesBehindRay(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))
	ray := NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, -1))
	if box.Hit(ray, 1e-4, math.Inf(1)) {
		t.Error("ray pointing away from the box should not hit it")
	}
}

func TestAABBHitThroughCenter(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))
	ray := NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, 1))
	if !box.Hit(ray, 1e-4, math.Inf(1)) {
		t.Error("ray through the box center should hit it")
	}
}

func TestAABBUnionContainsBoth(t *testing.T) {
	a := NewAABBFromPoints(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	b := NewAABBFromPoints(NewVec3(2, 2, 2), NewVec3(3, 3, 3))
	u := a.Union(b)
	if u.Min != (NewVec3(0, 0, 0)) || u.Max != (NewVec3(3, 3, 3)) {
		t.Errorf("union = %v, want min (0,0,0) max (3,3,3)", u)
	}
}
