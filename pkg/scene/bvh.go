package scene

import (
	"sort"

	"github.com/vcmtracer/vcmtracer/pkg/core"
)

// TriangleBVH is the ray-intersection engine named as an external
// collaborator in spec.md §6. It is a concrete realization of that
// narrow interface (Intersect/Occluded) so the rest of the renderer can
// depend on the interface rather than a specific acceleration structure.
// Construction follows the teacher's core.BVH: median split along the
// longest axis with a small leaf threshold, no surface-area heuristic.
type TriangleBVH struct {
	root     *bvhNode
	indices  []int32
	vertices []Vertex
}

type bvhNode struct {
	bounds core.AABB
	left   *bvhNode
	right  *bvhNode
	tris   []int // triangle indices into the owning BVH's indices/vertices, leaf-only
}

const bvhLeafThreshold = 8

// NewTriangleBVH builds a BVH over the triangles described by indices
// (3 per triangle) and vertices.
func NewTriangleBVH(indices []int32, vertices []Vertex) *TriangleBVH {
	triCount := len(indices) / 3
	triIDs := make([]int, triCount)
	for i := range triIDs {
		triIDs[i] = i
	}

	bvh := &TriangleBVH{indices: indices, vertices: vertices}
	if triCount > 0 {
		bvh.root = bvh.build(triIDs)
	}
	return bvh
}

func (bvh *TriangleBVH) triBounds(tri int) core.AABB {
	a, b, c := bvh.triangleVertices(tri)
	return core.NewAABBFromPoints(a.Position, b.Position, c.Position)
}

func (bvh *TriangleBVH) triangleVertices(tri int) (a, b, c Vertex) {
	i0 := bvh.indices[3*tri]
	i1 := bvh.indices[3*tri+1]
	i2 := bvh.indices[3*tri+2]
	return bvh.vertices[i0], bvh.vertices[i1], bvh.vertices[i2]
}

func (bvh *TriangleBVH) build(tris []int) *bvhNode {
	bounds := bvh.triBounds(tris[0])
	for _, t := range tris[1:] {
		bounds = bounds.Union(bvh.triBounds(t))
	}

	if len(tris) <= bvhLeafThreshold {
		return &bvhNode{bounds: bounds, tris: tris}
	}

	axis := bounds.LongestAxis()
	sort.Slice(tris, func(i, j int) bool {
		ci := bvh.triBounds(tris[i]).Center()
		cj := bvh.triBounds(tris[j]).Center()
		switch axis {
		case 0:
			return ci.X < cj.X
		case 1:
			return ci.Y < cj.Y
		default:
			return ci.Z < cj.Z
		}
	})

	mid := len(tris) / 2
	return &bvhNode{
		bounds: bounds,
		left:   bvh.build(tris[:mid]),
		right:  bvh.build(tris[mid:]),
	}
}

// Intersect finds the closest ray/triangle hit in [tMin, tMax], per the
// external ray-intersection engine contract of spec.md §6.
func (bvh *TriangleBVH) Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	if bvh.root == nil {
		return Hit{}, false
	}
	return bvh.intersectNode(bvh.root, ray, tMin, tMax)
}

func (bvh *TriangleBVH) intersectNode(node *bvhNode, ray core.Ray, tMin, tMax float64) (Hit, bool) {
	if !node.bounds.Hit(ray, tMin, tMax) {
		return Hit{}, false
	}

	if node.tris != nil {
		var best Hit
		found := false
		closest := tMax
		for _, tri := range node.tris {
			if h, ok := bvh.intersectTriangle(tri, ray, tMin, closest); ok {
				found = true
				closest = h.T
				best = h
			}
		}
		return best, found
	}

	var best Hit
	found := false
	closest := tMax
	if node.left != nil {
		if h, ok := bvh.intersectNode(node.left, ray, tMin, closest); ok {
			found, closest, best = true, h.T, h
		}
	}
	if node.right != nil {
		if h, ok := bvh.intersectNode(node.right, ray, tMin, closest); ok {
			found, best = true, h
		}
	}
	return best, found
}

// Occluded reports whether any triangle blocks the ray within [tNear, tFar].
func (bvh *TriangleBVH) Occluded(origin, direction core.Vec3, tNear, tFar float64) bool {
	if bvh.root == nil {
		return false
	}
	ray := core.NewRay(origin, direction)
	_, hit := bvh.Intersect(ray, tNear, tFar)
	return hit
}

// intersectTriangle implements the Möller-Trumbore ray/triangle test.
func (bvh *TriangleBVH) intersectTriangle(tri int, ray core.Ray, tMin, tMax float64) (Hit, bool) {
	v0, v1, v2 := bvh.triangleVertices(tri)
	edge1 := v1.Position.Subtract(v0.Position)
	edge2 := v2.Position.Subtract(v0.Position)

	pvec := ray.Direction.Cross(edge2)
	det := edge1.Dot(pvec)
	if det > -1e-12 && det < 1e-12 {
		return Hit{}, false
	}
	invDet := 1.0 / det

	tvec := ray.Origin.Subtract(v0.Position)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return Hit{}, false
	}

	qvec := tvec.Cross(edge1)
	v := ray.Direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}

	t := edge2.Dot(qvec) * invDet
	if t < tMin || t > tMax {
		return Hit{}, false
	}

	// Conservative position error bound scaled by the triangle's extent,
	// following the original's error-bound heuristic for offsetRayOrigin.
	positionError := 1e-6 * (edge1.Length() + edge2.Length())

	return Hit{
		PrimID:        tri,
		T:             t,
		U:             u,
		V:             v,
		ViewDir:       ray.Direction.Negate().Normalize(),
		PositionError: positionError,
	}, true
}
