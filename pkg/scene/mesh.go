package scene

import "github.com/vcmtracer/vcmtracer/pkg/core"

// Vertex holds the per-vertex attribute data of a triangle mesh (spec.md §6):
// position, normal, tangent, a signed bitangent handedness, UV, and the
// index of the material assigned to the owning triangle.
type Vertex struct {
	Position            core.Vec3
	Normal              core.Vec3
	Tangent             core.Vec3
	BitangentHandedness float64 // sign of cross(normal, tangent) relative to the stored bitangent
	UV                  core.Vec2
	MaterialIndex       int
}

// Hit is a ray/triangle intersection as produced by the ray-intersection
// engine and consumed by surface reconstruction (spec.md §3).
type Hit struct {
	PrimID int     // index of the hit triangle (indices[3*PrimID : 3*PrimID+3])
	T      float64 // ray parameter at the intersection
	U, V   float64 // barycentric coordinates of vertices 1 and 2

	ViewDir       core.Vec3 // direction from the hit point back toward the ray origin (normalized)
	PositionError float64   // conservative bound on the position's floating point error

	HasDifferentials bool
	RxOrigin         core.Vec3
	RxDirection      core.Vec3
	RyOrigin         core.Vec3
	RyDirection      core.Vec3
}
