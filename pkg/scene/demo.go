package scene

import "github.com/vcmtracer/vcmtracer/pkg/core"

// NewDemoScene builds a small self-contained Cornell-box-style room, lit
// entirely by the IBL, for running the renderer without an external scene
// file. Scene construction from an external format is an external
// collaborator (see NewScene's doc comment); this exists only so
// cmd/vcmtrace has something to render out of the box, grounded on the
// teacher's NewCornellScene's hardcoded-quad-walls convention, adapted
// from quads to the triangle-indexed mesh this package's Scene expects.
func NewDemoScene(imageWidth, imageHeight int) *Scene {
	const boxSize = 5.0

	white := Material{Albedo: core.NewVec3(0.73, 0.73, 0.73), Roughness: 1.0, AlbedoTex: -1, SpecularTex: -1, RoughnessTex: -1, MetalnessTex: -1, EmissiveTex: -1, NormalTex: -1}
	red := Material{Albedo: core.NewVec3(0.65, 0.05, 0.05), Roughness: 1.0, AlbedoTex: -1, SpecularTex: -1, RoughnessTex: -1, MetalnessTex: -1, EmissiveTex: -1, NormalTex: -1}
	green := Material{Albedo: core.NewVec3(0.12, 0.45, 0.15), Roughness: 1.0, AlbedoTex: -1, SpecularTex: -1, RoughnessTex: -1, MetalnessTex: -1, EmissiveTex: -1, NormalTex: -1}
	mirror := Material{Albedo: core.NewVec3(0.9, 0.9, 0.9), HasSpecular: true, Specular: core.NewVec3(0.95, 0.95, 0.95), Roughness: 0.02, Metalness: 1.0, IOR: 1.5, AlbedoTex: -1, SpecularTex: -1, RoughnessTex: -1, MetalnessTex: -1, EmissiveTex: -1, NormalTex: -1}

	b := &meshBuilder{}

	// floor, y=0
	b.quad(
		core.NewVec3(0, 0, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize),
		core.NewVec3(0, 1, 0), 0)
	// ceiling, y=boxSize
	b.quad(
		core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize),
		core.NewVec3(0, -1, 0), 0)
	// back wall, z=boxSize
	b.quad(
		core.NewVec3(0, 0, boxSize), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, boxSize, 0),
		core.NewVec3(0, 0, -1), 0)
	// left wall (red), x=0
	b.quad(
		core.NewVec3(0, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0),
		core.NewVec3(1, 0, 0), 1)
	// right wall (green), x=boxSize
	b.quad(
		core.NewVec3(boxSize, 0, 0), core.NewVec3(0, boxSize, 0), core.NewVec3(0, 0, boxSize),
		core.NewVec3(-1, 0, 0), 2)
	// mirror panel standing on the floor, angled into the room
	mirrorOrigin := core.NewVec3(boxSize*0.62, 0, boxSize*0.3)
	b.quad(
		mirrorOrigin, core.NewVec3(0, boxSize*0.7, 0), core.NewVec3(boxSize*0.25, 0, boxSize*0.35),
		core.NewVec3(-0.8, 0, 0.6).Normalize(), 3)

	materials := []Material{white, red, green, mirror}

	camera := NewCamera(
		core.NewVec3(boxSize*0.5, boxSize*0.5, -boxSize*1.5),
		core.NewVec3(boxSize*0.5, boxSize*0.5, 0),
		core.NewVec3(0, 1, 0),
		40.0, imageWidth, imageHeight)

	ibl := &IBL{Intensity: core.NewVec3(0.9, 0.95, 1.1)}

	return NewScene(b.indices, b.vertices, materials, nil, camera, ibl)
}

// meshBuilder accumulates quads (as two triangles each) into flat
// index/vertex buffers, stamping every vertex's material index and
// computing a flat per-face UV/tangent frame, adequate for the demo
// scene's untextured materials.
type meshBuilder struct {
	indices  []int32
	vertices []Vertex
}

func (b *meshBuilder) quad(corner, u, v, normal core.Vec3, materialIndex int) {
	tangent := u.Normalize()
	p00 := corner
	p10 := corner.Add(u)
	p01 := corner.Add(v)
	p11 := corner.Add(u).Add(v)

	base := int32(len(b.vertices))
	uvs := [4]core.Vec2{core.NewVec2(0, 0), core.NewVec2(1, 0), core.NewVec2(0, 1), core.NewVec2(1, 1)}
	positions := [4]core.Vec3{p00, p10, p01, p11}
	for i, p := range positions {
		b.vertices = append(b.vertices, Vertex{
			Position:            p,
			Normal:              normal,
			Tangent:             tangent,
			BitangentHandedness: 1,
			UV:                  uvs[i],
			MaterialIndex:       materialIndex,
		})
	}

	// p00,p10,p11 and p00,p11,p01. The winding does not orient the face:
	// CalculateSurfaceParams flips the geometric normal toward the vertex
	// normal passed in here.
	b.indices = append(b.indices,
		base+0, base+1, base+3,
		base+0, base+3, base+2,
	)
}
