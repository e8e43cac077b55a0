package scene

import (
	"math"

	"github.com/vcmtracer/vcmtracer/internal/texture"
	"github.com/vcmtracer/vcmtracer/pkg/core"
)

// SurfaceParameters is a fully-described shading point reconstructed from
// a Hit (spec.md §3, §4.1).
type SurfaceParameters struct {
	Position        core.Vec3
	GeometricNormal core.Vec3
	ShadingNormal   core.Vec3 // interpolated, before normal-map perturbation
	PerturbedNormal core.Vec3 // after normal-map perturbation; equals ShadingNormal if no normal map
	Tangent         core.Vec3
	Bitangent       core.Vec3

	UV core.Vec2

	DPDU, DPDV core.Vec3
	DNDU, DNDV core.Vec3

	DUVDX, DUVDY   core.Vec2
	HasDifferentials bool

	Albedo    core.Vec3
	Specular  core.Vec3
	Roughness float64
	Metalness float64
	IOR       float64
	Emissive  core.Vec3

	Transparent   bool
	PositionError float64

	ViewDir core.Vec3 // direction from the surface back toward the ray origin
}

const uvDegenerateEpsilon = 1e-8

// CalculateSurfaceParams reconstructs a SurfaceParameters from a Hit against
// the triangle tables of scene, following spec.md §4.1's numbered steps.
// It returns (params, false) exactly in the backface-reject case (step 3);
// every other precision edge is clamped silently as the spec directs.
func CalculateSurfaceParams(hit Hit, indices []int32, vertices []Vertex, materials []Material, textures textureSet, preserveDifferentials bool) (SurfaceParameters, bool) {
	i0 := indices[3*hit.PrimID]
	i1 := indices[3*hit.PrimID+1]
	i2 := indices[3*hit.PrimID+2]
	v0, v1, v2 := vertices[i0], vertices[i1], vertices[i2]

	// Step 1: barycentric interpolation of normal, tangent, handedness-signed bitangent.
	a0 := clamp01(1 - hit.U - hit.V)
	a1 := hit.U
	a2 := hit.V

	position := v0.Position.Multiply(a0).Add(v1.Position.Multiply(a1)).Add(v2.Position.Multiply(a2))
	normal := v0.Normal.Multiply(a0).Add(v1.Normal.Multiply(a1)).Add(v2.Normal.Multiply(a2)).Normalize()
	tangent := v0.Tangent.Multiply(a0).Add(v1.Tangent.Multiply(a1)).Add(v2.Tangent.Multiply(a2)).Normalize()
	bh := v0.BitangentHandedness*a0 + v1.BitangentHandedness*a1 + v2.BitangentHandedness*a2
	bitangent := normal.Cross(tangent).Multiply(bh)

	geometricNormal := v1.Position.Subtract(v0.Position).Cross(v2.Position.Subtract(v0.Position)).Normalize()
	if geometricNormal.Dot(normal) < 0 {
		geometricNormal = geometricNormal.Negate()
	}

	// Step 2: interpolated UV.
	uv := v0.UV.Multiply(a0).Add(v1.UV.Multiply(a1)).Add(v2.UV.Multiply(a2))

	material := materials[v0.MaterialIndex]

	// Step 3: backface reject, unless the material is flagged transparent.
	if normal.Dot(hit.ViewDir) < 0 && !material.Transparent {
		return SurfaceParameters{}, false
	}

	// Step 4: tangent-to-world basis (t, n, b); the transpose is just
	// component-wise dot products against (t, n, b) at use sites.
	params := SurfaceParameters{
		Position:        position,
		GeometricNormal: geometricNormal,
		ShadingNormal:   normal,
		PerturbedNormal: normal,
		Tangent:         tangent,
		Bitangent:       bitangent,
		UV:              uv,
		Roughness:       material.Roughness,
		Metalness:       material.Metalness,
		IOR:             material.IOR,
		Transparent:     material.Transparent,
		PositionError:   hit.PositionError,
		ViewDir:         hit.ViewDir,
	}

	// Step 5: UV derivatives.
	duv02 := v0.UV.Subtract(v2.UV)
	duv12 := v1.UV.Subtract(v2.UV)
	det := core.Determinant2x2(duv02, duv12)

	degenerate := math.Abs(det) < uvDegenerateEpsilon
	if degenerate {
		dpdu, dpdv := core.CoordinateSystem(geometricNormal)
		params.DPDU, params.DPDV = dpdu, dpdv
		params.DNDU, params.DNDV = core.Vec3{}, core.Vec3{}
	} else {
		invDet := 1.0 / det
		dp02 := v0.Position.Subtract(v2.Position)
		dp12 := v1.Position.Subtract(v2.Position)
		params.DPDU = dp02.Multiply(duv12.Y).Subtract(dp12.Multiply(duv02.Y)).Multiply(invDet)
		params.DPDV = dp12.Multiply(duv02.X).Subtract(dp02.Multiply(duv12.X)).Multiply(invDet)

		if preserveDifferentials {
			dn02 := v0.Normal.Subtract(v2.Normal)
			dn12 := v1.Normal.Subtract(v2.Normal)
			params.DNDU = dn02.Multiply(duv12.Y).Subtract(dn12.Multiply(duv02.Y)).Multiply(invDet)
			params.DNDV = dn12.Multiply(duv02.X).Subtract(dn02.Multiply(duv12.X)).Multiply(invDet)
		}
	}

	// Step 6: ray differentials, via a 2x2 solve on the tangent plane.
	if hit.HasDifferentials {
		dx, dy, ok := solveUVDifferentials(params, hit)
		if ok {
			params.DUVDX, params.DUVDY = dx, dy
			params.HasDifferentials = true
		}
	}

	// Step 7: texture lookups.
	albedoTex := textures.lookup(material.AlbedoTex)
	specularTex := textures.lookup(material.SpecularTex)
	roughnessTex := textures.lookup(material.RoughnessTex)
	metalnessTex := textures.lookup(material.MetalnessTex)
	emissiveTex := textures.lookup(material.EmissiveTex)
	normalTex := textures.lookup(material.NormalTex)

	sampleRGB := func(tex *texture.Texture) core.Vec3 {
		if tex == nil {
			return core.Vec3{}
		}
		if params.HasDifferentials {
			return texture.EWA(tex, uv, params.DUVDX, params.DUVDY)
		}
		return texture.Triangle(tex, uv)
	}

	// spec.md §4.1 step 7 writes emissive as a pure texture lookup
	// defaulting to 0; material.Emissive is treated as that no-texture
	// default (symmetric with albedo/roughness/metalness, whose
	// "material.X * texLookup(..., default 1)" form reduces to material.X
	// when no texture is bound) so a constant-color emitter needs no
	// synthesized 1x1 texture.
	if emissiveTex != nil {
		params.Emissive = sampleRGB(emissiveTex)
	} else {
		params.Emissive = material.Emissive
	}

	if albedoTex != nil {
		params.Albedo = material.Albedo.MultiplyVec(sampleRGB(albedoTex))
	} else {
		params.Albedo = material.Albedo
	}

	if specularTex != nil {
		params.Specular = sampleRGB(specularTex)
	} else if material.HasSpecular {
		params.Specular = material.Specular
	} else {
		params.Specular = params.Albedo
	}

	if roughnessTex != nil {
		params.Roughness = material.Roughness * sampleRGB(roughnessTex).X
	}
	if metalnessTex != nil {
		params.Metalness = material.Metalness * sampleRGB(metalnessTex).X
	}

	if normalTex != nil {
		raw := sampleRGB(normalTex)
		mapped := core.NewVec3(raw.X*2-1, raw.Y*2-1, raw.Z*2-1)
		perturbed := params.Tangent.Multiply(mapped.X).
			Add(params.Bitangent.Negate().Multiply(mapped.Y)).
			Add(params.ShadingNormal.Multiply(mapped.Z))
		params.PerturbedNormal = perturbed.Normalize()
	}

	return params, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// solveUVDifferentials intersects the rx/ry auxiliary rays against the
// tangent plane at params.Position and solves the resulting 2x2 linear
// system for duv/dx, duv/dy, choosing the two position axes whose
// projection of the geometric normal is smallest to avoid a singular
// system (spec.md §4.1 step 6). Returns ok=false, leaving differentials
// zeroed, if any intermediate is non-finite.
func solveUVDifferentials(p SurfaceParameters, hit Hit) (core.Vec2, core.Vec2, bool) {
	n := p.GeometricNormal
	d := -n.Dot(p.Position)

	txPlane := planeIntersect(n, d, hit.RxOrigin, hit.RxDirection)
	tyPlane := planeIntersect(n, d, hit.RyOrigin, hit.RyDirection)
	if !txPlane.IsFinite() || !tyPlane.IsFinite() {
		return core.Vec2{}, core.Vec2{}, false
	}

	px := txPlane.Subtract(p.Position)
	py := tyPlane.Subtract(p.Position)

	ax, ay := smallestTwoAxes(n)

	a := [2][2]float64{
		{component(p.DPDU, ax), component(p.DPDV, ax)},
		{component(p.DPDU, ay), component(p.DPDV, ay)},
	}
	bx := [2]float64{component(px, ax), component(px, ay)}
	by := [2]float64{component(py, ax), component(py, ay)}

	dudx, dvdx, ok1 := solve2x2(a, bx)
	dudy, dvdy, ok2 := solve2x2(a, by)
	if !ok1 || !ok2 {
		return core.Vec2{}, core.Vec2{}, false
	}

	dx := core.NewVec2(dudx, dvdx)
	dy := core.NewVec2(dudy, dvdy)
	if math.IsNaN(dx.X) || math.IsNaN(dx.Y) || math.IsNaN(dy.X) || math.IsNaN(dy.Y) {
		return core.Vec2{}, core.Vec2{}, false
	}
	return dx, dy, true
}

func planeIntersect(n core.Vec3, d float64, origin, direction core.Vec3) core.Vec3 {
	denom := n.Dot(direction)
	if denom == 0 {
		return core.Vec3{X: math.NaN()}
	}
	t := -(n.Dot(origin) + d) / denom
	return origin.Add(direction.Multiply(t))
}

func smallestTwoAxes(n core.Vec3) (int, int) {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case ax >= ay && ax >= az:
		return 1, 2 // Y, Z
	case ay >= ax && ay >= az:
		return 0, 2 // X, Z
	default:
		return 0, 1 // X, Y
	}
}

func component(v core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func solve2x2(a [2][2]float64, b [2]float64) (x, y float64, ok bool) {
	det := a[0][0]*a[1][1] - a[0][1]*a[1][0]
	if math.Abs(det) < 1e-12 {
		return 0, 0, false
	}
	invDet := 1.0 / det
	x = (a[1][1]*b[0] - a[0][1]*b[1]) * invDet
	y = (a[0][0]*b[1] - a[1][0]*b[0]) * invDet
	return x, y, true
}
