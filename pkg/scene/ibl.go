package scene

import (
	"math"

	"github.com/vcmtracer/vcmtracer/internal/texture"
	"github.com/vcmtracer/vcmtracer/pkg/core"
)

// IBL is an image-based light: a distant emitter whose radiance is looked
// up from a lat-long equirectangular texture, generalizing the teacher's
// UniformInfiniteLight (constant emission) to the textured case spec.md §6
// names (`EmitIblLightSample`, `DirectIblLightSample`, `DirectIblSample`).
// A nil Env reproduces the teacher's uniform emission exactly.
type IBL struct {
	Env       *texture.Texture
	Intensity core.Vec3 // multiplies the lookup; Env==nil makes this the constant emission color

	WorldCenter core.Vec3
	WorldRadius float64
}

// Radiance looks up incoming radiance from direction d (unit vector).
func (ibl *IBL) Radiance(d core.Vec3) core.Vec3 {
	if ibl.Env == nil {
		return ibl.Intensity
	}
	u := 0.5 + math.Atan2(d.Z, d.X)/(2*math.Pi)
	v := 0.5 - math.Asin(clampUnit(d.Y))/math.Pi
	return ibl.Intensity.MultiplyVec(texture.Triangle(ibl.Env, core.NewVec2(u, v)))
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// IblEmissionSample is the result of sampling the IBL as an emitter for
// light-subpath generation (spec.md §4.4 Phase 1 step 1).
type IblEmissionSample struct {
	Position      core.Vec3
	Direction     core.Vec3
	Radiance      core.Vec3
	DirectionPdfA float64 // "direct" pdf expressed in the light's area measure
	EmissionPdfW  float64 // joint area*direction density of this emission sample
	CosLight      float64
}

// EmitIblLightSample samples an emission point and direction from the IBL,
// following the teacher's SampleInfiniteLight: a direction sampled
// uniformly on the sphere, and a position sampled on a disk of the scene's
// bounding radius perpendicular to that direction, offset so the ray
// travels toward the scene.
func (ibl *IBL) EmitIblLightSample(rng core.Sampler) IblEmissionSample {
	direction := core.SampleUniformSphere(rng.Get2D())

	var up core.Vec3
	if math.Abs(direction.X) > 0.9 {
		up = core.NewVec3(0, 1, 0)
	} else {
		up = core.NewVec3(1, 0, 0)
	}
	right := direction.Cross(up).Normalize()
	up = right.Cross(direction).Normalize()

	disk := core.SamplePointInUnitDisk(rng.Get2D())
	diskPoint := ibl.WorldCenter.
		Add(right.Multiply(disk.X * ibl.WorldRadius)).
		Add(up.Multiply(disk.Y * ibl.WorldRadius))
	position := diskPoint.Add(direction.Multiply(-ibl.WorldRadius))

	areaPdf := ibl.areaPdf()
	directionPdf := 1.0 / (4.0 * math.Pi)

	return IblEmissionSample{
		Position:      position,
		Direction:     direction,
		Radiance:      ibl.Radiance(direction),
		DirectionPdfA: areaPdf,
		EmissionPdfW:  areaPdf * directionPdf,
		CosLight:      1.0,
	}
}

// IblDirectSample is the result of next-event-estimation sampling of the
// IBL from a surface point.
type IblDirectSample struct {
	Direction     core.Vec3
	Distance      float64
	Radiance      core.Vec3
	DirectionPdfA float64
	EmissionPdfW  float64
	CosLight      float64
}

// directSampleDistance stands in for "infinite" when constructing an
// occlusion-test ray toward the IBL; it only needs to exceed anything the
// scene's geometry could occlude with.
const directSampleDistance = 1e8

// DirectIblLightSample samples a direction toward the IBL for next-event
// estimation from a shading point with the given normal, cosine-weighted
// as the teacher's UniformInfiniteLight.Sample does.
func (ibl *IBL) DirectIblLightSample(normal core.Vec3, rng core.Sampler) IblDirectSample {
	direction := core.SampleCosineHemisphere(normal, rng.Get2D())
	cosTheta := direction.Dot(normal)

	areaPdf := ibl.areaPdf()
	directionPdf := cosTheta / math.Pi

	return IblDirectSample{
		Direction:     direction,
		Distance:      directSampleDistance,
		Radiance:      ibl.Radiance(direction),
		DirectionPdfA: areaPdf,
		EmissionPdfW:  areaPdf * directionPdf,
		CosLight:      1.0,
	}
}

// DirectIblSample evaluates the IBL in a fixed direction, for the
// "skylight" MIS strategy (spec.md §4.2) when a camera subpath's
// BSDF-sampled ray escapes to infinity and must be retroactively weighted
// against the emission-sampling strategy. The direction density mirrors
// EmitIblLightSample's uniform-sphere model, since that sampler could have
// produced any direction with equal density.
func (ibl *IBL) DirectIblSample(dir core.Vec3) (radiance core.Vec3, directPdfA, emissionPdfW float64) {
	areaPdf := ibl.areaPdf()
	directionPdf := 1.0 / (4.0 * math.Pi)
	return ibl.Radiance(dir), areaPdf, areaPdf * directionPdf
}

// DirectLightPdfW returns the solid-angle density DirectIblLightSample
// would have assigned to direction from a surface with the given normal,
// the light-sampling-strategy pdf the unidirectional path tracer's
// power-heuristic MIS weighs against a BSDF-sampled direction's own pdf.
func (ibl *IBL) DirectLightPdfW(normal, direction core.Vec3) float64 {
	cosTheta := direction.Dot(normal)
	if cosTheta <= 0 {
		return 0
	}
	return cosTheta / math.Pi
}

func (ibl *IBL) areaPdf() float64 {
	if ibl.WorldRadius <= 0 {
		return 0
	}
	return 1.0 / (math.Pi * ibl.WorldRadius * ibl.WorldRadius)
}
