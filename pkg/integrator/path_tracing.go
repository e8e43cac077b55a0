package integrator

import (
	"math"

	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/material"
	"github.com/vcmtracer/vcmtracer/pkg/scene"
)

// PathTracingKernel is the "unidirectional variant" spec.md §4.5 names: a
// plain primary-ray-plus-shade loop with next-event estimation against the
// IBL and BSDF-sampled continuation, combined by the power heuristic. No
// light subpaths, no hash grid; grounded on the teacher's
// pkg/integrator/path_tracing.go, rewritten as a procedural bounce loop
// rather than the teacher's recursive RayColor (spec.md §9 Design Notes:
// "each subpath is a bounded loop with a break on miss/fail/terminate").
type PathTracingKernel struct {
	Scene                     *scene.Scene
	MaxBounceCount            int
	RussianRouletteMinBounces int
}

// TracePixel traces one camera ray for pixel (x, y) and returns its
// unweighted radiance estimate; the caller divides the running sum by the
// number of samples taken.
func (k *PathTracingKernel) TracePixel(rng core.Sampler, x, y int) core.Vec3 {
	camera := k.Scene.Camera
	ray := camera.JitteredCameraRay(rng, 0, x, y)

	origin, direction := ray.Origin, ray.Direction
	throughput := core.NewVec3(1, 1, 1)
	var color core.Vec3

	var prevNormal core.Vec3
	var prevBsdfPdfW float64
	haveBsdf := false

	for bounce := 0; bounce < k.MaxBounceCount; bounce++ {
		hit, ok := k.Scene.BVH.Intersect(core.NewRay(origin, direction), rayTMin, math.Inf(1))
		if !ok {
			color = color.Add(throughput.MultiplyVec(k.missRadiance(direction, prevNormal, prevBsdfPdfW, haveBsdf)))
			break
		}
		surface, ok := k.Scene.Surface(hit)
		if !ok {
			break
		}

		if !surface.Emissive.IsBlack() {
			color = color.Add(throughput.MultiplyVec(surface.Emissive))
		}

		color = color.Add(throughput.MultiplyVec(k.directLighting(surface, surface.ViewDir, rng)))

		if bounce >= k.RussianRouletteMinBounces {
			survival := russianRouletteSurvival(throughput.Luminance())
			if rng.Get1D() > survival {
				break
			}
			throughput = throughput.Multiply(1 / survival)
		}

		sample, ok := material.SampleBsdf(surface, surface.ViewDir, rng)
		if !ok {
			break
		}

		throughput = throughput.MultiplyVec(sample.Reflectance)
		prevNormal = surface.PerturbedNormal
		prevBsdfPdfW = sample.FwdPdfW
		haveBsdf = true

		origin = core.OffsetRayOrigin(surface.Position, surface.GeometricNormal, surface.PositionError, sample.Wi, shadowRayBias)
		direction = sample.Wi
	}

	return color
}

// directLighting samples the IBL for next-event estimation and weights it
// against the BSDF-sampling strategy with the power heuristic.
func (k *PathTracingKernel) directLighting(surface scene.SurfaceParameters, viewDir core.Vec3, rng core.Sampler) core.Vec3 {
	ibl := k.Scene.IBL
	if ibl == nil {
		return core.Vec3{}
	}

	sample := ibl.DirectIblLightSample(surface.PerturbedNormal, rng)
	cosTheta := sample.Direction.Dot(surface.PerturbedNormal)
	if cosTheta <= 0 {
		return core.Vec3{}
	}
	lightPdfW := cosTheta / math.Pi

	bsdf, bsdfFwdPdfW, _ := material.EvaluateBsdf(surface, viewDir, sample.Direction)
	if bsdf.IsBlack() {
		return core.Vec3{}
	}

	misWeight := core.PowerHeuristic(1, lightPdfW, 1, bsdfFwdPdfW)

	shadowOrigin := core.OffsetRayOrigin(surface.Position, surface.GeometricNormal, surface.PositionError, sample.Direction, shadowRayBias)
	if k.Scene.BVH.Occluded(shadowOrigin, sample.Direction, rayTMin, sample.Distance-2*rayTMin) {
		return core.Vec3{}
	}

	return bsdf.MultiplyVec(sample.Radiance).Multiply(cosTheta * misWeight / lightPdfW)
}

// missRadiance returns the IBL's radiance in a direction a ray escaped
// into, weighted against the NEE strategy's pdf when the ray arrived here
// by BSDF sampling from a previous hit (the primary-ray miss case has no
// competing strategy and is returned unweighted).
func (k *PathTracingKernel) missRadiance(direction, prevNormal core.Vec3, bsdfPdfW float64, haveBsdf bool) core.Vec3 {
	ibl := k.Scene.IBL
	if ibl == nil {
		return core.Vec3{}
	}
	radiance := ibl.Radiance(direction)
	if !haveBsdf {
		return radiance
	}

	lightPdfW := ibl.DirectLightPdfW(prevNormal, direction)
	if lightPdfW <= 0 {
		return radiance
	}
	return radiance.Multiply(core.PowerHeuristic(1, bsdfPdfW, 1, lightPdfW))
}

// russianRouletteSurvival mirrors the teacher's applyRussianRoulette:
// luminance-based survival probability clamped to [0.5, 0.95] so
// compensation never exceeds 2x.
func russianRouletteSurvival(luminance float64) float64 {
	return math.Min(0.95, math.Max(0.5, luminance))
}
