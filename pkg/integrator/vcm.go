package integrator

import (
	"math"

	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/hashgrid"
	"github.com/vcmtracer/vcmtracer/pkg/material"
	"github.com/vcmtracer/vcmtracer/pkg/scene"
)

const (
	// shadowRayBias is the k factor passed to core.OffsetRayOrigin for every
	// secondary/shadow ray this integrator casts.
	shadowRayBias = 0.1
	rayTMin       = 1e-4
)

// VCMKernel runs one full vertex-connection-and-merging pass over every
// pixel plus LightPathCount light subpaths, per spec.md §4.4. Light
// emission is modeled exclusively through the scene's IBL: the original
// renderer this is grounded on (VCM.cpp) samples only its infinite light
// for light-subpath generation, with no area-light sampling path, so
// emissive triangle materials do not participate in this integrator's
// light transport (see DESIGN.md).
type VCMKernel struct {
	Scene          *scene.Scene
	MaxPathLength  int
	LightPathCount int // == image width*height, per spec.md §4.4
}

// RunPass executes one VCM iteration at the given merge radius, accumulating
// each pixel's estimate into image (len == LightPathCount, row-major).
func (k *VCMKernel) RunPass(rng core.Sampler, image []core.Vec3, radius float64) {
	w := newVcmWeights(radius, k.LightPathCount)

	pathVertices := make([]VcmVertex, 0, k.LightPathCount)
	positions := make([]core.Vec3, 0, k.LightPathCount)
	pathEnds := make([]int, 0, k.LightPathCount)

	for i := 0; i < k.LightPathCount; i++ {
		k.traceLightPath(rng, w, &pathVertices, &positions, image)
		pathEnds = append(pathEnds, len(pathVertices))
	}

	grid := hashgrid.New(positions, radius)

	width := k.Scene.Camera.ImageWidth
	height := k.Scene.Camera.ImageHeight
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			index := y*width + x
			rangeStart := 0
			if index > 0 {
				rangeStart = pathEnds[index-1]
			}
			rangeEnd := pathEnds[index]

			color := k.traceCameraPath(rng, w, x, y, pathVertices, pathVertices[rangeStart:rangeEnd], grid)
			image[index] = image[index].Add(color)
		}
	}
}

// traceLightPath generates one light subpath from the IBL and extends it
// until it runs out of budget, storing a VcmVertex at every hit and
// attempting a connect-to-camera splat at each one (spec.md §4.4 Phase 1).
func (k *VCMKernel) traceLightPath(rng core.Sampler, w vcmWeights, pathVertices *[]VcmVertex, positions *[]core.Vec3, image []core.Vec3) {
	ibl := k.Scene.IBL
	if ibl == nil {
		return
	}
	emission := ibl.EmitIblLightSample(rng)
	if emission.EmissionPdfW <= 0 {
		return
	}

	state := PathState{
		Origin:        emission.Position,
		Direction:     emission.Direction,
		Throughput:    emission.Radiance.Multiply(1 / emission.EmissionPdfW),
		PathLength:    1,
		IsAreaMeasure: false,
		DVCM:          emission.DirectionPdfA / emission.EmissionPdfW,
		DVC:           emission.CosLight / emission.EmissionPdfW,
	}
	state.DVM = state.DVC * w.vcWeight

	for state.PathLength+2 < k.MaxPathLength {
		hit, ok := k.Scene.BVH.Intersect(core.NewRay(state.Origin, state.Direction), rayTMin, math.Inf(1))
		if !ok {
			break
		}
		surface, ok := k.Scene.Surface(hit)
		if !ok {
			break
		}

		connectionLengthSqr := hit.T * hit.T
		updateAtLightHit(&state, surface, connectionLengthSqr)

		*pathVertices = append(*pathVertices, VcmVertex{
			Surface:    surface,
			Throughput: state.Throughput,
			PathLength: state.PathLength,
			DVCM:       state.DVCM,
			DVC:        state.DVC,
			DVM:        state.DVM,
		})
		*positions = append(*positions, surface.Position)

		k.connectLightPathToCamera(state, surface, w, image)

		sample, ok := material.SampleBsdf(surface, surface.ViewDir, rng)
		if !ok {
			break
		}
		cosThetaBsdf := surface.PerturbedNormal.AbsDot(sample.Wi)
		state.Throughput = state.Throughput.MultiplyVec(sample.Reflectance)
		advanceAfterScatter(&state, cosThetaBsdf, sample.FwdPdfW, sample.RevPdfW, w)
		state.Origin = core.OffsetRayOrigin(surface.Position, surface.GeometricNormal, surface.PositionError, sample.Wi, shadowRayBias)
		state.Direction = sample.Wi
	}
}

// connectLightPathToCamera attempts to splat a light-subpath vertex's
// contribution directly onto the image plane (spec.md §4.4's light-to-
// camera strategy).
func (k *VCMKernel) connectLightPathToCamera(state PathState, surface scene.SurfaceParameters, w vcmWeights, image []core.Vec3) {
	camera := k.Scene.Camera

	toPosition := surface.Position.Subtract(camera.Position)
	distance := toPosition.Length()
	if distance <= 0 {
		return
	}
	toPositionDir := toPosition.Multiply(1 / distance)

	if camera.Forward.Dot(toPositionDir) <= 0 {
		return
	}

	x, y, onScreen := camera.WorldToImage(surface.Position)
	if !onScreen {
		return
	}

	toCamera := toPositionDir.Negate()

	// cosThetaSurface mirrors the backface visibility guard applied
	// everywhere else a connection is attempted; it does not otherwise
	// enter the weighted contribution below.
	cosThetaSurface := surface.GeometricNormal.AbsDot(toCamera)
	if cosThetaSurface <= 0 {
		return
	}

	bsdf, _, bsdfReversePdf := material.EvaluateBsdf(surface, state.Direction.Negate(), toCamera)
	if bsdf.IsBlack() {
		return
	}

	cosThetaCamera := camera.Forward.Dot(toPositionDir)
	imageToSolidAngle := camera.ImageToSolidAngle(cosThetaCamera)
	imageToSurface := imageToSolidAngle * cosThetaCamera
	if imageToSurface <= 0 {
		return
	}
	surfaceToImage := 1 / imageToSurface
	cameraPdfA := imageToSurface

	lightPathCount := float64(k.LightPathCount)
	lightPartialWeight := (cameraPdfA / lightPathCount) * (w.vmWeight + state.DVCM + state.DVC*bsdfReversePdf)
	misWeight := 1 / (lightPartialWeight + 1)

	contribution := state.Throughput.MultiplyVec(bsdf).Multiply(misWeight / (lightPathCount * surfaceToImage))

	shadowOrigin := core.OffsetRayOrigin(surface.Position, surface.GeometricNormal, surface.PositionError, toCamera, shadowRayBias)
	if k.Scene.BVH.Occluded(shadowOrigin, toCamera, rayTMin, distance-2*rayTMin) {
		return
	}

	idx := y*camera.ImageWidth + x
	image[idx] = image[idx].Add(contribution)
}

// connectToSkyLight retroactively weights a camera ray that escaped to
// infinity against the IBL's own emission-sampling strategy (spec.md §4.4
// Phase 2's "skylight" connection). A first-bounce miss is returned
// unweighted since no other strategy could have produced that path.
func (k *VCMKernel) connectToSkyLight(state PathState) core.Vec3 {
	ibl := k.Scene.IBL
	if ibl == nil {
		return core.Vec3{}
	}
	radiance, directPdfA, emissionPdfW := ibl.DirectIblSample(state.Direction)
	if state.PathLength == 1 {
		return radiance
	}
	cameraWeight := directPdfA*state.DVCM + emissionPdfW*state.DVC
	misWeight := 1 / (1 + cameraWeight)
	return radiance.Multiply(misWeight)
}

// connectCameraPathToLight is next-event estimation from a camera subpath
// vertex directly to the IBL (spec.md §4.4 Phase 2).
func (k *VCMKernel) connectCameraPathToLight(state PathState, surface scene.SurfaceParameters, w vcmWeights, rng core.Sampler) core.Vec3 {
	ibl := k.Scene.IBL
	if ibl == nil {
		return core.Vec3{}
	}
	sample := ibl.DirectIblLightSample(surface.PerturbedNormal, rng)
	if sample.Radiance.IsBlack() || sample.DirectionPdfA <= 0 {
		return core.Vec3{}
	}

	bsdf, bsdfForwardPdfW, bsdfReversePdfW := material.EvaluateBsdf(surface, state.Direction.Negate(), sample.Direction)
	if bsdf.IsBlack() {
		return core.Vec3{}
	}

	cosThetaSurface := surface.PerturbedNormal.AbsDot(sample.Direction)

	lightWeight := bsdfForwardPdfW / sample.DirectionPdfA
	cameraWeight := (sample.EmissionPdfW * cosThetaSurface / (sample.DirectionPdfA * sample.CosLight)) *
		(w.vmWeight + state.DVCM + state.DVC*bsdfReversePdfW)
	misWeight := 1 / (lightWeight + 1 + cameraWeight)

	contribution := bsdf.MultiplyVec(sample.Radiance).Multiply(misWeight * cosThetaSurface / sample.DirectionPdfA)

	shadowOrigin := core.OffsetRayOrigin(surface.Position, surface.GeometricNormal, surface.PositionError, sample.Direction, shadowRayBias)
	if k.Scene.BVH.Occluded(shadowOrigin, sample.Direction, rayTMin, sample.Distance-2*rayTMin) {
		return core.Vec3{}
	}

	return contribution
}

// connectPathVertices is the bidirectional vertex-connection strategy:
// shoot a shadow ray from a camera vertex to a stored light vertex and
// weight the result against every other strategy that could have produced
// this same path length (spec.md §4.4 Phase 2). The returned contribution
// excludes both subpaths' throughputs; the caller multiplies them in.
func (k *VCMKernel) connectPathVertices(cameraState PathState, surface scene.SurfaceParameters, lightVertex VcmVertex, w vcmWeights) core.Vec3 {
	delta := lightVertex.Surface.Position.Subtract(surface.Position)
	distSqr := delta.LengthSquared()
	if distSqr <= 0 {
		return core.Vec3{}
	}
	dist := math.Sqrt(distSqr)
	direction := delta.Multiply(1 / dist)

	cameraBsdf, cameraBsdfForwardPdfW, cameraBsdfReversePdfW := material.EvaluateBsdf(surface, cameraState.Direction.Negate(), direction)
	if cameraBsdf.IsBlack() {
		return core.Vec3{}
	}
	lightBsdf, lightBsdfForwardPdfW, lightBsdfReversePdfW := material.EvaluateBsdf(lightVertex.Surface, direction.Negate(), lightVertex.Surface.ViewDir)
	if lightBsdf.IsBlack() {
		return core.Vec3{}
	}

	cosThetaCamera := direction.AbsDot(surface.PerturbedNormal)
	cosThetaLight := direction.Negate().AbsDot(lightVertex.Surface.PerturbedNormal)

	geometryTerm := cosThetaLight * cosThetaCamera / distSqr
	if geometryTerm < 0 {
		return core.Vec3{}
	}

	cameraBsdfPdfA := cameraBsdfForwardPdfW * math.Abs(cosThetaLight) / distSqr
	lightBsdfPdfA := lightBsdfForwardPdfW * math.Abs(cosThetaCamera) / distSqr

	lightWeight := cameraBsdfPdfA * (w.vmWeight + lightVertex.DVCM + lightVertex.DVC*lightBsdfReversePdfW)
	cameraWeight := lightBsdfPdfA * (w.vmWeight + cameraState.DVCM + cameraState.DVC*cameraBsdfReversePdfW)
	misWeight := 1 / (lightWeight + 1 + cameraWeight)

	contribution := cameraBsdf.MultiplyVec(lightBsdf).Multiply(misWeight * geometryTerm)

	shadowOrigin := core.OffsetRayOrigin(surface.Position, surface.GeometricNormal, surface.PositionError, direction, shadowRayBias)
	if k.Scene.BVH.Occluded(shadowOrigin, direction, rayTMin, dist-2*rayTMin) {
		return core.Vec3{}
	}

	return contribution
}

// mergeVertices is the hash-grid query callback implementing the vertex-
// merging strategy: a photon-density estimate of the radiance arriving at
// a camera vertex from every stored light vertex within the pass's merge
// radius (spec.md §4.4 Phase 2, §4.3).
func (k *VCMKernel) mergeVertices(cameraState PathState, surface scene.SurfaceParameters, lightVertex VcmVertex, w vcmWeights) core.Vec3 {
	if cameraState.PathLength+lightVertex.PathLength > k.MaxPathLength {
		return core.Vec3{}
	}
	bsdf, bsdfForwardPdfW, bsdfReversePdfW := material.EvaluateBsdf(surface, cameraState.Direction.Negate(), lightVertex.Surface.ViewDir)
	if bsdf.IsBlack() {
		return core.Vec3{}
	}

	lightWeight := lightVertex.DVCM*w.vcWeight + lightVertex.DVM*bsdfForwardPdfW
	cameraWeight := cameraState.DVCM*w.vcWeight + cameraState.DVM*bsdfReversePdfW
	misWeight := 1 / (lightWeight + 1 + cameraWeight)

	return bsdf.MultiplyVec(lightVertex.Throughput).Multiply(misWeight)
}

// traceCameraPath runs one camera subpath for pixel (x, y), per spec.md
// §4.4 Phase 2. allVertices and grid span every light subpath stored this
// pass; connectRange is the contiguous slice belonging to this pixel's
// paired light subpath, used by the vertex-connection strategy (vertices
// within one light subpath are stored in increasing path-length order, so
// that strategy can break rather than skip once the combined length is too
// long).
func (k *VCMKernel) traceCameraPath(rng core.Sampler, w vcmWeights, x, y int, allVertices, connectRange []VcmVertex, grid *hashgrid.Grid) core.Vec3 {
	camera := k.Scene.Camera
	ray := camera.JitteredCameraRay(rng, 0, x, y)

	cosThetaCamera := ray.Direction.Dot(camera.Forward)
	state := PathState{
		Origin:        ray.Origin,
		Direction:     ray.Direction,
		Throughput:    core.NewVec3(1, 1, 1),
		PathLength:    1,
		IsAreaMeasure: true,
	}
	if imageToSolidAngle := camera.ImageToSolidAngle(cosThetaCamera); imageToSolidAngle > 0 {
		state.DVCM = float64(k.LightPathCount) / imageToSolidAngle
	}

	var color core.Vec3

	for state.PathLength < k.MaxPathLength {
		hit, ok := k.Scene.BVH.Intersect(core.NewRay(state.Origin, state.Direction), rayTMin, math.Inf(1))
		if !ok {
			color = color.Add(state.Throughput.MultiplyVec(k.connectToSkyLight(state)))
			break
		}
		surface, ok := k.Scene.Surface(hit)
		if !ok {
			break
		}

		connectionLengthSqr := hit.T * hit.T
		updateAtCameraHit(&state, surface, connectionLengthSqr)

		if state.PathLength+1 < k.MaxPathLength {
			color = color.Add(state.Throughput.MultiplyVec(k.connectCameraPathToLight(state, surface, w, rng)))
		}

		for _, lv := range connectRange {
			if lv.PathLength+1+state.PathLength > k.MaxPathLength {
				break
			}
			contribution := k.connectPathVertices(state, surface, lv, w)
			combined := state.Throughput.MultiplyVec(lv.Throughput).MultiplyVec(contribution)
			color = color.Add(combined)
		}

		var merged core.Vec3
		grid.Range(surface.Position, func(index int) {
			merged = merged.Add(k.mergeVertices(state, surface, allVertices[index], w))
		})
		color = color.Add(state.Throughput.Multiply(w.vmNormalization).MultiplyVec(merged))

		sample, ok := material.SampleBsdf(surface, surface.ViewDir, rng)
		if !ok {
			break
		}
		cosThetaBsdf := surface.PerturbedNormal.AbsDot(sample.Wi)
		state.Throughput = state.Throughput.MultiplyVec(sample.Reflectance)
		advanceAfterScatter(&state, cosThetaBsdf, sample.FwdPdfW, sample.RevPdfW, w)
		state.Origin = core.OffsetRayOrigin(surface.Position, surface.GeometricNormal, surface.PositionError, sample.Wi, shadowRayBias)
		state.Direction = sample.Wi
	}

	return color
}
