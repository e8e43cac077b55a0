// Package integrator implements the VCM (vertex connection and merging)
// bidirectional estimator and its unidirectional fallback, per spec.md
// §4.2 and §4.4. The MIS bookkeeping here mirrors the original renderer's
// VCM.cpp exactly: each subpath carries three running scalars (dVCM, dVC,
// dVM) that encode the partial sums needed to reweight every connection
// strategy without keeping the whole path history.
package integrator

import (
	"math"

	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/scene"
)

// PathState is the running state of one subpath (camera or light) as it is
// extended bounce by bounce, per spec.md §4.2's vertex-state fields.
type PathState struct {
	Origin    core.Vec3
	Direction core.Vec3

	Throughput core.Vec3

	PathLength    int
	IsAreaMeasure bool

	DVCM float64
	DVC  float64
	DVM  float64
}

// VcmVertex is a stored light-subpath vertex, retained for the camera pass's
// vertex-connection and vertex-merging strategies (spec.md §4.4 Phase 1).
type VcmVertex struct {
	Surface    scene.SurfaceParameters
	Throughput core.Vec3
	PathLength int

	DVCM float64
	DVC  float64
	DVM  float64
}

// vcmWeights holds the three normalization constants derived from the current
// pass's merge radius, shared by every MIS weight computed during that pass
// (spec.md §4.4: vmWeight = pi * r^2 * lightPathCount, vcWeight = 1/vmWeight,
// vmNormalization = 1/vmWeight; both reciprocals are 0 when vmWeight is 0).
type vcmWeights struct {
	vmWeight        float64
	vcWeight        float64
	vmNormalization float64
}

func newVcmWeights(radius float64, lightPathCount int) vcmWeights {
	r2 := radius * radius
	vm := math.Pi * r2 * float64(lightPathCount)
	var vc float64
	if vm != 0 {
		vc = 1 / vm
	}
	var norm float64
	if vm != 0 {
		norm = 1 / vm
	}
	return vcmWeights{vmWeight: vm, vcWeight: vc, vmNormalization: norm}
}

// updateAtLightHit applies the at-hit MIS update for a light subpath vertex,
// using the surface's perturbed normal and the conditional connection-length
// scaling VCM.cpp's light branch applies (only on bounces past the first, or
// when the emitter sampled an area measure, the IBL emitter here never does,
// so in practice this only guards the first bounce).
func updateAtLightHit(state *PathState, surface scene.SurfaceParameters, connectionLengthSqr float64) {
	absDotNL := surface.PerturbedNormal.AbsDot(state.Direction)
	if absDotNL <= 0 {
		return
	}
	if state.PathLength > 1 || state.IsAreaMeasure {
		state.DVCM *= connectionLengthSqr
	}
	state.DVCM /= absDotNL
	state.DVC /= absDotNL
	state.DVM /= absDotNL
}

// updateAtCameraHit is the camera-subpath counterpart of updateAtLightHit.
// It uses the geometric normal and always applies the connection-length
// scaling, matching VCM.cpp's unconditional camera-branch multiply.
func updateAtCameraHit(state *PathState, surface scene.SurfaceParameters, connectionLengthSqr float64) {
	absDotNL := surface.GeometricNormal.AbsDot(state.Direction)
	if absDotNL <= 0 {
		return
	}
	state.DVCM *= connectionLengthSqr
	state.DVCM /= absDotNL
	state.DVC /= absDotNL
	state.DVM /= absDotNL
}

// advanceAfterScatter applies the after-scatter MIS update shared by both
// subpath kinds once a continuation direction has been BSDF-sampled
// (spec.md §4.2 "scatter update"). cosThetaBsdf is measured against the
// surface's perturbed normal for both subpath kinds.
func advanceAfterScatter(state *PathState, cosThetaBsdf, fwdPdfW, revPdfW float64, w vcmWeights) {
	dVC := (cosThetaBsdf / fwdPdfW) * (state.DVC*revPdfW + state.DVCM + w.vmWeight)
	dVM := (cosThetaBsdf / fwdPdfW) * (state.DVM*revPdfW + state.DVCM*w.vcWeight + 1)
	state.DVC = dVC
	state.DVM = dVM
	state.DVCM = 1 / fwdPdfW
	state.PathLength++
}
