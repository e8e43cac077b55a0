package integrator

import (
	"math"
	"testing"

	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/scene"
)

func TestNewVcmWeightsZeroRadiusDegradesToBDPT(t *testing.T) {
	w := newVcmWeights(0, 1000)
	if w.vmWeight != 0 || w.vcWeight != 0 || w.vmNormalization != 0 {
		t.Errorf("zero radius should zero every merging weight, got %+v", w)
	}
}

func TestNewVcmWeightsPositiveRadius(t *testing.T) {
	w := newVcmWeights(0.1, 1000)
	wantVm := math.Pi * 0.01 * 1000
	if math.Abs(w.vmWeight-wantVm) > 1e-9 {
		t.Errorf("vmWeight = %v, want %v", w.vmWeight, wantVm)
	}
	if math.Abs(w.vcWeight-1/wantVm) > 1e-9 {
		t.Errorf("vcWeight = %v, want %v", w.vcWeight, 1/wantVm)
	}
	if w.vmNormalization != w.vcWeight {
		t.Errorf("vmNormalization should equal vcWeight (both 1/vmWeight), got %v vs %v", w.vmNormalization, w.vcWeight)
	}
}

func flatSurface(normal core.Vec3) scene.SurfaceParameters {
	return scene.SurfaceParameters{GeometricNormal: normal, PerturbedNormal: normal}
}

func TestUpdateAtLightHitSkipsScalingOnFirstBounce(t *testing.T) {
	surface := flatSurface(core.NewVec3(0, 1, 0))
	direction := core.NewVec3(0, -1, 0)

	state := &PathState{PathLength: 1, IsAreaMeasure: false, Direction: direction, DVCM: 2, DVC: 1, DVM: 1}
	updateAtLightHit(state, surface, 4.0)

	// absDotNL == 1, and the connection-length scale should not have been
	// applied since PathLength == 1 and IsAreaMeasure is false.
	if math.Abs(state.DVCM-2) > 1e-9 {
		t.Errorf("DVCM = %v, want 2 (unscaled)", state.DVCM)
	}
}

func TestUpdateAtLightHitAppliesScalingPastFirstBounce(t *testing.T) {
	surface := flatSurface(core.NewVec3(0, 1, 0))
	direction := core.NewVec3(0, -1, 0)

	state := &PathState{PathLength: 2, IsAreaMeasure: false, Direction: direction, DVCM: 2, DVC: 1, DVM: 1}
	updateAtLightHit(state, surface, 4.0)

	if math.Abs(state.DVCM-8) > 1e-9 {
		t.Errorf("DVCM = %v, want 8 (2 * connectionLengthSqr=4, absDotNL=1)", state.DVCM)
	}
}

func TestUpdateAtLightHitNoOpWhenGrazing(t *testing.T) {
	surface := flatSurface(core.NewVec3(0, 1, 0))
	direction := core.NewVec3(1, 0, 0) // perpendicular to normal: absDotNL == 0

	state := &PathState{DVCM: 2, DVC: 1, DVM: 1}
	before := *state
	state.Direction = direction
	updateAtLightHit(state, surface, 4.0)

	if state.DVCM != before.DVCM || state.DVC != before.DVC || state.DVM != before.DVM {
		t.Errorf("a grazing direction (absDotNL == 0) should leave state unchanged, got %+v", state)
	}
}

func TestUpdateAtCameraHitAlwaysScales(t *testing.T) {
	surface := flatSurface(core.NewVec3(0, 1, 0))
	state := &PathState{PathLength: 1, Direction: core.NewVec3(0, -1, 0), DVCM: 2, DVC: 1, DVM: 1}
	updateAtCameraHit(state, surface, 4.0)

	if math.Abs(state.DVCM-8) > 1e-9 {
		t.Errorf("camera-hit update should always apply connection-length scaling, got DVCM = %v, want 8", state.DVCM)
	}
}

func TestAdvanceAfterScatterIncrementsPathLength(t *testing.T) {
	state := &PathState{PathLength: 1, DVCM: 1, DVC: 1, DVM: 1}
	w := vcmWeights{vmWeight: 0.5, vcWeight: 2}

	advanceAfterScatter(state, 0.8, 0.5, 0.5, w)

	if state.PathLength != 2 {
		t.Errorf("PathLength = %d, want 2", state.PathLength)
	}
	if math.Abs(state.DVCM-2) > 1e-9 {
		t.Errorf("DVCM = %v, want 1/fwdPdfW = 2", state.DVCM)
	}
}

func TestAdvanceAfterScatterFiniteForTypicalInputs(t *testing.T) {
	state := &PathState{PathLength: 3, DVCM: 1.2, DVC: 0.8, DVM: 0.4}
	w := vcmWeights{vmWeight: 0.1, vcWeight: 10}

	advanceAfterScatter(state, 0.6, 0.3, 0.25, w)

	if math.IsNaN(state.DVC) || math.IsNaN(state.DVM) || math.IsNaN(state.DVCM) {
		t.Errorf("expected finite MIS state, got %+v", state)
	}
}
