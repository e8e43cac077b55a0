package material

import (
	"math"
	"math/rand"
	"testing"

	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/scene"
)

func diffuseSurface() scene.SurfaceParameters {
	n := core.NewVec3(0, 1, 0)
	tangent, bitangent := core.CoordinateSystem(n)
	return scene.SurfaceParameters{
		Position:        core.NewVec3(0, 0, 0),
		GeometricNormal: n,
		ShadingNormal:   n,
		PerturbedNormal: n,
		Tangent:         tangent,
		Bitangent:       bitangent,
		Albedo:          core.NewVec3(0.6, 0.6, 0.6),
		Specular:        core.NewVec3(0.04, 0.04, 0.04),
		Roughness:       0.8,
		Metalness:       0,
	}
}

func TestEvaluateBsdfZeroBelowHemisphere(t *testing.T) {
	surface := diffuseSurface()
	wo := core.NewVec3(0, 1, 0)
	wi := core.NewVec3(0, -1, 0)

	rgb, fwdPdfW, revPdfW := EvaluateBsdf(surface, wo, wi)
	if !rgb.IsBlack() || fwdPdfW != 0 || revPdfW != 0 {
		t.Errorf("a direction below the hemisphere should evaluate to zero, got rgb=%v fwd=%v rev=%v", rgb, fwdPdfW, revPdfW)
	}
}

func TestEvaluateBsdfPositiveInHemisphere(t *testing.T) {
	surface := diffuseSurface()
	wo := core.NewVec3(0, 1, 0)
	wi := core.NewVec3(0.3, 0.9, 0.1).Normalize()

	rgb, fwdPdfW, _ := EvaluateBsdf(surface, wo, wi)
	if rgb.IsBlack() {
		t.Error("expected nonzero reflectance for two directions above the hemisphere")
	}
	if fwdPdfW <= 0 {
		t.Errorf("expected positive forward pdf, got %v", fwdPdfW)
	}
}

func TestEvaluateBsdfSymmetricPdf(t *testing.T) {
	// The reverse pdf of (wo, wi) is the forward pdf of the swapped pair
	// (wi, wo): swapping the directions swaps the two densities.
	surface := diffuseSurface()
	wo := core.NewVec3(0.2, 0.9, 0.1).Normalize()
	wi := core.NewVec3(-0.3, 0.8, 0.2).Normalize()

	_, _, revPdfW := EvaluateBsdf(surface, wo, wi)
	_, swappedFwdPdfW, _ := EvaluateBsdf(surface, wi, wo)
	if math.Abs(swappedFwdPdfW-revPdfW) > 1e-12 {
		t.Errorf("revPdfW = %v, forward pdf of the swapped pair = %v, want equal", revPdfW, swappedFwdPdfW)
	}
}

func TestSampleBsdfProducesUsableSample(t *testing.T) {
	surface := diffuseSurface()
	wo := core.NewVec3(0, 1, 0)
	rng := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	for i := 0; i < 50; i++ {
		sample, ok := SampleBsdf(surface, wo, rng)
		if !ok {
			continue
		}
		if sample.Wi.Dot(surface.PerturbedNormal) <= 0 {
			t.Errorf("sampled direction %v should be above the hemisphere", sample.Wi)
		}
		if sample.FwdPdfW <= 0 {
			t.Errorf("sampled direction should have a positive forward pdf, got %v", sample.FwdPdfW)
		}
		if !sample.Reflectance.IsFinite() {
			t.Errorf("reflectance %v should be finite", sample.Reflectance)
		}
	}
}

func TestSampleBsdfFailsBelowHemisphere(t *testing.T) {
	surface := diffuseSurface()
	wo := core.NewVec3(0, -1, 0) // viewer below the surface
	rng := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	if _, ok := SampleBsdf(surface, wo, rng); ok {
		t.Error("SampleBsdf should fail when wo is below the surface")
	}
}
