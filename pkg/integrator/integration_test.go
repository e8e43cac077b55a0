package integrator

import (
	"math/rand"
	"testing"

	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/scene"
)

func TestVCMKernelRunPassProducesFiniteImage(t *testing.T) {
	const width, height = 4, 4
	s := scene.NewDemoScene(width, height)

	kernel := &VCMKernel{Scene: s, MaxPathLength: 6, LightPathCount: width * height}
	image := make([]core.Vec3, width*height)
	rng := core.NewRandomSampler(rand.New(rand.NewSource(7)))

	radius := 0.05 * s.BoundingRadius
	kernel.RunPass(rng, image, radius)

	for i, c := range image {
		if !c.IsFinite() {
			t.Errorf("pixel %d = %v is not finite", i, c)
		}
		if c.X < 0 || c.Y < 0 || c.Z < 0 {
			t.Errorf("pixel %d = %v has a negative channel", i, c)
		}
	}
}

func TestVCMKernelZeroRadiusDegradesWithoutPanicking(t *testing.T) {
	const width, height = 3, 3
	s := scene.NewDemoScene(width, height)

	kernel := &VCMKernel{Scene: s, MaxPathLength: 5, LightPathCount: width * height}
	image := make([]core.Vec3, width*height)
	rng := core.NewRandomSampler(rand.New(rand.NewSource(3)))

	kernel.RunPass(rng, image, 0)

	for i, c := range image {
		if !c.IsFinite() {
			t.Errorf("pixel %d = %v is not finite with a forced zero merge radius", i, c)
		}
	}
}

func TestPathTracingKernelProducesFiniteImage(t *testing.T) {
	const width, height = 4, 4
	s := scene.NewDemoScene(width, height)

	kernel := &PathTracingKernel{Scene: s, MaxBounceCount: 6, RussianRouletteMinBounces: 3}
	rng := core.NewRandomSampler(rand.New(rand.NewSource(11)))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := kernel.TracePixel(rng, x, y)
			if !c.IsFinite() {
				t.Fatalf("pixel (%d,%d) = %v is not finite", x, y, c)
			}
		}
	}
}

func TestPathTracingKernelSinglePixelEmptySceneIsBlack(t *testing.T) {
	s := scene.NewScene(nil, nil, nil, nil, scene.NewCamera(
		core.NewVec3(0, 0, -1), core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), 40, 1, 1), nil)

	kernel := &PathTracingKernel{Scene: s, MaxBounceCount: 4, RussianRouletteMinBounces: 2}
	rng := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	c := kernel.TracePixel(rng, 0, 0)
	if !c.IsBlack() {
		t.Errorf("an empty scene with no IBL should trace to black, got %v", c)
	}
}
