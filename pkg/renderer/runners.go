package renderer

import (
	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/integrator"
)

// VCMRunner adapts a VCMKernel into a PassRunner, deriving each pass's
// merge radius from the globally shared iteration index via RadiusSchedule
// (spec.md §4.2, §4.4's "VCM Kernel" worker-thread body).
type VCMRunner struct {
	Kernel       *integrator.VCMKernel
	RadiusFactor float64 // r0; already scaled by the scene's bounding radius
	RadiusAlpha  float64
}

func (r *VCMRunner) RunPass(rng core.Sampler, iterationIndex int64, image []core.Vec3) int {
	radius := RadiusSchedule(r.RadiusFactor, r.RadiusAlpha, iterationIndex)
	r.Kernel.RunPass(rng, image, radius)
	return 1
}

// PathTracingRunner adapts a PathTracingKernel into a PassRunner: one pass
// is RaysPerPixelPerPass full image sweeps of one sample per pixel each.
// The count is not divided across workers; every worker's pass takes the
// full RaysPerPixelPerPass samples and reports that many.
type PathTracingRunner struct {
	Kernel              *integrator.PathTracingKernel
	Width, Height       int
	RaysPerPixelPerPass int
}

func (r *PathTracingRunner) RunPass(rng core.Sampler, iterationIndex int64, image []core.Vec3) int {
	for scan := 0; scan < r.RaysPerPixelPerPass; scan++ {
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				index := y*r.Width + x
				image[index] = image[index].Add(r.Kernel.TracePixel(rng, x, y))
			}
		}
	}
	return r.RaysPerPixelPerPass
}
