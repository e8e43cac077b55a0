package renderer

import (
	"math"
	"testing"

	"github.com/vcmtracer/vcmtracer/pkg/core"
)

func TestRadiusScheduleMonotonicDecay(t *testing.T) {
	r0, alpha := 1.0, 0.75
	prev := RadiusSchedule(r0, alpha, 1)
	for k := int64(2); k <= 100; k++ {
		cur := RadiusSchedule(r0, alpha, k)
		if cur >= prev {
			t.Fatalf("radius should strictly decay with iteration index, r(%d)=%v >= r(%d)=%v", k, cur, k-1, prev)
		}
		prev = cur
	}
}

func TestRadiusScheduleAtFirstIterationEqualsR0(t *testing.T) {
	r0 := 0.25
	if got := RadiusSchedule(r0, 0.75, 1); math.Abs(got-r0) > 1e-12 {
		t.Errorf("RadiusSchedule(r0, alpha, 1) = %v, want %v", got, r0)
	}
}

type countingRunner struct {
	passes int
}

func (r *countingRunner) RunPass(rng core.Sampler, iterationIndex int64, image []core.Vec3) int {
	for i := range image {
		image[i] = image[i].Add(core.NewVec3(1, 1, 1))
	}
	return 1
}

func TestDriverRenderNormalizesBySampleCount(t *testing.T) {
	d := &Driver{
		Runner:             &countingRunner{},
		Width:              2,
		Height:             2,
		WorkerCount:        4,
		IntegrationSeconds: 0.05,
	}
	pixels := d.Render()

	if d.CompletedThreads() != d.KernelIndices() {
		t.Errorf("completed threads %d should equal kernel indices %d once Render returns", d.CompletedThreads(), d.KernelIndices())
	}
	if d.CompletedThreads() == 0 {
		t.Fatal("expected at least one worker to run")
	}

	for i, p := range pixels {
		if math.Abs(p.X-1) > 1e-9 || math.Abs(p.Y-1) > 1e-9 || math.Abs(p.Z-1) > 1e-9 {
			t.Errorf("pixel %d = %v, want (1,1,1) after normalizing by total sample count", i, p)
		}
	}
}

func TestDriverSingleWorkerFallback(t *testing.T) {
	d := &Driver{
		Runner:             &countingRunner{},
		Width:              1,
		Height:             1,
		WorkerCount:        0,
		IntegrationSeconds: 0.02,
	}
	d.Render()
	if d.KernelIndices() != 1 {
		t.Errorf("WorkerCount <= 0 should fall back to exactly one worker, got %d kernel indices", d.KernelIndices())
	}
}
