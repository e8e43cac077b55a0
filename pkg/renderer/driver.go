// Package renderer implements the parallel rendering driver spec.md §4.5
// and §5 name: a fixed pool of long-running worker goroutines, each
// repeatedly running whole passes against a private full-frame image until
// a soft time budget elapses, then merging into the shared result under a
// lock. Grounded on the teacher's pkg/renderer/worker_pool.go for the
// fixed-pool-of-long-running-workers shape and pkg/renderer/splat_queue.go
// for its one use of sync/atomic, generalized from a tile-dispatch queue
// (a different concurrency shape than spec.md §4.5 calls for) to whole-
// image passes per worker.
package renderer

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vcmtracer/vcmtracer/pkg/core"
)

// PassRunner executes one unit of work against a worker's private image and
// reports how many per-pixel samples it contributed, so the driver can
// normalize the merged result. iterationIndex is a globally shared,
// monotonically increasing counter across every worker, used by the VCM
// runner to derive this pass's merge radius (spec.md §4.4's radius
// schedule); the unidirectional runner ignores it.
type PassRunner interface {
	RunPass(rng core.Sampler, iterationIndex int64, image []core.Vec3) (samples int)
}

// Driver runs a PassRunner across a fixed pool of worker goroutines for up
// to integrationSeconds of wall time, per spec.md §5's concurrency model.
type Driver struct {
	Runner             PassRunner
	Width, Height      int
	WorkerCount        int
	IntegrationSeconds float64

	kernelIndices            atomic.Int64
	completedThreads         atomic.Int64
	iterationCount           atomic.Int64
	samplesEvaluatedPerPixel atomic.Int64

	imageMu sync.Mutex
	image   []core.Vec3
}

// Render runs the driver to completion and returns the final normalized
// image (row-major, len == Width*Height).
func (d *Driver) Render() []core.Vec3 {
	d.image = make([]core.Vec3, d.Width*d.Height)

	workerCount := d.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runWorker()
		}()
	}
	wg.Wait()

	total := d.samplesEvaluatedPerPixel.Load()
	if total <= 0 {
		return d.image
	}
	scale := 1.0 / float64(total)
	result := make([]core.Vec3, len(d.image))
	for i, c := range d.image {
		result[i] = c.Multiply(scale)
	}
	return result
}

// CompletedThreads, KernelIndices, IterationCount and SamplesEvaluatedPerPixel
// expose the four running counters spec.md §8 names as directly testable
// invariants (e.g. completedThreads never exceeds kernelIndices, and ends
// equal to it once Render returns).
func (d *Driver) CompletedThreads() int64        { return d.completedThreads.Load() }
func (d *Driver) KernelIndices() int64            { return d.kernelIndices.Load() }
func (d *Driver) IterationCount() int64           { return d.iterationCount.Load() }
func (d *Driver) SamplesEvaluatedPerPixel() int64 { return d.samplesEvaluatedPerPixel.Load() }

// runWorker is one worker's body: seed a private RNG from this worker's
// kernel index, run passes against a private image until the soft time
// budget elapses (checked only between whole passes, never mid-pass), then
// merge into the shared image under imageMu. Grounded on VCM.cpp's
// VCMKernel/PathTracerKernel worker-thread bodies; the spin-wait those use
// to join worker threads is replaced here by sync.WaitGroup, per spec.md
// §9 Design Notes' explicit sanction ("a proper join primitive is
// preferred in a systems-language rewrite").
func (d *Driver) runWorker() {
	kernelIndex := d.kernelIndices.Add(1)
	rng := core.NewRandomSampler(rand.New(rand.NewSource(kernelIndex)))

	privateImage := make([]core.Vec3, d.Width*d.Height)
	var samples int64

	deadline := time.Now().Add(time.Duration(d.IntegrationSeconds * float64(time.Second)))
	for time.Now().Before(deadline) {
		index := d.iterationCount.Add(1)
		samples += int64(d.Runner.RunPass(rng, index, privateImage))
	}

	d.samplesEvaluatedPerPixel.Add(samples)

	d.imageMu.Lock()
	for i, c := range privateImage {
		d.image[i] = d.image[i].Add(c)
	}
	d.imageMu.Unlock()

	d.completedThreads.Add(1)
}

// RadiusSchedule computes the merge radius for a VCM pass at the given
// globally-shared iteration index, per spec.md §4.2:
// r_k = r0 / k^(0.5*(1-alpha)). Exported standalone so its monotonic-decay
// invariant (spec.md §8) is directly testable without spinning up a
// Driver.
func RadiusSchedule(r0, alpha float64, iterationIndex int64) float64 {
	return r0 / math.Pow(float64(iterationIndex), 0.5*(1-alpha))
}
