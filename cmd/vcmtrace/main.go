// Command vcmtrace renders a scene with either the VCM bidirectional
// integrator or the unidirectional path tracer, following the flag
// parsing and scene-selection-switch shape of the teacher's main.go.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vcmtracer/vcmtracer/internal/config"
	"github.com/vcmtracer/vcmtracer/internal/imageio"
	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/integrator"
	"github.com/vcmtracer/vcmtracer/pkg/renderer"
	"github.com/vcmtracer/vcmtracer/pkg/scene"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := core.NewDefaultLogger()

	configPath := flag.String("config", "", "path to a JSON config file (optional)")
	scenePath := flag.String("scene", "", "scene name, 'demo' for the built-in room (scene-file loading is not implemented)")
	outPath := flag.String("out", "render.png", "output image path (.png or .webp)")
	variant := flag.String("variant", "", "integrator: 'vcm' or 'pt' (default vcm)")
	seconds := flag.Float64("seconds", 0, "integration time budget in seconds")
	spp := flag.Int("spp", 0, "rays per pixel per pass, pt variant only")
	threads := flag.Int("threads", 0, "worker count (default 8 if multithreading, else 1)")
	width := flag.Int("width", 400, "image width")
	height := flag.Int("height", 400, "image height")
	flag.Parse()

	cfg := config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Printf("vcmtrace: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	cfg.Resolve(config.Flags{
		ScenePath: *scenePath,
		OutPath:   *outPath,
		Variant:   *variant,
		Seconds:   *seconds,
		Spp:       *spp,
		Threads:   *threads,
	})

	s, err := loadScene(cfg.ScenePath, *width, *height)
	if err != nil {
		logger.Printf("vcmtrace: %v\n", err)
		return 1
	}

	driver := &renderer.Driver{
		Width:              *width,
		Height:             *height,
		WorkerCount:        cfg.Workers,
		IntegrationSeconds: cfg.IntegrationSeconds,
	}

	switch cfg.Variant {
	case "pt":
		driver.Runner = &renderer.PathTracingRunner{
			Kernel: &integrator.PathTracingKernel{
				Scene:                     s,
				MaxBounceCount:            cfg.MaxBounceCount,
				RussianRouletteMinBounces: config.RussianRouletteMinBounces,
			},
			Width:               *width,
			Height:              *height,
			RaysPerPixelPerPass: cfg.RaysPerPixel,
		}
	case "vcm":
		lightPathCount := (*width) * (*height)
		driver.Runner = &renderer.VCMRunner{
			Kernel: &integrator.VCMKernel{
				Scene:          s,
				MaxPathLength:  cfg.MaxBounceCount,
				LightPathCount: lightPathCount,
			},
			RadiusFactor: cfg.VcmRadiusFactor * s.BoundingRadius,
			RadiusAlpha:  cfg.VcmRadiusAlpha,
		}
	default:
		logger.Printf("vcmtrace: unknown variant %q, want 'vcm' or 'pt'\n", cfg.Variant)
		return 1
	}

	logger.Printf("vcmtrace: rendering %dx%d with %s for %.1fs on %d workers\n",
		*width, *height, cfg.Variant, cfg.IntegrationSeconds, driver.WorkerCount)

	start := time.Now()
	pixels := driver.Render()
	logger.Printf("vcmtrace: render finished in %v (%d passes)\n", time.Since(start), driver.IterationCount())

	img := imageio.ToImage(pixels, *width, *height)
	if err := imageio.Save(cfg.OutPath, img); err != nil {
		logger.Printf("vcmtrace: %v\n", err)
		return 1
	}

	logger.Printf("vcmtrace: wrote %s\n", cfg.OutPath)
	return 0
}

// loadScene resolves a scene name to a Scene. Parsing an external scene
// file format is out of scope (spec.md §1 names scene construction as an
// external collaborator); "demo" and the empty name both select the
// built-in room so the command is runnable without one.
func loadScene(name string, width, height int) (*scene.Scene, error) {
	switch name {
	case "", "demo":
		return scene.NewDemoScene(width, height), nil
	default:
		return nil, fmt.Errorf("scene %q: scene-file loading is not implemented, use -scene demo", name)
	}
}
