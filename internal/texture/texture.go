// Package texture decodes image files into linear-light float buffers and
// provides the triangle and EWA filtering lookups spec.md §4.1 step 7 and §6
// name as external collaborators.
package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/vcmtracer/vcmtracer/pkg/core"
)

// Texture is a decoded image stored as float64 RGB, ready for filtered
// lookup. sRGB textures are converted to linear at decode time so every
// downstream consumer works in linear light, matching spec.md §4.1 step 7
// ("sRGB textures are converted to linear").
type Texture struct {
	Width, Height int
	Pixels        []core.Vec3
}

// Load reads an image file from disk and decodes it into a Texture.
// srgb selects whether the source encodes color (gamma-compressed) or data
// (already linear, e.g. roughness/normal maps).
func Load(path string, srgb bool) (*Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}

	return fromImage(img, srgb), nil
}

func fromImage(img image.Image, srgb bool) *Texture {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]core.Vec3, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			c := core.NewVec3(float64(r)/65535.0, float64(g)/65535.0, float64(b)/65535.0)
			if srgb {
				c = sRGBToLinear(c)
			}
			pixels[y*w+x] = c
		}
	}

	return &Texture{Width: w, Height: h, Pixels: pixels}
}

func sRGBToLinear(c core.Vec3) core.Vec3 {
	f := func(v float64) float64 {
		if v <= 0.04045 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return core.NewVec3(f(c.X), f(c.Y), f(c.Z))
}

func (t *Texture) at(x, y int) core.Vec3 {
	x = clampInt(x, 0, t.Width-1)
	y = clampInt(y, 0, t.Height-1)
	return t.Pixels[y*t.Width+x]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Triangle performs bilinear ("triangle" filter) lookup at uv, the default
// texture sampling rule of spec.md §4.1 step 7.
func Triangle(t *Texture, uv core.Vec2) core.Vec3 {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return core.Vec3{}
	}

	fx := wrap(uv.X)*float64(t.Width) - 0.5
	fy := wrap(uv.Y)*float64(t.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	c00 := t.at(x0, y0)
	c10 := t.at(x0+1, y0)
	c01 := t.at(x0, y0+1)
	c11 := t.at(x0+1, y0+1)

	top := c00.Multiply(1 - tx).Add(c10.Multiply(tx))
	bottom := c01.Multiply(1 - tx).Add(c11.Multiply(tx))
	return top.Multiply(1 - ty).Add(bottom.Multiply(ty))
}

// EWA performs an elliptically-weighted-average filtered lookup using the
// screen-space uv footprint (duvdx, duvdy), reserved for the
// compile-time-tunable differential-aware path named in spec.md §4.1 step 7.
// The ellipse is approximated by a small footprint-adaptive supersample of
// the triangle filter, avoiding a full elliptical-Gaussian weight table
// while still anisotropically widening the sample when the footprint is
// stretched.
func EWA(t *Texture, uv, duvdx, duvdy core.Vec2) core.Vec3 {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return core.Vec3{}
	}

	majorLen := math.Max(duvdx.Length2(), duvdy.Length2())
	if majorLen <= 0 || math.IsNaN(majorLen) || math.IsInf(majorLen, 0) {
		return Triangle(t, uv)
	}

	const samples = 4
	sum := core.Vec3{}
	for i := 0; i < samples; i++ {
		frac := (float64(i) + 0.5) / samples
		offset := duvdx.Multiply(frac - 0.5).Add(duvdy.Multiply(frac - 0.5))
		sum = sum.Add(Triangle(t, uv.Add(offset)))
	}
	return sum.Multiply(1.0 / samples)
}

func wrap(v float64) float64 {
	v = math.Mod(v, 1.0)
	if v < 0 {
		v += 1.0
	}
	return v
}
