package scene

import (
	"github.com/vcmtracer/vcmtracer/internal/texture"
	"github.com/vcmtracer/vcmtracer/pkg/core"
)

// Material holds the untextured base values and optional texture
// references for a triangle's shading response (spec.md §3, §4.1 step 7).
// A texture index of -1 means the channel has no texture and the base
// value (or the step's documented default) is used as-is.
type Material struct {
	Albedo      core.Vec3
	HasSpecular bool // false selects the step 7 default: specular = albedo
	Specular    core.Vec3
	Roughness   float64
	Metalness   float64
	IOR         float64
	Emissive    core.Vec3

	AlbedoTex    int
	SpecularTex  int
	RoughnessTex int
	MetalnessTex int
	EmissiveTex  int
	NormalTex    int

	Transparent bool
}

// textureSet is the read-only texture table a Scene carries; indices into
// Material's *Tex fields select into it, or -1 for "no texture".
type textureSet []*texture.Texture

func (ts textureSet) lookup(idx int) *texture.Texture {
	if idx < 0 || idx >= len(ts) {
		return nil
	}
	return ts[idx]
}
