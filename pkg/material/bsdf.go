// Package material implements the textured metallic-roughness BSDF
// spec.md §1 and §6 name as an external collaborator ("BSDF evaluation
// and sampling of specific material models") but which a runnable
// integrator needs a concrete instance of. Realized as a tagged union of
// a diffuse lobe and a GGX specular lobe blended by metalness, per
// spec.md §9 Design Notes ("realise [BSDF variants] as a sum-type/tagged-
// union of material variants rather than open polymorphism"), grounded on
// the teacher's Dielectric (Fresnel-Schlick reflectance), Metal (fuzzy
// specular), Lambertian (cosine sampling+PDF), and Mix (probabilistic
// lobe selection).
package material

import (
	"math"

	"github.com/vcmtracer/vcmtracer/pkg/core"
	"github.com/vcmtracer/vcmtracer/pkg/scene"
)

// BsdfSample is the result of SampleBsdf, per spec.md §6:
// `sampleBsdfFunction(surface, wo, rng) → { wi, reflectance, fwdPdfW, revPdfW } | fail`.
type BsdfSample struct {
	Wi          core.Vec3
	Reflectance core.Vec3
	FwdPdfW     float64
	RevPdfW     float64
}

const minRoughness = 0.02

// dielectricF0 is the normal-incidence Fresnel reflectance of a typical
// dielectric (IOR ~1.5), used as the specular-lobe base reflectance for
// non-metallic surfaces.
const dielectricF0 = 0.04

// EvaluateBsdf evaluates the BSDF for a fixed pair of directions, per
// spec.md §6: `evaluateBsdf(surface, wo, wi) → (rgb, fwdPdfW, revPdfW)`.
// The canonical convention named in spec.md §9 Design Notes applies:
// wo = -incomingDir, wi = outgoingDir, both in world space.
func EvaluateBsdf(surface scene.SurfaceParameters, wo, wi core.Vec3) (rgb core.Vec3, fwdPdfW, revPdfW float64) {
	n := surface.PerturbedNormal
	cosWo := n.Dot(wo)
	cosWi := n.Dot(wi)
	if cosWo <= 0 || cosWi <= 0 {
		return core.Vec3{}, 0, 0
	}

	diffuseWeight, specularWeight := lobeWeights(surface)
	roughness := math.Max(surface.Roughness, minRoughness)
	f0 := fresnelF0(surface)

	h := wo.Add(wi).Normalize()
	cosWoH := math.Max(wo.Dot(h), 1e-6)

	diffuse := surface.Albedo.Multiply((1 - surface.Metalness) / math.Pi)
	diffusePdf := cosWi / math.Pi

	d := ggxD(n.Dot(h), roughness)
	g := ggxG(cosWo, cosWi, roughness)
	fr := fresnelSchlick(f0, cosWoH)
	specular := fr.Multiply(d * g / (4 * cosWo * cosWi))
	specularPdf := d * n.Dot(h) / (4 * cosWoH)

	rgb = diffuse.Multiply(diffuseWeight).Add(specular.Multiply(specularWeight))
	fwdPdfW = diffuseWeight*diffusePdf + specularWeight*specularPdf
	// reverse density: the specular term is symmetric in wo/wi, the diffuse term uses cosWo
	revPdfW = diffuseWeight*cosWo/math.Pi + specularWeight*specularPdf
	return rgb, fwdPdfW, revPdfW
}

// SampleBsdf draws an outgoing direction and returns its reflectance and
// forward/reverse pdfs, per spec.md §6. Returns ok=false exactly when wo
// is below the surface, or the sampled lobe produces a direction below the
// surface, a zero forward pdf or zero reflectance, matching the "expected, path-local" error policy of
// spec.md §7 (the caller discards the subpath silently).
func SampleBsdf(surface scene.SurfaceParameters, wo core.Vec3, rng core.Sampler) (BsdfSample, bool) {
	n := surface.PerturbedNormal
	cosWo := n.Dot(wo)
	if cosWo <= 0 {
		return BsdfSample{}, false
	}

	_, specularWeight := lobeWeights(surface)
	roughness := math.Max(surface.Roughness, minRoughness)

	var wi core.Vec3
	if rng.Get1D() < specularWeight {
		h := sampleGGXHalfVector(n, roughness, rng.Get2D())
		wi = wo.Negate().Reflect(h)
	} else {
		wi = core.SampleCosineHemisphere(n, rng.Get2D())
	}

	cosWi := n.Dot(wi)
	if cosWi <= 0 {
		return BsdfSample{}, false
	}

	rgb, fwdPdfW, revPdfW := EvaluateBsdf(surface, wo, wi)
	if fwdPdfW <= 0 || rgb.IsBlack() {
		return BsdfSample{}, false
	}

	// Reflectance is pre-multiplied by the sampled direction's cosine and
	// divided by its forward pdf, so callers can update path throughput
	// with a bare multiply (throughput *= sample.Reflectance), matching
	// the convention of the bidirectional integrator this feeds.
	reflectance := rgb.Multiply(cosWi / fwdPdfW)

	return BsdfSample{
		Wi:          wi,
		Reflectance: reflectance,
		FwdPdfW:     fwdPdfW,
		RevPdfW:     revPdfW,
	}, true
}

func lobeWeights(surface scene.SurfaceParameters) (diffuse, specular float64) {
	specular = 0.5 + 0.5*surface.Metalness
	return 1 - specular, specular
}

func fresnelF0(surface scene.SurfaceParameters) core.Vec3 {
	base := core.NewVec3(dielectricF0, dielectricF0, dielectricF0)
	return base.Multiply(1 - surface.Metalness).Add(surface.Specular.Multiply(surface.Metalness))
}

func fresnelSchlick(f0 core.Vec3, cosTheta float64) core.Vec3 {
	t := math.Pow(1-cosTheta, 5)
	one := core.NewVec3(1, 1, 1)
	return f0.Add(one.Subtract(f0).Multiply(t))
}

// ggxD is the GGX/Trowbridge-Reitz normal distribution function.
func ggxD(cosNH float64, roughness float64) float64 {
	if cosNH <= 0 {
		return 0
	}
	a2 := roughness * roughness * roughness * roughness
	denom := cosNH*cosNH*(a2-1) + 1
	return a2 / (math.Pi * denom * denom)
}

// ggxG is the Smith joint masking-shadowing term.
func ggxG(cosWo, cosWi, roughness float64) float64 {
	k := roughness * roughness / 2
	g1 := func(cos float64) float64 { return cos / (cos*(1-k) + k) }
	return g1(cosWo) * g1(cosWi)
}

func sampleGGXHalfVector(n core.Vec3, roughness float64, sample core.Vec2) core.Vec3 {
	a := roughness * roughness
	phi := 2 * math.Pi * sample.X
	cosTheta := math.Sqrt((1 - sample.Y) / (1 + (a*a-1)*sample.Y))
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))

	tangent, bitangent := core.CoordinateSystem(n)
	local := tangent.Multiply(sinTheta * math.Cos(phi)).
		Add(bitangent.Multiply(sinTheta * math.Sin(phi))).
		Add(n.Multiply(cosTheta))
	return local.Normalize()
}
